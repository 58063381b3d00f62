package assets

import (
	"encoding/json"
	"fmt"
	"os"

	"mobacore/internal/ecs"
	"mobacore/internal/outcome"
)

// entityRecord is one archetype definition from the entity file: heroes,
// enemy heroes, creeps, neutrals and summons, with their stats and slotted
// abilities.
type entityRecord struct {
	ID   string `json:"id"`
	Role string `json:"role"` // hero | creep | tower | neutral

	MaxHP            float64 `json:"max_hp"`
	MaxMP            float64 `json:"max_mp"`
	Armor            float64 `json:"armor"`
	MagicResist      float64 `json:"magic_resist"`
	HPRegenPerSecond float64 `json:"hp_regen_per_second"`
	MPRegenPerSecond float64 `json:"mp_regen_per_second"`

	AttackDamage           float64 `json:"attack_damage"`
	AttackRange            float64 `json:"attack_range"`
	AttackCadencePerSecond float64 `json:"attack_cadence_per_second"`
	ProjectileSpeed        float64 `json:"projectile_speed,omitempty"`

	Bounty    int     `json:"bounty,omitempty"`
	MoveSpeed float64 `json:"move_speed,omitempty"`

	BuildCost     int `json:"build_cost,omitempty"`
	BlockCapacity int `json:"block_capacity,omitempty"`

	PrimaryAttribute string             `json:"primary_attribute,omitempty"`
	BaseAttributes   *attributeRecord   `json:"base_attributes,omitempty"`
	GrowthAttributes *attributeRecord   `json:"growth_attributes,omitempty"`
	AbilityBook      map[string]string  `json:"ability_book,omitempty"` // slot -> ability id
	StartingSkills   []string           `json:"starting_skills,omitempty"`

	VisionRadius           float64 `json:"vision_radius,omitempty"`
	VisionHeight           float64 `json:"vision_height,omitempty"`
	VisionAngularPrecision int     `json:"vision_angular_precision,omitempty"`

	HeroRespawn          bool    `json:"hero_respawn,omitempty"`
	RespawnDelaySeconds  float64 `json:"respawn_delay_seconds,omitempty"`
	RespawnX             float64 `json:"respawn_x,omitempty"`
	RespawnY             float64 `json:"respawn_y,omitempty"`
	RespawnHPFraction    float64 `json:"respawn_hp_fraction,omitempty"`
	RespawnMPFraction    float64 `json:"respawn_mp_fraction,omitempty"`
}

type attributeRecord struct {
	Strength     float64 `json:"strength"`
	Agility      float64 `json:"agility"`
	Intelligence float64 `json:"intelligence"`
}

// Archetypes implements outcome.ArchetypeLookup against the parsed entity
// record set, plus Registry()-style lookups the wave scheduler and
// bootstrap wiring need directly (respawn policy, vision presence).
type Archetypes struct {
	records map[string]entityRecord
}

func loadEntities(path string) (*Archetypes, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assets: reading entity file %s: %w", path, err)
	}

	var records []entityRecord
	if err := json.Unmarshal(stripJSONComments(raw), &records); err != nil {
		return nil, fmt.Errorf("assets: parsing entity file %s: %w", path, err)
	}

	byID := make(map[string]entityRecord, len(records))
	for _, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("assets: entity record with empty id")
		}
		// "hero_kill" is a reserved synthetic record: it carries only a
		// Bounty (the generic hero-kill reward) and is never spawned, so
		// it is exempt from the role requirement every real archetype has.
		if r.Role != "" || r.ID != "hero_kill" {
			if _, ok := roleFromString(r.Role); !ok {
				return nil, fmt.Errorf("assets: entity %q has unknown role %q", r.ID, r.Role)
			}
		}
		if r.HeroRespawn {
			if r.RespawnDelaySeconds <= 0 || (r.RespawnHPFraction == 0 && r.RespawnMPFraction == 0) {
				return nil, fmt.Errorf("assets: entity %q declares hero_respawn but is missing respawn fields", r.ID)
			}
		}
		byID[r.ID] = r
	}

	return &Archetypes{records: byID}, nil
}

func roleFromString(s string) (outcome.ArchetypeRole, bool) {
	switch s {
	case "hero":
		return outcome.RoleHero, true
	case "creep":
		return outcome.RoleCreep, true
	case "tower":
		return outcome.RoleTower, true
	case "neutral", "summon":
		return outcome.RoleNone, true
	default:
		return 0, false
	}
}

func (a *Archetypes) SpawnComponents(archetypeID string) (ecs.Velocity, ecs.CombatStats, ecs.Attack, bool) {
	r, ok := a.records[archetypeID]
	if !ok {
		return ecs.Velocity{}, ecs.CombatStats{}, ecs.Attack{}, false
	}
	stats := ecs.CombatStats{
		HP: r.MaxHP, MaxHP: r.MaxHP,
		MP: r.MaxMP, MaxMP: r.MaxMP,
		Armor:            r.Armor,
		MagicResist:      r.MagicResist,
		HPRegenPerSecond: r.HPRegenPerSecond,
		MPRegenPerSecond: r.MPRegenPerSecond,
	}
	atk := ecs.Attack{
		Damage:           r.AttackDamage,
		Range:            r.AttackRange,
		CadencePerSecond: r.AttackCadencePerSecond,
		ProjectileSpeed:  r.ProjectileSpeed,
	}
	return ecs.Velocity{}, stats, atk, true
}

func (a *Archetypes) Role(archetypeID string) outcome.ArchetypeRole {
	r, ok := a.records[archetypeID]
	if !ok {
		return outcome.RoleNone
	}
	role, _ := roleFromString(r.Role)
	return role
}

func (a *Archetypes) HeroComponents(archetypeID string) ecs.Hero {
	r := a.records[archetypeID]
	base := attributeSet(r.BaseAttributes)
	growth := attributeSet(r.GrowthAttributes)
	return ecs.Hero{
		Level:       1,
		Primary:     primaryFromString(r.PrimaryAttribute),
		Base:        base,
		Growth:      growth,
		ArchetypeID: archetypeID,
	}
}

func (a *Archetypes) CreepComponents(archetypeID string) ecs.Creep {
	r := a.records[archetypeID]
	return ecs.Creep{
		ArchetypeID: archetypeID,
		Bounty:      r.Bounty,
		MoveSpeed:   r.MoveSpeed,
	}
}

func (a *Archetypes) TowerComponents(archetypeID string) ecs.Tower {
	r := a.records[archetypeID]
	return ecs.Tower{
		ArchetypeID:   archetypeID,
		BuildCost:     r.BuildCost,
		BlockCapacity: r.BlockCapacity,
	}
}

func (a *Archetypes) Vision(archetypeID string) (ecs.Vision, bool) {
	r, ok := a.records[archetypeID]
	if !ok || r.VisionRadius <= 0 {
		return ecs.Vision{}, false
	}
	precision := r.VisionAngularPrecision
	if precision <= 0 {
		precision = 360
	}
	return ecs.Vision{
		Radius:           r.VisionRadius,
		Height:           r.VisionHeight,
		AngularPrecision: precision,
	}, true
}

func (a *Archetypes) AbilityBook(archetypeID string) (ecs.AbilityBook, bool) {
	r, ok := a.records[archetypeID]
	if !ok || len(r.AbilityBook) == 0 {
		return ecs.AbilityBook{}, false
	}
	slots := make(map[string]string, len(r.AbilityBook))
	for slot, id := range r.AbilityBook {
		slots[slot] = id
	}
	return ecs.AbilityBook{Slots: slots}, true
}

func (a *Archetypes) StartingSkills(archetypeID string) []string {
	return a.records[archetypeID].StartingSkills
}

func (a *Archetypes) Bounty(archetypeID string) int {
	return a.records[archetypeID].Bounty
}

// RespawnPolicy returns the hero archetype's respawn policy, resolved at
// load time: only present when hero_respawn=true, in which case
// loadEntities' validation guarantees a delay > 0 and at least one
// non-zero HP/MP fraction; the position is not checked.
func (a *Archetypes) RespawnPolicy(archetypeID string) (ecs.RespawnPolicy, bool) {
	r, ok := a.records[archetypeID]
	if !ok || !r.HeroRespawn {
		return ecs.RespawnPolicy{}, false
	}
	return ecs.RespawnPolicy{
		DelaySeconds: r.RespawnDelaySeconds,
		Position:     ecs.Position{X: r.RespawnX, Y: r.RespawnY},
		HPFraction:   r.RespawnHPFraction,
		MPFraction:   r.RespawnMPFraction,
	}, true
}

func attributeSet(r *attributeRecord) ecs.AttributeSet {
	if r == nil {
		return ecs.AttributeSet{}
	}
	return ecs.AttributeSet{Strength: r.Strength, Agility: r.Agility, Intelligence: r.Intelligence}
}

func primaryFromString(s string) ecs.PrimaryAttribute {
	switch s {
	case "agility":
		return ecs.PrimaryAgility
	case "intelligence":
		return ecs.PrimaryIntelligence
	default:
		return ecs.PrimaryStrength
	}
}
