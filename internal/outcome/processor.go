package outcome

import (
	"mobacore/internal/ecs"
	"mobacore/internal/obslog"
)

// MaxCascade bounds the drain fixpoint loop: an outcome may
// enqueue further outcomes (Damage -> Death -> Despawn + GainXP); beyond
// this many rounds the remainder is logged as a cascade overflow and
// dropped, never applied.
const MaxCascade = 8

// EventKind names one of the outbound wire event kinds.
type EventKind string

const (
	EventSpawned      EventKind = "spawned"
	EventDespawned    EventKind = "despawned"
	EventMoved        EventKind = "moved"
	EventDamaged      EventKind = "damaged"
	EventHealed       EventKind = "healed"
	EventSkillCast    EventKind = "skill_cast"
	EventDied         EventKind = "died"
	EventLevelUp      EventKind = "level_up"
	EventVisionUpdate EventKind = "vision_update"
)

// Event is one line of the per-tick outbound batch, prior to per-client
// vision filtering (done by the egress adapter, not here).
type Event struct {
	Kind   EventKind
	Entity ecs.Entity
	Data   map[string]any
}

// Processor is the single writer at the end of each tick:
// strictly sequential, never run concurrently with any system.
type Processor struct {
	CascadeOverflows uint64
	archetypes       ArchetypeLookup
}

// ArchetypeRole says which sparse role component, if any, a spawned
// archetype carries (the entity record's "role" field).
type ArchetypeRole int

const (
	RoleNone ArchetypeRole = iota
	RoleHero
	RoleCreep
	RoleTower
)

// ArchetypeLookup resolves a Spawn outcome's archetype id into concrete
// starting components. Implemented by the asset registry loaded at
// bootstrap (internal/assets); kept as an interface here so the processor
// has no load-time dependency on file formats.
type ArchetypeLookup interface {
	SpawnComponents(archetypeID string) (ecs.Velocity, ecs.CombatStats, ecs.Attack, bool)
	Role(archetypeID string) ArchetypeRole
	HeroComponents(archetypeID string) ecs.Hero
	CreepComponents(archetypeID string) ecs.Creep
	TowerComponents(archetypeID string) ecs.Tower
	Vision(archetypeID string) (ecs.Vision, bool)
	AbilityBook(archetypeID string) (ecs.AbilityBook, bool)
	StartingSkills(archetypeID string) []string // ability ids learned at level 1 on spawn
	RespawnPolicy(archetypeID string) (ecs.RespawnPolicy, bool)
	Bounty(archetypeID string) int
}

func NewProcessor(lookup ArchetypeLookup) *Processor {
	return &Processor{archetypes: lookup}
}

// Drain applies every merged outcome, looping over cascades it produces
// until the queue empties or MaxCascade rounds have run. It returns the
// ordered list of outbound events for egress.
func (p *Processor) Drain(w *ecs.World, initial []Outcome) []Event {
	var events []Event
	round := initial
	depth := 0

	for len(round) > 0 {
		if depth >= MaxCascade {
			p.CascadeOverflows += uint64(len(round))
			obslog.RecordCascadeOverflow()
			for range round {
				obslog.RecordOutcomeDropped()
			}
			obslog.Warnf("outcome: cascade overflow, dropping %d outcomes past depth %d", len(round), MaxCascade)
			break
		}

		var next []Outcome
		for _, o := range round {
			produced, ev := p.apply(w, o)
			next = append(next, produced...)
			events = append(events, ev...)
		}
		round = next
		depth++
	}

	return events
}

func (p *Processor) apply(w *ecs.World, o Outcome) ([]Outcome, []Event) {
	switch v := o.(type) {
	case Damage:
		obslog.RecordOutcome("damage")
		return p.applyDamage(w, v)
	case Heal:
		obslog.RecordOutcome("heal")
		return p.applyHeal(w, v)
	case GainXP:
		obslog.RecordOutcome("gain_xp")
		return p.applyGainXP(w, v)
	case Spawn:
		obslog.RecordOutcome("spawn")
		return p.applySpawn(w, v)
	case Despawn:
		obslog.RecordOutcome("despawn")
		return p.applyDespawn(w, v)
	case Death:
		obslog.RecordOutcome("death")
		return p.applyDeath(w, v)
	case ProjectileFire:
		obslog.RecordOutcome("projectile_fire")
		return p.applyProjectileFire(w, v)
	case CreepStop:
		obslog.RecordOutcome("creep_stop")
		return p.applyCreepStop(w, v)
	case Move:
		obslog.RecordOutcome("move")
		return p.applyMove(w, v)
	case AttributeModifier:
		obslog.RecordOutcome("attribute_modifier")
		return p.applyAttributeModifier(w, v)
	default:
		return nil, nil
	}
}

func (p *Processor) applyDamage(w *ecs.World, d Damage) ([]Outcome, []Event) {
	if !w.Alive(d.Target) {
		return nil, nil
	}
	stats := w.CombatStats(d.Target)
	amount := d.Amount
	if amount < 0 {
		amount = 0
	}
	stats.HP -= amount
	var cascade []Outcome
	if stats.HP <= 0 {
		stats.HP = 0
		if _, marked := w.DeathMark(d.Target); !marked {
			cascade = append(cascade, Death{Target: d.Target, Killer: d.Source})
		}
	}
	w.SetCombatStats(d.Target, stats)

	return cascade, []Event{{
		Kind:   EventDamaged,
		Entity: d.Target,
		Data: map[string]any{
			"amount": amount,
			"type":   d.DamageType,
			"source": d.Source,
			"hp":     stats.HP,
		},
	}}
}

func (p *Processor) applyHeal(w *ecs.World, h Heal) ([]Outcome, []Event) {
	if !w.Alive(h.Target) {
		return nil, nil
	}
	stats := w.CombatStats(h.Target)
	if stats.HP >= stats.MaxHP || h.Amount <= 0 {
		// Idempotent no-op: no hp change, no cascaded outcome.
		return nil, nil
	}
	stats.HP += h.Amount
	if stats.HP > stats.MaxHP {
		stats.HP = stats.MaxHP
	}
	w.SetCombatStats(h.Target, stats)
	return nil, []Event{{
		Kind:   EventHealed,
		Entity: h.Target,
		Data:   map[string]any{"amount": h.Amount, "hp": stats.HP},
	}}
}

func (p *Processor) applyGainXP(w *ecs.World, g GainXP) ([]Outcome, []Event) {
	if !w.Alive(g.Target) {
		return nil, nil
	}
	hero, ok := w.Hero(g.Target)
	if !ok {
		return nil, nil
	}
	hero.XP += g.Amount
	events := []Event{}
	leveledUp := false
	for xpForNextLevel(hero.Level) <= hero.XP {
		hero.Level++
		leveledUp = true
	}
	if leveledUp {
		events = append(events, Event{
			Kind:   EventLevelUp,
			Entity: g.Target,
			Data:   map[string]any{"level": hero.Level},
		})
		recomputeAttributes(w, g.Target, hero)
	}
	return nil, events
}

// xpForNextLevel is a simple non-negotiated-by-spec curve: level N needs
// 100*(N+1) total xp to reach N+1. The curve itself is a tunable; only the
// level-up trigger and the attribute recomputation that follows are load-
// bearing.
func xpForNextLevel(level int) int {
	return 100 * (level + 1)
}

func recomputeAttributes(w *ecs.World, e ecs.Entity, hero *ecs.Hero) {
	stats := w.CombatStats(e)
	str := hero.Base.Strength + hero.Growth.Strength*float64(hero.Level-1)
	stats.MaxHP = 100 + str*20
	if stats.HP > stats.MaxHP {
		stats.HP = stats.MaxHP
	}
	w.SetCombatStats(e, stats)
	w.SetHero(e, hero)
}

func (p *Processor) applySpawn(w *ecs.World, s Spawn) ([]Outcome, []Event) {
	vel, stats, atk, ok := p.archetypes.SpawnComponents(s.ArchetypeID)
	if !ok {
		obslog.Warnf("outcome: spawn requested unknown archetype %q, dropping", s.ArchetypeID)
		return nil, nil
	}
	e := w.Spawn(s.Position, vel, s.Faction, stats, atk)

	switch p.archetypes.Role(s.ArchetypeID) {
	case RoleHero:
		hero := p.archetypes.HeroComponents(s.ArchetypeID)
		w.SetHero(e, &hero)
	case RoleCreep:
		creep := p.archetypes.CreepComponents(s.ArchetypeID)
		creep.PathID = s.PathID
		w.SetCreep(e, &creep)
	case RoleTower:
		tower := p.archetypes.TowerComponents(s.ArchetypeID)
		w.SetTower(e, &tower)
	}

	if vis, ok := p.archetypes.Vision(s.ArchetypeID); ok {
		w.SetVision(e, &vis)
	}
	if book, ok := p.archetypes.AbilityBook(s.ArchetypeID); ok {
		w.SetAbilityBook(e, &book)
		for _, abilityID := range p.archetypes.StartingSkills(s.ArchetypeID) {
			// A Skill component lives on its own entity (Skill.Owner points
			// back to e) since one owner can hold several. That slot entity
			// is marked dead from birth so it never surfaces in spatial or
			// combat scans; Skills(owner) is the only path that reaches it.
			slot := w.Spawn(ecs.Position{}, ecs.Velocity{}, ecs.Faction{}, ecs.CombatStats{}, ecs.Attack{})
			w.SetSkill(slot, &ecs.Skill{AbilityID: abilityID, Level: 1, Owner: e})
			w.SetDeathMark(slot, &ecs.DeathMark{Reason: ecs.DeathByDespawnRequest})
		}
	}

	return nil, []Event{{
		Kind:   EventSpawned,
		Entity: e,
		Data:   map[string]any{"archetype": s.ArchetypeID, "position": s.Position, "player_id": s.PlayerID},
	}}
}

func (p *Processor) applyDespawn(w *ecs.World, d Despawn) ([]Outcome, []Event) {
	if !w.Alive(d.Target) {
		return nil, nil
	}
	w.Despawn(d.Target)
	return nil, []Event{{
		Kind:   EventDespawned,
		Entity: d.Target,
		Data:   map[string]any{"reason": d.Reason},
	}}
}

func (p *Processor) applyDeath(w *ecs.World, d Death) ([]Outcome, []Event) {
	if !w.Alive(d.Target) {
		return nil, nil
	}
	mark, hasMark := w.DeathMark(d.Target)
	if !hasMark {
		mark = &ecs.DeathMark{Reason: ecs.DeathByDamage, Instigator: d.Killer}
		if hero, ok := w.Hero(d.Target); ok {
			if policy, ok := p.archetypes.RespawnPolicy(hero.ArchetypeID); ok {
				mark.Respawn = &policy
			}
		}
		w.SetDeathMark(d.Target, mark)
	}

	var cascade []Outcome
	if !d.Killer.IsNil() && w.Alive(d.Killer) {
		if creep, ok := w.Creep(d.Target); ok {
			cascade = append(cascade, GainXP{Target: d.Killer, Amount: creep.Bounty, Source: d.Target})
		} else if _, ok := w.Hero(d.Target); ok {
			cascade = append(cascade, GainXP{Target: d.Killer, Amount: p.archetypes.Bounty("hero_kill"), Source: d.Target})
		}
	}

	// Respawn policy resolved: the hero is despawned like any other dead
	// entity; the server's world-bootstrap spawn scheduler is responsible
	// for re-Spawn-ing it after RespawnPolicy.DelaySeconds (tracked outside
	// the outcome pipeline, since it is a timed side effect rather than an
	// immediate cascade).
	cascade = append(cascade, Despawn{Target: d.Target, Reason: DespawnDeath})

	data := map[string]any{"killer": d.Killer, "faction": w.Faction(d.Target).ID}
	if hero, ok := w.Hero(d.Target); ok {
		data["archetype"] = hero.ArchetypeID
		if mark.Respawn != nil {
			data["respawn"] = *mark.Respawn
		}
	}

	return cascade, []Event{{
		Kind:   EventDied,
		Entity: d.Target,
		Data:   data,
	}}
}

func (p *Processor) applyProjectileFire(w *ecs.World, f ProjectileFire) ([]Outcome, []Event) {
	e := w.Spawn(f.Origin, ecs.Velocity{}, w.Faction(f.Owner), ecs.CombatStats{}, ecs.Attack{})
	w.SetProjectile(e, &ecs.Projectile{
		Origin:       f.Origin,
		TargetEntity: f.TargetEntity,
		TargetPoint:  f.TargetPoint,
		Homing:       f.Homing,
		OnTargetLost: f.OnTargetLost,
		Speed:        f.Speed,
		Payload:      f.Payload,
		LastKnown:    f.TargetPoint,
	})
	return nil, []Event{{Kind: EventSpawned, Entity: e, Data: map[string]any{"kind": "projectile"}}}
}

// applyCreepStop zeroes the target's velocity and, for a positive
// duration, pins it there with a "stopped" modifier the creep system
// honors until the buff system ages it out. Without the modifier the stop
// would last one tick at most, since the creep re-derives its velocity
// from its path every tick.
func (p *Processor) applyCreepStop(w *ecs.World, c CreepStop) ([]Outcome, []Event) {
	if !w.Alive(c.Target) {
		return nil, nil
	}
	w.SetVelocity(c.Target, ecs.Velocity{})
	if c.Duration > 0 {
		existing := w.Modifiers(c.Target)
		kept := make([]ecs.Modifier, 0, len(existing)+1)
		for _, m := range existing {
			if m.Attribute != "stopped" {
				kept = append(kept, m)
			}
		}
		kept = append(kept, ecs.Modifier{Attribute: "stopped", Delta: 1, Remaining: c.Duration})
		w.SetModifiers(c.Target, kept)
	}
	return nil, nil
}

func (p *Processor) applyMove(w *ecs.World, m Move) ([]Outcome, []Event) {
	if !w.Alive(m.Target) {
		return nil, nil
	}
	w.SetPosition(m.Target, m.NewPosition)
	return nil, []Event{{
		Kind:   EventMoved,
		Entity: m.Target,
		Data:   map[string]any{"position": m.NewPosition},
	}}
}

// applyAttributeModifier replaces any existing modifier on a.Target for
// a.Attribute with the new one: a toggle skill re-casts with the same
// attribute name to flip itself off, so "replace" (not "stack") is the
// right semantics for the one bonus/penalty pair a toggle ever holds.
// a.Delta == 0 clears the attribute entirely (the toggle-off case).
func (p *Processor) applyAttributeModifier(w *ecs.World, a AttributeModifier) ([]Outcome, []Event) {
	if !w.Alive(a.Target) {
		return nil, nil
	}
	existing := w.Modifiers(a.Target)
	kept := make([]ecs.Modifier, 0, len(existing)+1)
	for _, m := range existing {
		if m.Attribute != a.Attribute {
			kept = append(kept, m)
		}
	}
	if a.Delta != 0 {
		kept = append(kept, ecs.Modifier{
			Attribute: a.Attribute,
			Delta:     a.Delta,
			Remaining: a.Duration,
			Permanent: a.Duration == 0,
		})
	}
	w.SetModifiers(a.Target, kept)
	return nil, nil
}
