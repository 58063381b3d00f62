package ecs

import "sync"

// World owns every component array/map. Component data is reached through
// the typed accessors below; callers obey the Read/Write discipline the
// Scheduler enforces at system-registration time. World itself does
// not re-check per-access; that would defeat the purpose of a static,
// startup-time guarantee.
type World struct {
	allocMu sync.Mutex

	generations []uint32
	aliveFlags  []bool
	freeList    []uint32

	positions  []Position
	velocities []Velocity
	factions   []Faction
	combat     []CombatStats
	attacks    []Attack

	heroes       map[Entity]*Hero
	creeps       map[Entity]*Creep
	towers       map[Entity]*Tower
	projectiles  map[Entity]*Projectile
	skills       map[Entity]*Skill
	abilityBooks map[Entity]*AbilityBook
	visions      map[Entity]*Vision
	deathMarks   map[Entity]*DeathMark
	modifiers    map[Entity][]Modifier
}

// NewWorld returns an empty world preallocated for capacity entities.
func NewWorld(capacity int) *World {
	return &World{
		generations: make([]uint32, 0, capacity),
		aliveFlags:  make([]bool, 0, capacity),

		positions:  make([]Position, 0, capacity),
		velocities: make([]Velocity, 0, capacity),
		factions:   make([]Faction, 0, capacity),
		combat:     make([]CombatStats, 0, capacity),
		attacks:    make([]Attack, 0, capacity),

		heroes:       make(map[Entity]*Hero),
		creeps:       make(map[Entity]*Creep),
		towers:       make(map[Entity]*Tower),
		projectiles:  make(map[Entity]*Projectile),
		skills:       make(map[Entity]*Skill),
		abilityBooks: make(map[Entity]*AbilityBook),
		visions:      make(map[Entity]*Vision),
		deathMarks:   make(map[Entity]*DeathMark),
		modifiers:    make(map[Entity][]Modifier),
	}
}

// Alive reports whether e still refers to a live entity (matching
// generation, not despawned).
func (w *World) Alive(e Entity) bool {
	if e.IsNil() || int(e.Index) >= len(w.aliveFlags) {
		return false
	}
	return w.aliveFlags[e.Index] && w.generations[e.Index] == e.Generation
}

// Spawn allocates a new entity with the given initial dense components.
// Entity creation belongs to the outcome processor; nothing else may call
// this.
func (w *World) Spawn(pos Position, vel Velocity, fac Faction, stats CombatStats, atk Attack) Entity {
	w.allocMu.Lock()
	defer w.allocMu.Unlock()

	var idx uint32
	if n := len(w.freeList); n > 0 {
		idx = w.freeList[n-1]
		w.freeList = w.freeList[:n-1]
	} else {
		idx = uint32(len(w.aliveFlags))
		// Generations start at 1 so the zero-value handle (Nil) can never
		// collide with a live entity, not even the very first slot.
		w.generations = append(w.generations, 1)
		w.aliveFlags = append(w.aliveFlags, false)
		w.positions = append(w.positions, Position{})
		w.velocities = append(w.velocities, Velocity{})
		w.factions = append(w.factions, Faction{})
		w.combat = append(w.combat, CombatStats{})
		w.attacks = append(w.attacks, Attack{})
	}

	w.aliveFlags[idx] = true
	gen := w.generations[idx]
	e := Entity{Index: idx, Generation: gen}

	w.positions[idx] = pos
	w.velocities[idx] = vel
	w.factions[idx] = fac
	w.combat[idx] = stats
	w.attacks[idx] = atk

	return e
}

// Despawn removes all components for e and bumps its generation so any
// stale handle fails Alive on any subsequent reuse of the slot. Entity
// destruction belongs to the outcome processor; nothing else may call this.
func (w *World) Despawn(e Entity) {
	w.allocMu.Lock()
	defer w.allocMu.Unlock()

	if !w.Alive(e) {
		return
	}

	w.aliveFlags[e.Index] = false
	w.generations[e.Index]++
	w.positions[e.Index] = Position{}
	w.velocities[e.Index] = Velocity{}
	w.factions[e.Index] = Faction{}
	w.combat[e.Index] = CombatStats{}
	w.attacks[e.Index] = Attack{}

	delete(w.heroes, e)
	delete(w.creeps, e)
	delete(w.towers, e)
	delete(w.projectiles, e)
	delete(w.skills, e)
	delete(w.abilityBooks, e)
	delete(w.visions, e)
	delete(w.deathMarks, e)
	delete(w.modifiers, e)

	w.freeList = append(w.freeList, e.Index)
}

// Each calls fn for every currently-alive entity index. Systems use this to
// iterate dense components without allocating a slice of handles.
func (w *World) Each(fn func(e Entity)) {
	for i, alive := range w.aliveFlags {
		if alive {
			fn(Entity{Index: uint32(i), Generation: w.generations[i]})
		}
	}
}

// EntityAt reconstructs the full handle (with current generation) for a
// live entity from its bare index, as produced by the spatial index's
// structure-of-arrays entries. Returns Nil if the slot is no longer alive.
func (w *World) EntityAt(index uint32) Entity {
	if int(index) >= len(w.aliveFlags) || !w.aliveFlags[index] {
		return Nil
	}
	return Entity{Index: index, Generation: w.generations[index]}
}

// --- Dense accessors ---

func (w *World) Position(e Entity) Position    { return w.positions[e.Index] }
func (w *World) SetPosition(e Entity, p Position) { w.positions[e.Index] = p }

func (w *World) Velocity(e Entity) Velocity       { return w.velocities[e.Index] }
func (w *World) SetVelocity(e Entity, v Velocity) { w.velocities[e.Index] = v }

func (w *World) Faction(e Entity) Faction       { return w.factions[e.Index] }
func (w *World) SetFaction(e Entity, f Faction) { w.factions[e.Index] = f }

func (w *World) CombatStats(e Entity) CombatStats { return w.combat[e.Index] }
func (w *World) SetCombatStats(e Entity, c CombatStats) {
	if c.HP < 0 {
		c.HP = 0
	}
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	w.combat[e.Index] = c
}

func (w *World) Attack(e Entity) Attack       { return w.attacks[e.Index] }
func (w *World) SetAttack(e Entity, a Attack) { w.attacks[e.Index] = a }

// --- Sparse accessors ---

func (w *World) Hero(e Entity) (*Hero, bool)             { h, ok := w.heroes[e]; return h, ok }
func (w *World) SetHero(e Entity, h *Hero)               { w.heroes[e] = h }
func (w *World) Creep(e Entity) (*Creep, bool)            { c, ok := w.creeps[e]; return c, ok }
func (w *World) SetCreep(e Entity, c *Creep)              { w.creeps[e] = c }
func (w *World) Tower(e Entity) (*Tower, bool)            { t, ok := w.towers[e]; return t, ok }
func (w *World) SetTower(e Entity, t *Tower)              { w.towers[e] = t }
func (w *World) Projectile(e Entity) (*Projectile, bool)  { p, ok := w.projectiles[e]; return p, ok }
func (w *World) SetProjectile(e Entity, p *Projectile)    { w.projectiles[e] = p }
func (w *World) Skill(e Entity) (*Skill, bool)            { s, ok := w.skills[e]; return s, ok }
func (w *World) SetSkill(e Entity, s *Skill)              { w.skills[e] = s }
func (w *World) AbilityBook(e Entity) (*AbilityBook, bool) { b, ok := w.abilityBooks[e]; return b, ok }
func (w *World) SetAbilityBook(e Entity, b *AbilityBook)   { w.abilityBooks[e] = b }
func (w *World) Vision(e Entity) (*Vision, bool)          { v, ok := w.visions[e]; return v, ok }
func (w *World) SetVision(e Entity, v *Vision)            { w.visions[e] = v }
func (w *World) DeathMark(e Entity) (*DeathMark, bool)    { d, ok := w.deathMarks[e]; return d, ok }
func (w *World) SetDeathMark(e Entity, d *DeathMark)      { w.deathMarks[e] = d }
func (w *World) Modifiers(e Entity) []Modifier            { return w.modifiers[e] }
func (w *World) SetModifiers(e Entity, m []Modifier)      { w.modifiers[e] = m }
func (w *World) AddModifier(e Entity, m Modifier)         { w.modifiers[e] = append(w.modifiers[e], m) }

// EntitiesWithModifiers returns every live entity currently carrying at
// least one Modifier, for the buff system's per-tick sweep.
func (w *World) EntitiesWithModifiers() []Entity {
	out := make([]Entity, 0, len(w.modifiers))
	for e := range w.modifiers {
		if w.Alive(e) {
			out = append(out, e)
		}
	}
	return out
}

// Projectiles returns the live entities carrying a Projectile component.
// Used by systems that need to range over one sparse kind only.
func (w *World) Projectiles() []Entity {
	out := make([]Entity, 0, len(w.projectiles))
	for e := range w.projectiles {
		if w.Alive(e) {
			out = append(out, e)
		}
	}
	return out
}

// AllSkills returns every live entity carrying a Skill component,
// regardless of owner. Used by the skill system's per-tick cooldown sweep.
func (w *World) AllSkills() []Entity {
	out := make([]Entity, 0, len(w.skills))
	for e := range w.skills {
		if w.Alive(e) {
			out = append(out, e)
		}
	}
	return out
}

func (w *World) Skills(owner Entity) []Entity {
	out := make([]Entity, 0, 4)
	for e, s := range w.skills {
		if s.Owner == owner && w.Alive(e) {
			out = append(out, e)
		}
	}
	return out
}
