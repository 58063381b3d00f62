package ecs

import "testing"

func TestSpawnDespawnLifecycle(t *testing.T) {
	w := NewWorld(4)
	e := w.Spawn(Position{X: 1, Y: 2}, Velocity{}, Faction{ID: FactionRadiant}, CombatStats{HP: 10, MaxHP: 10}, Attack{})
	if !w.Alive(e) {
		t.Fatalf("expected newly spawned entity to be alive")
	}
	if got := w.Position(e); got.X != 1 || got.Y != 2 {
		t.Fatalf("position not stored: %+v", got)
	}

	w.Despawn(e)
	if w.Alive(e) {
		t.Fatalf("expected despawned entity to report not alive")
	}

	// Lifecycle rule: an entity despawned this tick never
	// reappears at its old handle, and any reused slot strictly advances
	// the generation counter.
	e2 := w.Spawn(Position{}, Velocity{}, Faction{}, CombatStats{MaxHP: 1}, Attack{})
	if e2.Index != e.Index {
		t.Fatalf("expected free-list reuse of index %d, got %d", e.Index, e2.Index)
	}
	if e2.Generation <= e.Generation {
		t.Fatalf("expected generation to strictly increase on reuse: old=%d new=%d", e.Generation, e2.Generation)
	}
	if w.Alive(e) {
		t.Fatalf("stale handle must not resolve to the new occupant of its slot")
	}
}

func TestSetCombatStatsClampsHP(t *testing.T) {
	w := NewWorld(1)
	e := w.Spawn(Position{}, Velocity{}, Faction{}, CombatStats{HP: 50, MaxHP: 100}, Attack{})

	w.SetCombatStats(e, CombatStats{HP: -5, MaxHP: 100})
	if got := w.CombatStats(e).HP; got != 0 {
		t.Fatalf("expected HP clamped to 0, got %v", got)
	}

	w.SetCombatStats(e, CombatStats{HP: 500, MaxHP: 100})
	if got := w.CombatStats(e).HP; got != 100 {
		t.Fatalf("expected HP clamped to MaxHP=100, got %v", got)
	}
}

func TestEntityAtResolvesOnlyLiveSlots(t *testing.T) {
	w := NewWorld(1)
	e := w.Spawn(Position{}, Velocity{}, Faction{}, CombatStats{MaxHP: 1}, Attack{})
	if got := w.EntityAt(e.Index); got != e {
		t.Fatalf("expected EntityAt to reconstruct live handle, got %+v want %+v", got, e)
	}
	w.Despawn(e)
	if got := w.EntityAt(e.Index); !got.IsNil() {
		t.Fatalf("expected EntityAt on a despawned slot to return Nil, got %+v", got)
	}
}

func TestModifiersAddAndSum(t *testing.T) {
	w := NewWorld(1)
	e := w.Spawn(Position{}, Velocity{}, Faction{}, CombatStats{MaxHP: 1}, Attack{})
	w.AddModifier(e, Modifier{Attribute: "range", Delta: 100, Permanent: true})
	w.AddModifier(e, Modifier{Attribute: "range", Delta: 50, Permanent: true})

	mods := w.Modifiers(e)
	if len(mods) != 2 {
		t.Fatalf("expected 2 modifiers, got %d", len(mods))
	}
	sum := 0.0
	for _, m := range mods {
		if m.Attribute == "range" {
			sum += m.Delta
		}
	}
	if sum != 150 {
		t.Fatalf("expected range modifiers to sum to 150, got %v", sum)
	}

	found := false
	for _, carrier := range w.EntitiesWithModifiers() {
		if carrier == e {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected EntitiesWithModifiers to list %+v", e)
	}
}

func TestSkillsFiltersByOwner(t *testing.T) {
	w := NewWorld(2)
	owner := w.Spawn(Position{}, Velocity{}, Faction{}, CombatStats{MaxHP: 1}, Attack{})
	other := w.Spawn(Position{}, Velocity{}, Faction{}, CombatStats{MaxHP: 1}, Attack{})

	s1 := w.Spawn(Position{}, Velocity{}, Faction{}, CombatStats{}, Attack{})
	w.SetSkill(s1, &Skill{AbilityID: "a", Owner: owner})
	s2 := w.Spawn(Position{}, Velocity{}, Faction{}, CombatStats{}, Attack{})
	w.SetSkill(s2, &Skill{AbilityID: "b", Owner: other})

	owned := w.Skills(owner)
	if len(owned) != 1 || owned[0] != s1 {
		t.Fatalf("expected exactly skill entity %+v for owner, got %+v", s1, owned)
	}
}
