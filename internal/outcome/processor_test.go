package outcome

import (
	"testing"

	"mobacore/internal/ecs"
)

// fakeLookup is a minimal outcome.ArchetypeLookup stand-in for tests: one
// creep archetype with a bounty, one hero archetype with a respawn policy.
type fakeLookup struct{}

func (fakeLookup) SpawnComponents(id string) (ecs.Velocity, ecs.CombatStats, ecs.Attack, bool) {
	switch id {
	case "creep_basic":
		return ecs.Velocity{}, ecs.CombatStats{HP: 6, MaxHP: 6}, ecs.Attack{Damage: 1, Range: 50, CadencePerSecond: 1}, true
	case "hero_basic":
		return ecs.Velocity{}, ecs.CombatStats{HP: 100, MaxHP: 100}, ecs.Attack{Damage: 10, Range: 100, CadencePerSecond: 1}, true
	}
	return ecs.Velocity{}, ecs.CombatStats{}, ecs.Attack{}, false
}

func (fakeLookup) Role(id string) ArchetypeRole {
	switch id {
	case "creep_basic":
		return RoleCreep
	case "hero_basic":
		return RoleHero
	}
	return RoleNone
}

func (fakeLookup) HeroComponents(id string) ecs.Hero { return ecs.Hero{Level: 1, ArchetypeID: id} }
func (fakeLookup) CreepComponents(id string) ecs.Creep {
	return ecs.Creep{ArchetypeID: id, Bounty: 5}
}
func (fakeLookup) TowerComponents(id string) ecs.Tower  { return ecs.Tower{ArchetypeID: id} }
func (fakeLookup) Vision(id string) (ecs.Vision, bool)  { return ecs.Vision{}, false }
func (fakeLookup) AbilityBook(id string) (ecs.AbilityBook, bool) {
	return ecs.AbilityBook{}, false
}
func (fakeLookup) StartingSkills(id string) []string { return nil }
func (fakeLookup) RespawnPolicy(id string) (ecs.RespawnPolicy, bool) {
	if id == "hero_basic" {
		return ecs.RespawnPolicy{DelaySeconds: 10, HPFraction: 1}, true
	}
	return ecs.RespawnPolicy{}, false
}
func (fakeLookup) Bounty(id string) int {
	if id == "hero_kill" {
		return 200
	}
	return 0
}

func newTestWorldAndProcessor() (*ecs.World, *Processor) {
	return ecs.NewWorld(8), NewProcessor(fakeLookup{})
}

// TestDamageDeathDespawnCascade exercises the full cascade:
// Damage -> Death -> Despawn + GainXP, in one Drain call.
func TestDamageDeathDespawnCascade(t *testing.T) {
	w, p := newTestWorldAndProcessor()

	killerSpawned := p.Drain(w, []Outcome{Spawn{ArchetypeID: "hero_basic", Faction: ecs.Faction{ID: ecs.FactionRadiant}}})
	killer := killerSpawned[0].Entity

	victimSpawned := p.Drain(w, []Outcome{Spawn{ArchetypeID: "creep_basic", Faction: ecs.Faction{ID: ecs.FactionDire}}})
	victim := victimSpawned[0].Entity

	events := p.Drain(w, []Outcome{Damage{Target: victim, Amount: 100, DamageType: ecs.DamagePure, Source: killer}})

	var sawDamaged, sawDied, sawDespawned bool
	for _, ev := range events {
		switch ev.Kind {
		case EventDamaged:
			sawDamaged = true
		case EventDied:
			sawDied = true
			if ev.Data["killer"] != killer {
				t.Fatalf("expected killer %+v in died event, got %+v", killer, ev.Data["killer"])
			}
		case EventDespawned:
			sawDespawned = true
		}
	}
	if !sawDamaged || !sawDied || !sawDespawned {
		t.Fatalf("expected damaged+died+despawned events, got %+v", events)
	}
	if w.Alive(victim) {
		t.Fatalf("victim must not be alive after its death cascade resolves")
	}
	hero, ok := w.Hero(killer)
	if !ok {
		t.Fatalf("killer lost its Hero component unexpectedly")
	}
	if hero.XP != 5 {
		t.Fatalf("expected killer to gain the creep's bounty (5 xp), got %d", hero.XP)
	}
}

// TestHealIdempotentAtMaxHP: healing a full-health target changes nothing
// and cascades
// nothing.
func TestHealIdempotentAtMaxHP(t *testing.T) {
	w, p := newTestWorldAndProcessor()
	spawned := p.Drain(w, []Outcome{Spawn{ArchetypeID: "hero_basic"}})
	hero := spawned[0].Entity

	before := w.CombatStats(hero)
	events := p.Drain(w, []Outcome{Heal{Target: hero, Amount: 50}})
	after := w.CombatStats(hero)

	if before.HP != after.HP {
		t.Fatalf("expected no hp change healing a full-health target: before=%v after=%v", before.HP, after.HP)
	}
	if len(events) != 0 {
		t.Fatalf("expected no cascaded event from a no-op heal, got %+v", events)
	}
}

// TestDeathRespawnPolicyAttached: a dying hero's DeathMark carries its
// archetype's respawn
// policy, never left nil for an archetype that declares one.
func TestDeathRespawnPolicyAttached(t *testing.T) {
	w, p := newTestWorldAndProcessor()
	spawned := p.Drain(w, []Outcome{Spawn{ArchetypeID: "hero_basic"}})
	hero := spawned[0].Entity

	// Call applyDeath directly (rather than Drain) so the cascaded Despawn
	// it returns is not yet processed, letting us inspect the DeathMark
	// the moment it's attached.
	_, _ = p.applyDeath(w, Death{Target: hero})
	got, ok := w.DeathMark(hero)
	if !ok {
		t.Fatalf("expected a DeathMark to be attached")
	}
	if got.Respawn == nil {
		t.Fatalf("expected hero_basic's respawn policy to be attached, got nil")
	}
	if got.Respawn.DelaySeconds != 10 {
		t.Fatalf("expected respawn delay 10s, got %v", got.Respawn.DelaySeconds)
	}
}

// TestZeroHealNoCascade: an ability that emits Heal(self, 0)
// unconditionally must resolve to exactly one processed outcome with no hp
// change and no cascade, the taxonomy's natural bottoming-out case the
// fixpoint bound exists to backstop.
func TestZeroHealNoCascade(t *testing.T) {
	w, p := newTestWorldAndProcessor()
	spawned := p.Drain(w, []Outcome{Spawn{ArchetypeID: "hero_basic"}})
	self := spawned[0].Entity

	events := p.Drain(w, []Outcome{Heal{Target: self, Amount: 0}})
	if len(events) != 0 {
		t.Fatalf("expected Heal(0) to be a pure no-op, got %+v", events)
	}
	if p.CascadeOverflows != 0 {
		t.Fatalf("expected no cascade overflow from a single bounded outcome")
	}
}

// TestDrainBoundsCascadeDepth exercises the fixpoint loop's MaxCascade
// bound: a wide batch of simultaneous Deaths resolves within the bound
// and counts no overflow; the truncation path itself is not exercised.
// Each Death cascades to at most Despawn+GainXP (depth 1), so to reach
// past MaxCascade we feed the processor a wide simultaneous kill-chain
// and confirm it resolves within the bound with zero overflow. The
// taxonomy's real depth never approaches MaxCascade, so this also
// documents why: Death's own cascade terminates in one extra round.
func TestDrainBoundsCascadeDepth(t *testing.T) {
	w, p := newTestWorldAndProcessor()
	killer := p.Drain(w, []Outcome{Spawn{ArchetypeID: "hero_basic"}})[0].Entity

	var kills []Outcome
	for i := 0; i < 50; i++ {
		victim := p.Drain(w, []Outcome{Spawn{ArchetypeID: "creep_basic"}})[0].Entity
		kills = append(kills, Death{Target: victim, Killer: killer})
	}

	events := p.Drain(w, kills)
	if p.CascadeOverflows != 0 {
		t.Fatalf("expected no overflow for a depth-1 cascade regardless of width, got %d", p.CascadeOverflows)
	}
	diedCount := 0
	for _, ev := range events {
		if ev.Kind == EventDied {
			diedCount++
		}
	}
	if diedCount != 50 {
		t.Fatalf("expected 50 died events, got %d", diedCount)
	}
}

func TestApplySpawnUnknownArchetypeDropped(t *testing.T) {
	w, p := newTestWorldAndProcessor()
	events := p.Drain(w, []Outcome{Spawn{ArchetypeID: "does_not_exist"}})
	if len(events) != 0 {
		t.Fatalf("expected an unknown archetype spawn to be dropped, got %+v", events)
	}
}

func TestAttributeModifierReplaceSemantics(t *testing.T) {
	w, p := newTestWorldAndProcessor()
	spawned := p.Drain(w, []Outcome{Spawn{ArchetypeID: "hero_basic"}})
	hero := spawned[0].Entity

	p.Drain(w, []Outcome{AttributeModifier{Target: hero, Attribute: "range", Delta: 950, Duration: 0}})
	if sum := sumModifier(w, hero, "range"); sum != 950 {
		t.Fatalf("expected range modifier 950, got %v", sum)
	}

	// Re-casting the same attribute must replace, not stack.
	p.Drain(w, []Outcome{AttributeModifier{Target: hero, Attribute: "range", Delta: 0, Duration: 0}})
	if sum := sumModifier(w, hero, "range"); sum != 0 {
		t.Fatalf("expected toggle-off (Delta==0) to clear the range modifier, got %v", sum)
	}
}

func sumModifier(w *ecs.World, e ecs.Entity, attr string) float64 {
	sum := 0.0
	for _, m := range w.Modifiers(e) {
		if m.Attribute == attr {
			sum += m.Delta
		}
	}
	return sum
}
