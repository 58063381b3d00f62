package skill

import (
	"testing"
	"time"

	"mobacore/internal/ecs"
)

func newSniperRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry([]Ability{
		{
			ID:         "sniper_mode",
			Behavior:   Toggle,
			TargetKind: NoTarget,
			MaxLevel:   1,
			PerLevel: []LevelConfig{
				{CooldownSeconds: 0.5, Cost: 0, Range: 0, Properties: map[string]float64{
					"range_bonus": 350, "move_multiplier": 0.3,
				}},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func newCasterWorld(t *testing.T, abilityID string, level int) (*ecs.World, ecs.Entity, ecs.Entity) {
	t.Helper()
	w := ecs.NewWorld(2)
	caster := w.Spawn(ecs.Position{}, ecs.Velocity{}, ecs.Faction{}, ecs.CombatStats{HP: 100, MaxHP: 100, MP: 100, MaxMP: 100}, ecs.Attack{Range: 600, CadencePerSecond: 1})
	w.SetAbilityBook(caster, &ecs.AbilityBook{Slots: map[string]string{"Q": abilityID}})
	slot := w.Spawn(ecs.Position{}, ecs.Velocity{}, ecs.Faction{}, ecs.CombatStats{}, ecs.Attack{})
	w.SetSkill(slot, &ecs.Skill{AbilityID: abilityID, Level: level, Owner: caster})
	return w, caster, slot
}

// TestToggleSkillFlipsOnThenOff: casting a toggle
// ability sets Toggle=On and emits the range/move-speed status modifiers;
// re-casting flips it back off and clears them.
func TestToggleSkillFlipsOnThenOff(t *testing.T) {
	reg := newSniperRegistry(t)
	engine := NewEngine(reg, BuiltinGenerators())
	w, caster, _ := newCasterWorld(t, "sniper_mode", 1)

	req := Request{Caster: caster, Slot: "Q"}
	ability, level, state, reason, ok := engine.Validate(w, req)
	if !ok {
		t.Fatalf("expected first cast to validate, got rejection %v", reason)
	}
	effects := engine.Commit(w, req, ability, level, state)
	if state.Toggle != ecs.ToggleOn {
		t.Fatalf("expected Commit to flip Toggle on")
	}
	if len(effects) != 2 {
		t.Fatalf("expected 2 status-modifier effects (range + move speed) on toggle-on, got %d", len(effects))
	}
	for _, eff := range effects {
		sm, ok := eff.(EffectStatusModifier)
		if !ok {
			t.Fatalf("expected EffectStatusModifier, got %T", eff)
		}
		switch sm.Attribute {
		case "range":
			if sm.Delta != 350 {
				t.Fatalf("expected range bonus 350, got %v", sm.Delta)
			}
		case "move_speed_multiplier":
			if sm.Delta != 0.3 {
				t.Fatalf("expected move multiplier 0.3, got %v", sm.Delta)
			}
		default:
			t.Fatalf("unexpected attribute %q", sm.Attribute)
		}
	}

	// Still on cooldown: re-casting immediately must be rejected.
	_, _, _, reason, ok = engine.Validate(w, req)
	if ok {
		t.Fatalf("expected re-cast on cooldown to be rejected")
	}
	if reason != RejectOnCooldown {
		t.Fatalf("expected RejectOnCooldown, got %v", reason)
	}

	// Let the cooldown fully elapse, then flip off.
	engine.DecrementCooldowns(w, 1.0)
	ability, level, state, reason, ok = engine.Validate(w, req)
	if !ok {
		t.Fatalf("expected second cast to validate after cooldown, got rejection %v", reason)
	}
	effects = engine.Commit(w, req, ability, level, state)
	if state.Toggle != ecs.ToggleOff {
		t.Fatalf("expected Commit to flip Toggle back off")
	}
	for _, eff := range effects {
		sm := eff.(EffectStatusModifier)
		if sm.Delta != 0 {
			t.Fatalf("expected toggle-off effects to carry Delta==0 (clear), got %v for %s", sm.Delta, sm.Attribute)
		}
	}
}

func TestCooldownResidueNeverNegative(t *testing.T) {
	reg := newSniperRegistry(t)
	engine := NewEngine(reg, BuiltinGenerators())
	w, _, slot := newCasterWorld(t, "sniper_mode", 1)

	w.SetSkill(slot, &ecs.Skill{AbilityID: "sniper_mode", Level: 1, Owner: ecs.Entity{}, CooldownResidue: 50 * time.Millisecond})
	engine.DecrementCooldowns(w, 1.0) // far more than the residue
	s, _ := w.Skill(slot)
	if s.CooldownResidue < 0 {
		t.Fatalf("expected cooldown residue clamped at 0, got %v", s.CooldownResidue)
	}
	if s.CooldownResidue != 0 {
		t.Fatalf("expected cooldown residue to reach exactly 0, got %v", s.CooldownResidue)
	}
}

func TestValidateRejectsInsufficientMP(t *testing.T) {
	reg, err := NewRegistry([]Ability{
		{ID: "big_nuke", Behavior: Active, TargetKind: NoTarget, MaxLevel: 1, PerLevel: []LevelConfig{{CooldownSeconds: 1, Cost: 9999}}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	engine := NewEngine(reg, nil)
	w, caster, _ := newCasterWorld(t, "big_nuke", 1)

	_, _, _, reason, ok := engine.Validate(w, Request{Caster: caster, Slot: "Q"})
	if ok {
		t.Fatalf("expected insufficient-mp cast to be rejected")
	}
	if reason != RejectInsufficientMP {
		t.Fatalf("expected RejectInsufficientMP, got %v", reason)
	}
}

// TestValidateRangeBoundaryInclusive: a cast at range exactly
// equal to the ability's range must be accepted.
func TestValidateRangeBoundaryInclusive(t *testing.T) {
	reg, err := NewRegistry([]Ability{
		{ID: "snipe", Behavior: Active, TargetKind: TargetPoint, MaxLevel: 1, PerLevel: []LevelConfig{{CooldownSeconds: 1, Range: 500}}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	engine := NewEngine(reg, nil)
	w, caster, _ := newCasterWorld(t, "snipe", 1)

	req := Request{Caster: caster, Slot: "Q", Target: Target{HasPoint: true, Point: ecs.Position{X: 500, Y: 0}}}
	_, _, _, reason, ok := engine.Validate(w, req)
	if !ok {
		t.Fatalf("expected a cast at exactly range=500 to be accepted, got rejection %v", reason)
	}
}

func TestValidateRejectsJustPastRange(t *testing.T) {
	reg, err := NewRegistry([]Ability{
		{ID: "snipe", Behavior: Active, TargetKind: TargetPoint, MaxLevel: 1, PerLevel: []LevelConfig{{CooldownSeconds: 1, Range: 500}}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	engine := NewEngine(reg, nil)
	w, caster, _ := newCasterWorld(t, "snipe", 1)

	req := Request{Caster: caster, Slot: "Q", Target: Target{HasPoint: true, Point: ecs.Position{X: 500.5, Y: 0}}}
	_, _, _, reason, ok := engine.Validate(w, req)
	if ok {
		t.Fatalf("expected a cast past range to be rejected")
	}
	if reason != RejectOutOfRange {
		t.Fatalf("expected RejectOutOfRange, got %v", reason)
	}
}

func TestRegistryRejectsMismatchedPerLevelCount(t *testing.T) {
	_, err := NewRegistry([]Ability{
		{ID: "broken", MaxLevel: 3, PerLevel: []LevelConfig{{}}},
	})
	if err == nil {
		t.Fatalf("expected NewRegistry to reject max_level/per_level length mismatch")
	}
}
