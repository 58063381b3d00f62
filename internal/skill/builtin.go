package skill

import "mobacore/internal/ecs"

// BuiltinGenerators returns the concrete effect-generators for the few
// abilities this codebase ships as worked examples of the data-driven
// skill engine, rather than leaving every ability's behavior to be
// invented per deployment. Asset loading (internal/assets) merges these
// into the generator map handed to NewEngine; any Active or Toggle ability
// id without an entry here is data-only and produces no effects on cast,
// which is a config error in practice (an ability with no way to ever have
// an effect is never useful) even though the loader does not refuse it.
// Passive abilities are the one exception: they never go through
// Commit/generator dispatch at all (systems read their tunables directly
// via skill.ResolvePassive for proc checks), so they need no entry here.
func BuiltinGenerators() map[string]Generator {
	return map[string]Generator{
		"sniper_mode": sniperMode,
	}
}

// sniperMode is a Toggle, NoTarget ability: range bonus and a move-speed
// multiplier while active, both undone on the matching toggle-off cast.
// state.Toggle already reflects the flip Commit performed, so the
// generator only has to read which way it landed.
func sniperMode(ability Ability, level int, req Request, state *ecs.Skill) []AbilityEffect {
	lvl, ok := ability.LevelConfig(level)
	if !ok {
		return nil
	}
	rangeBonus := lvl.Properties["range_bonus"]
	moveMultiplier := lvl.Properties["move_multiplier"]
	if moveMultiplier == 0 {
		moveMultiplier = 1
	}

	if state.Toggle == ecs.ToggleOff {
		// Toggling off: clear both modifiers (Delta==0 is the processor's
		// clear-attribute convention).
		return []AbilityEffect{
			EffectStatusModifier{Target: req.Caster, Attribute: "range"},
			EffectStatusModifier{Target: req.Caster, Attribute: "move_speed_multiplier"},
		}
	}
	return []AbilityEffect{
		EffectStatusModifier{Target: req.Caster, Attribute: "range", Delta: rangeBonus},
		EffectStatusModifier{Target: req.Caster, Attribute: "move_speed_multiplier", Delta: moveMultiplier},
	}
}
