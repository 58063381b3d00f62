package assets

import (
	"fmt"

	"mobacore/internal/skill"
)

// validate checks that every referenced name resolves and that numeric
// ranges are sane across the ability and entity file
// families (map-internal references are checked inline by loadMap, and
// wave-to-archetype references by buildWaves once both files are parsed).
func validate(abilities *skill.Registry, archetypes *Archetypes) error {
	for id, r := range archetypes.records {
		for slot, abilityID := range r.AbilityBook {
			if _, ok := abilities.Get(abilityID); !ok {
				return fmt.Errorf("assets: entity %q ability_book slot %q references unknown ability %q", id, slot, abilityID)
			}
		}
		for _, abilityID := range r.StartingSkills {
			if _, ok := abilities.Get(abilityID); !ok {
				return fmt.Errorf("assets: entity %q starting_skills references unknown ability %q", id, abilityID)
			}
			if !boundToSlot(r.AbilityBook, abilityID) {
				return fmt.Errorf("assets: entity %q starts with ability %q but it is not bound to any ability_book slot", id, abilityID)
			}
		}

		if r.Role == "" {
			continue // synthetic bounty-only record (e.g. "hero_kill")
		}
		if r.MaxHP <= 0 {
			return fmt.Errorf("assets: entity %q has non-positive max_hp", id)
		}
		if r.AttackRange > 0 && r.AttackCadencePerSecond <= 0 {
			return fmt.Errorf("assets: entity %q has attack_range but no positive attack_cadence_per_second", id)
		}
		if r.Armor < 0 || r.MagicResist < 0 {
			return fmt.Errorf("assets: entity %q has a negative resistance stat", id)
		}
		if r.Role == "creep" && r.MoveSpeed <= 0 {
			return fmt.Errorf("assets: creep archetype %q has non-positive move_speed", id)
		}
	}
	return nil
}

func boundToSlot(book map[string]string, abilityID string) bool {
	for _, id := range book {
		if id == abilityID {
			return true
		}
	}
	return false
}
