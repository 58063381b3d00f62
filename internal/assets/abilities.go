package assets

import (
	"encoding/json"
	"fmt"
	"os"

	"mobacore/internal/skill"
)

// abilityRecord mirrors the on-disk ability configuration schema:
// id, behavior, target_kind, max_level, per_level[].
type abilityRecord struct {
	ID         string              `json:"id"`
	Behavior   string              `json:"behavior"`    // Active | Passive | Toggle
	TargetKind string              `json:"target_kind"` // NoTarget | TargetUnit | TargetPoint | TargetDirection | Passive
	MaxLevel   int                 `json:"max_level"`
	PerLevel   []levelConfigRecord `json:"per_level"`
}

type levelConfigRecord struct {
	Cooldown   float64            `json:"cooldown"`
	Cost       float64            `json:"cost"`
	Range      float64            `json:"range"`
	Damage     *float64           `json:"damage,omitempty"`
	Duration   *float64           `json:"duration,omitempty"`
	Properties map[string]float64 `json:"properties,omitempty"`
}

func loadAbilities(path string) (*skill.Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assets: reading ability file %s: %w", path, err)
	}

	var records []abilityRecord
	if err := json.Unmarshal(stripJSONComments(raw), &records); err != nil {
		return nil, fmt.Errorf("assets: parsing ability file %s: %w", path, err)
	}

	abilities := make([]skill.Ability, 0, len(records))
	for _, r := range records {
		behavior, ok := behaviorFromString(r.Behavior)
		if !ok {
			return nil, fmt.Errorf("assets: ability %q has unknown behavior %q", r.ID, r.Behavior)
		}
		kind, ok := targetKindFromString(r.TargetKind)
		if !ok {
			return nil, fmt.Errorf("assets: ability %q has unknown target_kind %q", r.ID, r.TargetKind)
		}

		levels := make([]skill.LevelConfig, 0, len(r.PerLevel))
		for i, lvl := range r.PerLevel {
			lc := skill.LevelConfig{
				CooldownSeconds: lvl.Cooldown,
				Cost:            lvl.Cost,
				Range:           lvl.Range,
				Properties:      lvl.Properties,
			}
			if lvl.Damage != nil {
				lc.HasDamage = true
				lc.Damage = *lvl.Damage
			}
			if lvl.Duration != nil {
				lc.HasDuration = true
				lc.DurationSeconds = *lvl.Duration
			}
			if lc.CooldownSeconds < 0 || lc.Cost < 0 || lc.Range < 0 {
				return nil, fmt.Errorf("assets: ability %q level %d has a negative tunable", r.ID, i+1)
			}
			levels = append(levels, lc)
		}

		abilities = append(abilities, skill.Ability{
			ID:         r.ID,
			Behavior:   behavior,
			TargetKind: kind,
			MaxLevel:   r.MaxLevel,
			PerLevel:   levels,
		})
	}

	return skill.NewRegistry(abilities)
}

func behaviorFromString(s string) (skill.Behavior, bool) {
	switch s {
	case "Active":
		return skill.Active, true
	case "Passive":
		return skill.Passive, true
	case "Toggle":
		return skill.Toggle, true
	default:
		return 0, false
	}
}

func targetKindFromString(s string) (skill.TargetKind, bool) {
	switch s {
	case "NoTarget":
		return skill.NoTarget, true
	case "TargetUnit":
		return skill.TargetUnit, true
	case "TargetPoint":
		return skill.TargetPoint, true
	case "TargetDirection":
		return skill.TargetDirection, true
	case "Passive":
		return skill.TargetPassive, true
	default:
		return 0, false
	}
}
