package skill

import (
	"time"

	"mobacore/internal/ecs"
)

// Engine drives the skill system's per-tick flow: cooldown decrement,
// request validation, and effect generation. It holds no component data
// itself (that lives in ecs.World's Skill/AbilityBook maps), only the
// read-only registry and the per-ability effect generators.
type Engine struct {
	registry   *Registry
	generators map[string]Generator
}

func NewEngine(registry *Registry, generators map[string]Generator) *Engine {
	return &Engine{registry: registry, generators: generators}
}

// DecrementCooldowns drops every Skill.CooldownResidue by ΔT, clamped at 0
// (a residue is never negative).
func (e *Engine) DecrementCooldowns(w *ecs.World, dt float64) {
	dtDur := time.Duration(dt * float64(time.Second))
	for _, owner := range w.AllSkills() {
		s, ok := w.Skill(owner)
		if !ok {
			continue
		}
		s.CooldownResidue -= dtDur
		if s.CooldownResidue < 0 {
			s.CooldownResidue = 0
		}
		w.SetSkill(owner, s)
	}
}

// Validate checks a cast request. It never mutates state; on success the
// caller (systems.Skill) is responsible for deducting mp, resetting
// cooldown, and invoking the generator, keeping validation and
// mutation separate the way every other system in this codebase keeps
// read-checks separate from writes.
func (e *Engine) Validate(w *ecs.World, req Request) (Ability, LevelConfig, *ecs.Skill, RejectionReason, bool) {
	book, ok := w.AbilityBook(req.Caster)
	if !ok {
		return Ability{}, LevelConfig{}, nil, RejectNotLearned, false
	}
	abilityID, ok := book.Slots[req.Slot]
	if !ok {
		return Ability{}, LevelConfig{}, nil, RejectNotLearned, false
	}
	ability, ok := e.registry.Get(abilityID)
	if !ok {
		return Ability{}, LevelConfig{}, nil, RejectUnknownAbility, false
	}

	var skillState *ecs.Skill
	for _, se := range w.Skills(req.Caster) {
		s, _ := w.Skill(se)
		if s.AbilityID == abilityID {
			skillState = s
			break
		}
	}
	if skillState == nil || skillState.Level < 1 {
		return ability, LevelConfig{}, nil, RejectNotLearned, false
	}

	level, ok := ability.LevelConfig(skillState.Level)
	if !ok {
		return ability, LevelConfig{}, skillState, RejectNotLearned, false
	}

	if skillState.CooldownResidue > 0 {
		return ability, level, skillState, RejectOnCooldown, false
	}

	stats := w.CombatStats(req.Caster)
	if stats.MP < level.Cost {
		return ability, level, skillState, RejectInsufficientMP, false
	}

	if !targetKindMatches(ability.TargetKind, req.Target) {
		return ability, level, skillState, RejectWrongTargetKind, false
	}

	if ability.TargetKind == TargetUnit || ability.TargetKind == TargetPoint {
		casterPos := w.Position(req.Caster)
		var tx, ty float64
		if req.Target.HasEntity && w.Alive(req.Target.Entity) {
			p := w.Position(req.Target.Entity)
			tx, ty = p.X, p.Y
		} else if req.Target.HasPoint {
			tx, ty = req.Target.Point.X, req.Target.Point.Y
		}
		dx := tx - casterPos.X
		dy := ty - casterPos.Y
		dist := dx*dx + dy*dy
		if dist > level.Range*level.Range {
			return ability, level, skillState, RejectOutOfRange, false
		}
	}

	return ability, level, skillState, 0, true
}

func targetKindMatches(kind TargetKind, t Target) bool {
	switch kind {
	case NoTarget, TargetPassive:
		return true
	case TargetUnit:
		return t.HasEntity
	case TargetPoint:
		return t.HasPoint
	case TargetDirection:
		return t.HasDir
	default:
		return false
	}
}

// Commit executes a validated cast: deduct mp, reset cooldown, flip
// toggles, and invoke the ability's effect-generator.
func (e *Engine) Commit(w *ecs.World, req Request, ability Ability, level LevelConfig, skillState *ecs.Skill) []AbilityEffect {
	stats := w.CombatStats(req.Caster)
	stats.MP -= level.Cost
	w.SetCombatStats(req.Caster, stats)

	skillState.CooldownResidue = time.Duration(level.CooldownSeconds * float64(time.Second))

	if ability.Behavior == Toggle {
		if skillState.Toggle == ecs.ToggleOn {
			skillState.Toggle = ecs.ToggleOff
		} else {
			skillState.Toggle = ecs.ToggleOn
		}
	}

	gen := e.generators[ability.ID]
	if gen == nil {
		return nil
	}
	return gen(ability, skillState.Level, req, skillState)
}
