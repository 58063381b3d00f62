package skill

import "mobacore/internal/ecs"

// AbilityEffect is the closed effect variant set: an
// effect-generator is a total function from (ability, level, request) to a
// finite list of these, translated 1:1 to outcome.Outcome by the skill
// system (kept in package systems, not here, to avoid skill importing
// outcome and outcome importing skill).
type AbilityEffect interface {
	isAbilityEffect()
}

type EffectDamage struct {
	Target ecs.Entity
	Amount float64
	Type   ecs.DamageType
}

type EffectHeal struct {
	Target ecs.Entity
	Amount float64
}

type EffectSummon struct {
	ArchetypeID string
	Position    ecs.Position
}

type EffectAreaEffect struct {
	Center ecs.Position
	Radius float64
	Inner  AbilityEffect // effect applied to each entity found in the area
}

type EffectStatusModifier struct {
	Target    ecs.Entity
	Attribute string
	Delta     float64
	Duration  float64
}

type EffectProjectile struct {
	TargetEntity ecs.Entity
	HasEntity    bool
	TargetPoint  ecs.Position
	Speed        float64
	Payload      ecs.DamagePacket
	OnTargetLost ecs.ProjectileLossPolicy
}

type EffectTeleport struct {
	Target      ecs.Entity
	Destination ecs.Position
}

type EffectBuff struct {
	Target    ecs.Entity
	Attribute string
	Delta     float64
	Duration  float64
}

func (EffectDamage) isAbilityEffect()         {}
func (EffectHeal) isAbilityEffect()           {}
func (EffectSummon) isAbilityEffect()         {}
func (EffectAreaEffect) isAbilityEffect()     {}
func (EffectStatusModifier) isAbilityEffect() {}
func (EffectProjectile) isAbilityEffect()     {}
func (EffectTeleport) isAbilityEffect()       {}
func (EffectBuff) isAbilityEffect()           {}

// Generator produces the effects of casting ability at level against req.
// state is the caster's post-commit Skill state (toggle already flipped,
// cooldown already reset), passed read-only so a toggle ability can tell
// which direction it just flipped without a second effect channel.
// Generators are total functions: they must not mutate world state
// directly; they only return effect values for the caller to translate
// into outcomes.
type Generator func(ability Ability, level int, req Request, state *ecs.Skill) []AbilityEffect
