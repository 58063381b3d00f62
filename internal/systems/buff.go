package systems

import "mobacore/internal/ecs"

// Buff decrements every active Modifier's remaining duration by ΔT and
// drops the ones that expire (Permanent entries, Duration==0 at cast
// time, never age out). Same countdown-then-prune shape as the skill
// engine's cooldown sweep, generalized to the open attribute-modifier
// list.
type Buff struct{}

func NewBuff() *Buff { return &Buff{} }

func (b *Buff) Name() string { return "buff" }

func (b *Buff) Access() ecs.Access {
	return ecs.Access{
		Read:  nil,
		Write: []ecs.ComponentID{ecs.CModifier},
	}
}

func (b *Buff) Run(ctx *ecs.TickContext) {
	for _, e := range ctx.World.EntitiesWithModifiers() {
		active := ctx.World.Modifiers(e)
		kept := active[:0]
		for _, m := range active {
			if m.Permanent {
				kept = append(kept, m)
				continue
			}
			m.Remaining -= ctx.DT
			// A tolerance, so that float residue of repeated ΔT subtraction
			// (0.5 - 5*0.1 is about 2.8e-17) does not keep a buff an extra tick.
			if m.Remaining > 1e-9 {
				kept = append(kept, m)
			}
		}
		ctx.World.SetModifiers(e, kept)
	}
}

// ModifierSum returns the additive sum of every active Modifier on e whose
// Attribute matches, e.g. "range" bonuses.
func ModifierSum(w *ecs.World, e ecs.Entity, attribute string) float64 {
	sum := 0.0
	for _, m := range w.Modifiers(e) {
		if m.Attribute == attribute {
			sum += m.Delta
		}
	}
	return sum
}

// MoveSpeedMultiplier returns the most recently applied
// "move_speed_multiplier" modifier's Delta, or 1 (unmodified) if none is
// active. Unlike ModifierSum's additive attributes, a move-speed
// modifier replaces rather than stacks, matching the toggle-skill
// convention of one on/off multiplier rather than several compounding
// ones.
func MoveSpeedMultiplier(w *ecs.World, e ecs.Entity) float64 {
	mult := 1.0
	for _, m := range w.Modifiers(e) {
		if m.Attribute == "move_speed_multiplier" {
			mult = m.Delta
		}
	}
	return mult
}
