package systems

import (
	"mobacore/internal/ecs"
	"mobacore/internal/outcome"
)

// Death scans CombatStats for any living entity at hp<=0 that has not yet
// been marked. In the common case the damage outcome's own
// cascade already attaches DeathMark and emits Death the moment hp crosses
// zero during process_outcomes, so this scan finds nothing; it exists to
// catch a statistic left at hp<=0 by any path that bypassed that cascade
// (e.g. an attribute modifier dropping MaxHP below current hp) so zero hp
// always produces exactly one Death outcome, regardless of how hp got
// there.
type Death struct{}

func NewDeath() *Death { return &Death{} }

func (d *Death) Name() string { return "death" }

func (d *Death) Access() ecs.Access {
	return ecs.Access{
		Read:  []ecs.ComponentID{ecs.CCombatStats, ecs.CDeathMark},
		Write: nil,
	}
}

func (d *Death) Run(ctx *ecs.TickContext) {
	ctx.World.Each(func(e ecs.Entity) {
		if _, marked := ctx.World.DeathMark(e); marked {
			return
		}
		stats := ctx.World.CombatStats(e)
		if stats.MaxHP <= 0 {
			return // not a combatant (projectiles, skill slots): nothing to kill
		}
		if stats.HP > 0 {
			return
		}
		ctx.Sink.Push(ctx.Worker, outcome.Death{Target: e, Killer: ecs.Nil})
	})
}
