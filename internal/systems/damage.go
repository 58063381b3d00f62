package systems

import (
	"mobacore/internal/ecs"
	"mobacore/internal/outcome"
)

// physicalMitigationK is the armor-curve constant:
// mitigation = armor*K / (1 + armor*K).
const physicalMitigationK = 0.06

// Damage drains the tick's raw damage sub-queue, resolves armor/magic
// resist, and emits the mitigated result as outcome.Damage. This is the
// only place in the codebase that applies the mitigation formulas, so
// every source (basic attacks, creep bounty hits, ability damage,
// projectile payloads) is treated identically.
type Damage struct {
	Raw *DamageSubQueue
}

func NewDamage(raw *DamageSubQueue) *Damage { return &Damage{Raw: raw} }

func (d *Damage) Name() string { return "damage" }

func (d *Damage) Access() ecs.Access {
	return ecs.Access{
		Read:  []ecs.ComponentID{ecs.CCombatStats, ecs.CDeathMark},
		Write: nil,
	}
}

func (d *Damage) Run(ctx *ecs.TickContext) {
	for _, rd := range d.Raw.DrainAll() {
		if !ctx.World.Alive(rd.Target) {
			continue
		}
		if _, dead := ctx.World.DeathMark(rd.Target); dead {
			continue
		}

		amount := rd.Packet.Amount
		if rd.Packet.Multiplier != 0 {
			amount *= rd.Packet.Multiplier
		}

		stats := ctx.World.CombatStats(rd.Target)
		switch rd.Packet.Type {
		case ecs.DamagePhysical:
			mitigation := stats.Armor * physicalMitigationK / (1 + stats.Armor*physicalMitigationK)
			amount *= 1 - mitigation
		case ecs.DamageMagical:
			resist := stats.MagicResist / 100
			if resist < 0 {
				resist = 0
			}
			if resist >= 1 {
				resist = 0.999
			}
			amount *= 1 - resist
		case ecs.DamagePure:
			// unmitigated
		}

		ctx.Sink.Push(ctx.Worker, outcome.Damage{
			Target: rd.Target, Amount: amount, DamageType: rd.Packet.Type, Source: rd.Packet.Source,
		})
	}
}
