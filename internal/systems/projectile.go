package systems

import (
	"math"

	"mobacore/internal/ecs"
	"mobacore/internal/outcome"
)

// Projectile integrates every live Projectile component one step and
// resolves arrival: homing projectiles re-aim at their
// target's current position each tick, point-target projectiles fly
// straight at a fixed point. Once within Speed*ΔT of the aim point, both
// kinds deliver Payload to the raw damage sub-queue and despawn. Only the
// aim-tracking differs between them, not whether the payload lands.
type Projectile struct {
	Raw *DamageSubQueue
}

func NewProjectile(raw *DamageSubQueue) *Projectile { return &Projectile{Raw: raw} }

func (p *Projectile) Name() string { return "projectile" }

func (p *Projectile) Access() ecs.Access {
	return ecs.Access{
		Read:  []ecs.ComponentID{ecs.CDeathMark},
		Write: []ecs.ComponentID{ecs.CPosition, ecs.CProjectile},
	}
}

func (p *Projectile) Run(ctx *ecs.TickContext) {
	for _, e := range ctx.World.Projectiles() {
		ptr, ok := ctx.World.Projectile(e)
		if !ok {
			continue
		}
		proj := *ptr

		aim, lost := p.aimPoint(ctx.World, proj)
		if lost && proj.OnTargetLost == ecs.ProjectileExpireOnLoss {
			ctx.Sink.Push(ctx.Worker, outcome.Despawn{Target: e, Reason: outcome.DespawnNatural})
			continue
		}
		if lost {
			// ProjectileContinueToLastPoint: keep flying at the last known
			// position instead of the (now invalid) target entity.
			aim = proj.LastKnown
		} else {
			proj.LastKnown = aim
		}

		pos := ctx.World.Position(e)
		dx := aim.X - pos.X
		dy := aim.Y - pos.Y
		dist := math.Hypot(dx, dy)
		step := proj.Speed * ctx.DT

		if dist <= step {
			ctx.World.SetPosition(e, aim)
			// Payload delivery doesn't depend on Homing: a point-target
			// projectile with no TargetEntity pushes against ecs.Nil, which
			// the damage system treats as a no-op (not alive).
			p.Raw.Push(RawDamage{Target: proj.TargetEntity, Packet: proj.Payload})
			ctx.Sink.Push(ctx.Worker, outcome.Despawn{Target: e, Reason: outcome.DespawnNatural})
			ctx.World.SetProjectile(e, &proj)
			continue
		}

		ctx.World.SetPosition(e, ecs.Position{X: pos.X + dx/dist*step, Y: pos.Y + dy/dist*step})
		ctx.World.SetProjectile(e, &proj)
	}
}

// aimPoint resolves where a projectile is currently flying toward. A
// non-homing projectile always aims at its fixed TargetPoint. A homing
// projectile aims at its TargetEntity's live position; lost reports true
// once that entity is gone or dead, and OnTargetLost decides what follows.
func (p *Projectile) aimPoint(w *ecs.World, proj ecs.Projectile) (ecs.Position, bool) {
	if !proj.Homing {
		return proj.TargetPoint, false
	}
	if !w.Alive(proj.TargetEntity) {
		return ecs.Position{}, true
	}
	if _, dead := w.DeathMark(proj.TargetEntity); dead {
		return ecs.Position{}, true
	}
	return w.Position(proj.TargetEntity), false
}
