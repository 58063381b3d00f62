package systems

import (
	"math"
	"time"

	"mobacore/internal/ecs"
	"mobacore/internal/outcome"
	"mobacore/internal/skill"
	"mobacore/internal/worldstatic"
)

// ProcRoller is the one-method slice of rng.Stream attackCadence needs,
// declared narrowly so systems does not import the rng package for every
// caller that never wires passive procs (creep, tower).
type ProcRoller interface {
	Float64() float64
}

// PassiveProc bundles what attackCadence needs to resolve and roll an
// attacker's passive ability (e.g. rain_iron_cannon's
// proc-on-attack) against this attack. A nil *PassiveProc disables proc
// rolls entirely, which is the correct wiring for creep and tower: neither
// archetype binds a passive slot in the shipped asset bundle.
type PassiveProc struct {
	Registry *skill.Registry
	Roll     ProcRoller
}

// resolveMultiplier rolls self's passive, if any, against this attack and
// returns the damage multiplier to apply (multiplicative stacking, applied
// before mitigation). bonus_vs_creeps and
// bonus_multiplier are additive bonuses (1.0 means "+100%"), so the
// multiplier is 1+bonus, not the bonus itself.
func resolveMultiplier(w *ecs.World, proc *PassiveProc, self, target ecs.Entity) float64 {
	if proc == nil {
		return 1
	}
	_, level, ok := skill.ResolvePassive(w, proc.Registry, self)
	if !ok {
		return 1
	}
	chance := level.Properties["proc_chance"]
	if proc.Roll.Float64() >= chance {
		return 1
	}
	if _, isCreepTarget := w.Creep(target); isCreepTarget {
		if bonus := level.Properties["bonus_vs_creeps"]; bonus > 0 {
			return 1 + bonus
		}
	}
	if bonus := level.Properties["bonus_multiplier"]; bonus > 0 {
		return 1 + bonus
	}
	return 1
}

// pickTarget implements the tie-break order shared by hero, creep and
// tower: lowest hp -> closest -> lowest entity id. candidates must already
// be filtered to "in range, living, hostile".
func pickTarget(w *ecs.World, from ecs.Entity, candidates []ecs.Entity) (ecs.Entity, bool) {
	if len(candidates) == 0 {
		return ecs.Entity{}, false
	}
	fromPos := w.Position(from)
	best := candidates[0]
	bestStats := w.CombatStats(best)
	bestDist := distance(fromPos, w.Position(best))

	for _, c := range candidates[1:] {
		stats := w.CombatStats(c)
		dist := distance(fromPos, w.Position(c))
		switch {
		case stats.HP < bestStats.HP:
			best, bestStats, bestDist = c, stats, dist
		case stats.HP == bestStats.HP && dist < bestDist:
			best, bestStats, bestDist = c, stats, dist
		case stats.HP == bestStats.HP && dist == bestDist && c.Index < best.Index:
			best, bestStats, bestDist = c, stats, dist
		}
	}
	return best, true
}

func distance(a, b ecs.Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy // squared distance is enough for comparisons
}

// hostileCandidatesInRange filters an index query down to living, hostile
// (different faction) entities within Attack.Range.
func hostileCandidatesInRange(w *ecs.World, from ecs.Entity, nearby []ecs.Entity, rng float64) []ecs.Entity {
	fromPos := w.Position(from)
	fromFaction := w.Faction(from).ID
	rng2 := rng * rng
	out := make([]ecs.Entity, 0, len(nearby))
	for _, e := range nearby {
		if e == from || !w.Alive(e) {
			continue
		}
		if _, dead := w.DeathMark(e); dead {
			continue
		}
		if w.CombatStats(e).MaxHP <= 0 {
			continue // not a combatant (projectiles): never a target
		}
		if w.Faction(e).ID == fromFaction {
			continue
		}
		if distance(fromPos, w.Position(e)) > rng2 {
			continue
		}
		out = append(out, e)
	}
	return out
}

// attackCadence decrements Attack.CooldownResidue and, once it reaches
// zero, emits the basic-attack outcome against target: melee (raw damage
// packet, mitigated later by the damage system) when ProjectileSpeed == 0,
// otherwise ProjectileFire. Hero/creep/tower all
// feed the same raw sub-queue as skill so every damage source, including
// basic attacks, gets the same armor/resist treatment.
func attackCadence(ctx *ecs.TickContext, raw *DamageSubQueue, proc *PassiveProc, self ecs.Entity, target ecs.Entity) {
	atk := ctx.World.Attack(self)
	atk.CooldownResidue -= time.Duration(ctx.DT * float64(time.Second))
	if atk.CooldownResidue > 0 {
		ctx.World.SetAttack(self, atk)
		return
	}

	atk.CooldownResidue = time.Duration((1.0 / atk.CadencePerSecond) * float64(time.Second))
	ctx.World.SetAttack(self, atk)

	multiplier := resolveMultiplier(ctx.World, proc, self, target)

	if atk.ProjectileSpeed == 0 {
		raw.Push(RawDamage{Target: target, Packet: ecs.DamagePacket{
			Amount: atk.Damage, Type: ecs.DamagePhysical, Source: self, Multiplier: multiplier,
		}})
		return
	}

	ctx.Sink.Push(ctx.Worker, outcome.ProjectileFire{
		Origin:       ctx.World.Position(self),
		TargetEntity: target,
		Homing:       true,
		OnTargetLost: ecs.ProjectileExpireOnLoss,
		Speed:        atk.ProjectileSpeed,
		Payload:      ecs.DamagePacket{Amount: atk.Damage, Type: ecs.DamagePhysical, Source: self, Multiplier: multiplier},
		Owner:        self,
	})
}

// Hero is the autonomous-actor system for hero-controlled entities:
// velocity integration plus attack cadence. The player system decides the
// velocity (click-to-move) but never moves the entity itself; this system
// applies that velocity each tick, keeping player the sole Velocity writer
// and hero the sole hero Position writer.
type Hero struct {
	Index NearbyIndex
	Raw   *DamageSubQueue
	Proc  *PassiveProc
}

// NearbyIndex is the read-only query surface nearby publishes for
// hero/creep/tower/skill to consume. This tick's targeting reads *last*
// tick's rebuilt index, the same one-tick-staleness tradeoff documented on
// the skill system's area effects.
type NearbyIndex interface {
	EntitiesInRadius(cx, cy, r float64) []ecs.Entity
}

func NewHero(index NearbyIndex, raw *DamageSubQueue, proc *PassiveProc) *Hero {
	return &Hero{Index: index, Raw: raw, Proc: proc}
}

func (h *Hero) Name() string { return "hero" }

func (h *Hero) Access() ecs.Access {
	return ecs.Access{
		Read:  []ecs.ComponentID{ecs.CVelocity, ecs.CFaction, ecs.CCombatStats, ecs.CHero, ecs.CDeathMark, ecs.CModifier},
		Write: []ecs.ComponentID{ecs.CPosition, ecs.CAttack},
	}
}

func (h *Hero) Run(ctx *ecs.TickContext) {
	ctx.World.Each(func(e ecs.Entity) {
		if _, ok := ctx.World.Hero(e); !ok {
			return
		}
		if _, dead := ctx.World.DeathMark(e); dead {
			return
		}

		if vel := ctx.World.Velocity(e); vel.VX != 0 || vel.VY != 0 || vel.VZ != 0 {
			pos := ctx.World.Position(e)
			ctx.World.SetPosition(e, ecs.Position{
				X: pos.X + vel.VX*ctx.DT,
				Y: pos.Y + vel.VY*ctx.DT,
				Z: pos.Z + vel.VZ*ctx.DT,
			})
		}

		atk := ctx.World.Attack(e)
		effectiveRange := atk.Range + ModifierSum(ctx.World, e, "range")
		pos := ctx.World.Position(e)
		nearby := h.Index.EntitiesInRadius(pos.X, pos.Y, effectiveRange)
		candidates := hostileCandidatesInRange(ctx.World, e, nearby, effectiveRange)
		target, ok := pickTarget(ctx.World, e, candidates)
		if !ok {
			return
		}
		attackCadence(ctx, h.Raw, h.Proc, e, target)
	})
}

// Creep follows its waypoint path, advancing the waypoint index on arrival
// within epsilon, and attacks whatever is in range at a checkpoint. On the
// final waypoint it emits Damage to the lane's base and despawns itself.
type Creep struct {
	Index     NearbyIndex
	World     *worldstatic.World
	Raw       *DamageSubQueue
	ArriveEps float64
	Flow      *FlowSteering // nil disables obstacle-avoidance steering
}

func NewCreep(index NearbyIndex, static *worldstatic.World, raw *DamageSubQueue, flow *FlowSteering) *Creep {
	return &Creep{Index: index, World: static, Raw: raw, ArriveEps: 8.0, Flow: flow}
}

func (c *Creep) Name() string { return "creep" }

func (c *Creep) Access() ecs.Access {
	return ecs.Access{
		Read:  []ecs.ComponentID{ecs.CFaction, ecs.CCombatStats, ecs.CDeathMark, ecs.CModifier},
		Write: []ecs.ComponentID{ecs.CPosition, ecs.CVelocity, ecs.CAttack, ecs.CCreep},
	}
}

func (c *Creep) Run(ctx *ecs.TickContext) {
	ctx.World.Each(func(e ecs.Entity) {
		creep, ok := ctx.World.Creep(e)
		if !ok {
			return
		}
		if _, dead := ctx.World.DeathMark(e); dead {
			return
		}

		path, ok := c.World.Path(creep.PathID)
		if !ok || len(path.Waypoints) == 0 {
			return
		}

		pos := ctx.World.Position(e)
		wp := path.Waypoints[creep.WaypointIndex]
		dx := wp.X - pos.X
		dy := wp.Y - pos.Y
		dist2 := dx*dx + dy*dy

		if dist2 <= c.ArriveEps*c.ArriveEps {
			if creep.WaypointIndex == len(path.Waypoints)-1 {
				ctx.World.SetVelocity(e, ecs.Velocity{})
				c.Raw.Push(RawDamage{Target: path.TerminalEntity, Packet: ecs.DamagePacket{
					Amount: float64(creep.Bounty), Type: ecs.DamagePure, Source: e, Multiplier: 1,
				}})
				ctx.Sink.Push(ctx.Worker, outcome.Despawn{Target: e, Reason: outcome.DespawnNatural})
				return
			}
			creep.WaypointIndex++
			ctx.World.SetCreep(e, creep)
			wp = path.Waypoints[creep.WaypointIndex]
			dx = wp.X - pos.X
			dy = wp.Y - pos.Y
		}

		if ModifierSum(ctx.World, e, "stopped") > 0 {
			// A CreepStop is in effect: hold position but keep attacking.
			ctx.World.SetVelocity(e, ecs.Velocity{})
		} else {
			norm := [2]float64{}
			if c.Flow != nil {
				if vx, vy, ok := c.Flow.Vector(creep.PathID, creep.WaypointIndex, wp.X, wp.Y, pos.X, pos.Y); ok {
					norm = [2]float64{vx, vy}
				}
			}
			if norm[0] == 0 && norm[1] == 0 {
				norm = normalize(dx, dy)
			}
			vel := ecs.Velocity{VX: norm[0] * creep.MoveSpeed, VY: norm[1] * creep.MoveSpeed}
			ctx.World.SetVelocity(e, vel)

			// Integrate, landing exactly on the waypoint when one step would
			// carry past it so a fast creep can't oscillate across epsilon.
			step := creep.MoveSpeed * ctx.DT
			if direct := math.Hypot(dx, dy); direct > 0 && step >= direct {
				ctx.World.SetPosition(e, ecs.Position{X: wp.X, Y: wp.Y, Z: pos.Z})
			} else {
				ctx.World.SetPosition(e, ecs.Position{X: pos.X + vel.VX*ctx.DT, Y: pos.Y + vel.VY*ctx.DT, Z: pos.Z})
			}
		}

		atk := ctx.World.Attack(e)
		nearby := c.Index.EntitiesInRadius(pos.X, pos.Y, atk.Range)
		candidates := hostileCandidatesInRange(ctx.World, e, nearby, atk.Range)
		if target, ok := pickTarget(ctx.World, e, candidates); ok {
			attackCadence(ctx, c.Raw, nil, e, target)
		}
	})
}

func normalize(x, y float64) [2]float64 {
	d2 := x*x + y*y
	if d2 < 1e-12 {
		return [2]float64{0, 0}
	}
	d := math.Sqrt(d2)
	return [2]float64{x / d, y / d}
}

// Tower attacks whatever enters range; it never moves (its dense Velocity
// stays at the zero default).
type Tower struct {
	Index NearbyIndex
	Raw   *DamageSubQueue
}

func NewTower(index NearbyIndex, raw *DamageSubQueue) *Tower { return &Tower{Index: index, Raw: raw} }

func (t *Tower) Name() string { return "tower" }

func (t *Tower) Access() ecs.Access {
	return ecs.Access{
		Read:  []ecs.ComponentID{ecs.CPosition, ecs.CFaction, ecs.CCombatStats, ecs.CTower, ecs.CDeathMark},
		Write: []ecs.ComponentID{ecs.CAttack},
	}
}

func (t *Tower) Run(ctx *ecs.TickContext) {
	ctx.World.Each(func(e ecs.Entity) {
		if _, ok := ctx.World.Tower(e); !ok {
			return
		}
		if _, dead := ctx.World.DeathMark(e); dead {
			return
		}
		atk := ctx.World.Attack(e)
		pos := ctx.World.Position(e)
		nearby := t.Index.EntitiesInRadius(pos.X, pos.Y, atk.Range)
		candidates := hostileCandidatesInRange(ctx.World, e, nearby, atk.Range)
		if target, ok := pickTarget(ctx.World, e, candidates); ok {
			attackCadence(ctx, t.Raw, nil, e, target)
		}
	})
}
