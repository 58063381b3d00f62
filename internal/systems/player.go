// Package systems implements the per-tick actor systems: player, hero,
// creep, tower, projectile, nearby, damage, death. Each type here is an
// ecs.System: a struct carrying its injected dependencies (command queues,
// the shared spatial index, the skill engine, the static world) plus a
// Run method that touches only the components its Access() declares.
package systems

import (
	"math"
	"strconv"
	"sync"

	"mobacore/internal/ecs"
	"mobacore/internal/ingress"
	"mobacore/internal/skill"
)

// PlayerIndex maps a broker-facing player id to the hero entity it
// controls. Populated outside the tick (on join/spawn) and read inside it,
// so access is guarded independently of the scheduler's component
// discipline.
type PlayerIndex struct {
	mu      sync.RWMutex
	ids     map[string]ecs.Entity
	reverse map[ecs.Entity]string
}

func NewPlayerIndex() *PlayerIndex {
	return &PlayerIndex{ids: make(map[string]ecs.Entity), reverse: make(map[ecs.Entity]string)}
}

func (p *PlayerIndex) Set(playerID string, e ecs.Entity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids[playerID] = e
	p.reverse[e] = playerID
}

func (p *PlayerIndex) Remove(playerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.ids[playerID]; ok {
		delete(p.reverse, e)
	}
	delete(p.ids, playerID)
}

func (p *PlayerIndex) Get(playerID string) (ecs.Entity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.ids[playerID]
	return e, ok
}

// PlayerID reverses the lookup: which player id controls e, if any. Used
// by the cast-rejection notification path, which only ever has
// the caster entity, not the player id that issued the command.
func (p *PlayerIndex) PlayerID(e ecs.Entity) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.reverse[e]
	return id, ok
}

// Snapshot returns a point-in-time copy of every registered player id ->
// hero entity mapping, for the egress adapter's per-recipient fan-out
// (which must not hold PlayerIndex's lock while computing vision and
// marshaling JSON for each player).
func (p *PlayerIndex) Snapshot() map[string]ecs.Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]ecs.Entity, len(p.ids))
	for k, v := range p.ids {
		out[k] = v
	}
	return out
}

// Player drains the command queue, validates each command against the
// sender's own entity, and either writes Velocity directly (click-to-move;
// player is the sole writer of hero Velocity, so this stays inside its
// declared write set) or
// enqueues a SkillRequest for the skill system.
type Player struct {
	Commands      *ingress.CommandQueue
	Players       *PlayerIndex
	SkillRequests *skill.RequestQueue
	BaseMoveSpeed float64 // units/second, applied to click-to-move direction
	MaxPerTick    int
}

func NewPlayer(commands *ingress.CommandQueue, players *PlayerIndex, requests *skill.RequestQueue, baseMoveSpeed float64) *Player {
	return &Player{Commands: commands, Players: players, SkillRequests: requests, BaseMoveSpeed: baseMoveSpeed, MaxPerTick: 512}
}

func (p *Player) Name() string { return "player" }

func (p *Player) Access() ecs.Access {
	return ecs.Access{
		Read:  []ecs.ComponentID{ecs.CPosition, ecs.CCombatStats, ecs.CDeathMark, ecs.CModifier},
		Write: []ecs.ComponentID{ecs.CVelocity},
	}
}

func (p *Player) Run(ctx *ecs.TickContext) {
	cmds := p.Commands.DrainAvailable(p.MaxPerTick)
	for _, cmd := range cmds {
		entity, ok := p.Players.Get(cmd.PlayerID)
		if !ok || !ctx.World.Alive(entity) {
			continue // unknown player id: command error, discarded
		}
		if _, dead := ctx.World.DeathMark(entity); dead {
			continue // living check: dead entities accept no commands
		}

		switch cmd.Action {
		case ingress.ActionMove:
			p.handleMove(ctx, entity, cmd)
		case ingress.ActionCast:
			p.handleCast(ctx, entity, cmd)
		case ingress.ActionAttack, ingress.ActionUpgrade, ingress.ActionPing:
			// attack/upgrade/ping have no direct component mutation in the
			// core; attack target selection happens in hero/creep/tower,
			// upgrade is an out-of-tick meta-progression concern, ping is
			// purely a keepalive. Nothing to do here.
		}
	}
}

func (p *Player) handleMove(ctx *ecs.TickContext, entity ecs.Entity, cmd ingress.Command) {
	pos := ctx.World.Position(entity)
	dx := cmd.MoveTo[0] - pos.X
	dy := cmd.MoveTo[1] - pos.Y
	dist := math.Hypot(dx, dy)
	if dist < 1e-6 {
		ctx.World.SetVelocity(entity, ecs.Velocity{})
		return
	}
	speed := p.BaseMoveSpeed * MoveSpeedMultiplier(ctx.World, entity)
	ctx.World.SetVelocity(entity, ecs.Velocity{
		VX: dx / dist * speed,
		VY: dy / dist * speed,
	})
}

func (p *Player) handleCast(ctx *ecs.TickContext, entity ecs.Entity, cmd ingress.Command) {
	slot, ok := ingress.GetSlot(cmd.Cast.Slot)
	if !ok {
		return
	}
	req := skill.Request{Caster: entity, Slot: slot}
	if cmd.Cast.HasUnitTarget {
		if target, ok := p.resolveUnitTarget(ctx.World, cmd.Cast.UnitTarget); ok {
			req.Target.HasEntity = true
			req.Target.Entity = target
		}
		// Unresolvable unit ids fall through with HasEntity false;
		// skill.Validate rejects a unit-targeted ability with no resolved
		// entity the same way it rejects an out-of-range one.
	}
	if cmd.Cast.HasPointTarget {
		req.Target.HasPoint = true
		req.Target.Point = ecs.Position{X: cmd.Cast.PointTarget[0], Y: cmd.Cast.PointTarget[1]}
	}
	if cmd.Cast.HasDirTarget {
		req.Target.HasDir = true
		req.Target.Direction = ecs.Position{X: cmd.Cast.DirTarget[0], Y: cmd.Cast.DirTarget[1]}
	}
	p.SkillRequests.Push(req)
}

// resolveUnitTarget resolves a cast command's unit id against a live
// entity. Player ids resolve through
// PlayerIndex, same as today; anything else is parsed as the plain entity
// index egress already places on the wire for every outcome event
// (internal/egress/egress.go's wireEvent.Entity), so a client can target a
// creep or tower by the id it was handed in an event, not only another
// player's hero.
func (p *Player) resolveUnitTarget(w *ecs.World, unitID string) (ecs.Entity, bool) {
	if e, ok := p.Players.Get(unitID); ok {
		return e, true
	}
	idx, err := strconv.ParseUint(unitID, 10, 32)
	if err != nil {
		return ecs.Entity{}, false
	}
	e := w.EntityAt(uint32(idx))
	if e.IsNil() {
		return ecs.Entity{}, false
	}
	return e, true
}
