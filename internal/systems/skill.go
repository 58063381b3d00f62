package systems

import (
	"mobacore/internal/ecs"
	"mobacore/internal/outcome"
	"mobacore/internal/skill"
)

// RejectionSink receives typed cast rejections (a rejection is not an
// error: it becomes a skill_rejected event to the caster). Kept separate
// from the outcome sink since a rejection never mutates world state.
type RejectionSink interface {
	Reject(skill.Rejection)
}

// Skill drives the ability engine's per-tick flow: decrement every
// cooldown, drain this tick's cast requests, validate and commit each one,
// and translate the resulting AbilityEffect values 1:1 into outcomes.
type Skill struct {
	Engine     *skill.Engine
	Requests   *skill.RequestQueue
	Rejections RejectionSink
	AreaIndex  AreaQuerier // previous tick's spatial index, read-only here
	Raw        *DamageSubQueue
}

// AreaQuerier is the read-only subset of spatial.Index the skill system
// needs for area-effect abilities. Declared narrowly so systems does not
// need the concrete spatial package wired in for ordinary, non-area
// abilities.
type AreaQuerier interface {
	EntitiesInRadius(cx, cy, r float64) []ecs.Entity
}

func NewSkill(engine *skill.Engine, requests *skill.RequestQueue, rejections RejectionSink, area AreaQuerier, raw *DamageSubQueue) *Skill {
	return &Skill{Engine: engine, Requests: requests, Rejections: rejections, AreaIndex: area, Raw: raw}
}

func (s *Skill) Name() string { return "skill" }

func (s *Skill) Access() ecs.Access {
	return ecs.Access{
		Read:  []ecs.ComponentID{ecs.CPosition, ecs.CAbilityBook, ecs.CDeathMark},
		Write: []ecs.ComponentID{ecs.CSkill, ecs.CCombatStats},
	}
}

func (s *Skill) Run(ctx *ecs.TickContext) {
	s.regenTick(ctx)
	s.Engine.DecrementCooldowns(ctx.World, ctx.DT)

	for _, req := range s.Requests.DrainAll() {
		ability, level, skillState, reason, ok := s.Engine.Validate(ctx.World, req)
		if !ok {
			if s.Rejections != nil {
				s.Rejections.Reject(skill.Rejection{Caster: req.Caster, Slot: req.Slot, Reason: reason})
			}
			continue
		}

		effects := s.Engine.Commit(ctx.World, req, ability, level, skillState)
		for _, eff := range effects {
			s.emit(ctx, req.Caster, eff)
		}
	}
}

// regenTick applies hp/mp regeneration. It lives here rather than in a
// system of its own because this is the one stage that already owns the
// CombatStats write (mp deduction on cast). Regeneration is silent: no
// healed event, no outcome, just the stat drift every living unit has.
func (s *Skill) regenTick(ctx *ecs.TickContext) {
	ctx.World.Each(func(e ecs.Entity) {
		if _, dead := ctx.World.DeathMark(e); dead {
			return
		}
		stats := ctx.World.CombatStats(e)
		if stats.HPRegenPerSecond == 0 && stats.MPRegenPerSecond == 0 {
			return
		}
		stats.HP += stats.HPRegenPerSecond * ctx.DT
		if stats.HP > stats.MaxHP {
			stats.HP = stats.MaxHP
		}
		stats.MP += stats.MPRegenPerSecond * ctx.DT
		if stats.MP > stats.MaxMP {
			stats.MP = stats.MaxMP
		}
		ctx.World.SetCombatStats(e, stats)
	})
}

func (s *Skill) emit(ctx *ecs.TickContext, caster ecs.Entity, eff skill.AbilityEffect) {
	switch v := eff.(type) {
	case skill.EffectDamage:
		s.Raw.Push(RawDamage{Target: v.Target, Packet: ecs.DamagePacket{Amount: v.Amount, Type: v.Type, Source: caster, Multiplier: 1}})
	case skill.EffectHeal:
		ctx.Sink.Push(ctx.Worker, outcome.Heal{Target: v.Target, Amount: v.Amount, Source: caster})
	case skill.EffectSummon:
		ctx.Sink.Push(ctx.Worker, outcome.Spawn{ArchetypeID: v.ArchetypeID, Position: v.Position, Faction: ctx.World.Faction(caster), Owner: caster})
	case skill.EffectAreaEffect:
		s.emitArea(ctx, caster, v)
	case skill.EffectStatusModifier:
		ctx.Sink.Push(ctx.Worker, outcome.AttributeModifier{Target: v.Target, Attribute: v.Attribute, Delta: v.Delta, Duration: v.Duration})
	case skill.EffectProjectile:
		origin := ctx.World.Position(caster)
		fire := outcome.ProjectileFire{
			Origin: origin, Speed: v.Speed, Payload: v.Payload, OnTargetLost: v.OnTargetLost, Owner: caster,
		}
		if v.HasEntity {
			fire.TargetEntity = v.TargetEntity
			fire.Homing = true
		} else {
			fire.TargetPoint = v.TargetPoint
		}
		ctx.Sink.Push(ctx.Worker, fire)
	case skill.EffectTeleport:
		ctx.Sink.Push(ctx.Worker, outcome.Move{Target: v.Target, NewPosition: v.Destination})
	case skill.EffectBuff:
		ctx.Sink.Push(ctx.Worker, outcome.AttributeModifier{Target: v.Target, Attribute: v.Attribute, Delta: v.Delta, Duration: v.Duration})
	}
}

// emitArea resolves an area effect against the spatial index built last
// tick (the current tick's nearby rebuild runs later in the stage order)
// and fans the inner effect out to every entity
// found. One tick of staleness on the area query is an accepted tradeoff,
// not an oversight: recomputing a fresh index mid-stage would require
// nearby to run twice per tick.
func (s *Skill) emitArea(ctx *ecs.TickContext, caster ecs.Entity, area skill.EffectAreaEffect) {
	if s.AreaIndex == nil {
		return
	}
	for _, target := range s.AreaIndex.EntitiesInRadius(area.Center.X, area.Center.Y, area.Radius) {
		switch inner := area.Inner.(type) {
		case skill.EffectDamage:
			s.Raw.Push(RawDamage{Target: target, Packet: ecs.DamagePacket{Amount: inner.Amount, Type: inner.Type, Source: caster, Multiplier: 1}})
		case skill.EffectHeal:
			ctx.Sink.Push(ctx.Worker, outcome.Heal{Target: target, Amount: inner.Amount, Source: caster})
		case skill.EffectStatusModifier:
			ctx.Sink.Push(ctx.Worker, outcome.AttributeModifier{Target: target, Attribute: inner.Attribute, Delta: inner.Delta, Duration: inner.Duration})
		}
	}
}
