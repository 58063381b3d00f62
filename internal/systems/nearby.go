package systems

import (
	"mobacore/internal/ecs"
	"mobacore/internal/obslog"
	"mobacore/internal/spatial"
)

// collisionProbeRadius is the fixed half-width used by the sweep-and-prune
// crowding probe. It does not model any unit's actual hitbox; it only
// feeds the density gauge, so a single world-wide constant is enough.
const collisionProbeRadius = 20.0

// Nearby rebuilds the shared spatial index from this tick's positions:
// every living entity with Position+Faction is folded into a fresh grid
// build, replacing the whole index on each call rather than incrementally
// patching it. The index is cheap enough to rebuild whole at 10Hz and
// this avoids ever serving a stale entry for a despawned entity. Hero/
// creep/tower/skill all query the result of the *previous*
// tick's rebuild, since nearby runs after them in the stage order; this
// one-tick staleness is the same accepted tradeoff documented on the
// skill system's area effects.
//
// Alongside the exact rebuild, Nearby runs a cheap sweep-and-prune pass
// over the same positions as a coarse crowding probe: it costs an
// insertion sort over nearly-sorted data (temporal coherence keeps
// entities' sort order mostly stable frame to frame) and reports how many
// unit pairs sit within collisionProbeRadius of each other, independent
// of the exact index rebuild. It does not gate or replace anything else
// this tick; it is a monitoring signal for server operators watching for
// pathological clumping (e.g. a wave stuck on a blocked waypoint).
type Nearby struct {
	Index *spatial.Index
	sap   *spatial.SweepAndPrune
	sapXY [][2]float32
}

func NewNearby(index *spatial.Index) *Nearby {
	return &Nearby{Index: index, sap: spatial.NewSweepAndPrune(4096)}
}

func (n *Nearby) Name() string { return "nearby" }

func (n *Nearby) Access() ecs.Access {
	return ecs.Access{
		Read:  []ecs.ComponentID{ecs.CPosition, ecs.CFaction, ecs.CDeathMark},
		Write: nil,
	}
}

func (n *Nearby) Run(ctx *ecs.TickContext) {
	entries := make([]spatial.IndexEntry, 0, 256)
	n.sapXY = n.sapXY[:0]
	ctx.World.Each(func(e ecs.Entity) {
		if _, dead := ctx.World.DeathMark(e); dead {
			return
		}
		pos := ctx.World.Position(e)
		fac := ctx.World.Faction(e)
		entries = append(entries, spatial.IndexEntry{
			Entity:  e.Index,
			X:       pos.X,
			Y:       pos.Y,
			Faction: int(fac.ID),
		})
		n.sapXY = append(n.sapXY, [2]float32{float32(pos.X), float32(pos.Y)})
	})
	n.Index.Rebuild(entries)

	obslog.SetOverlappingUnitPairs(n.sap.CrowdingPairs(n.sapXY, collisionProbeRadius))
}
