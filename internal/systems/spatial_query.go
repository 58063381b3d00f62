package systems

import (
	"mobacore/internal/ecs"
	"mobacore/internal/spatial"
)

// SpatialQuery adapts the bare-index spatial.Index (which only knows
// uint32 entity indices) back into full ecs.Entity handles, resolving
// each against the live world so a stale index slot never resurfaces a
// despawned-and-recycled entity. Implements both NearbyIndex and
// AreaQuerier.
type SpatialQuery struct {
	World *ecs.World
	Index *spatial.Index
}

func NewSpatialQuery(w *ecs.World, idx *spatial.Index) *SpatialQuery {
	return &SpatialQuery{World: w, Index: idx}
}

func (q *SpatialQuery) EntitiesInRadius(cx, cy, r float64) []ecs.Entity {
	entries := q.Index.RangeQuery(cx, cy, r)
	out := make([]ecs.Entity, 0, len(entries))
	for _, e := range entries {
		entity := q.World.EntityAt(e.Entity)
		if entity.IsNil() {
			continue
		}
		out = append(out, entity)
	}
	return out
}
