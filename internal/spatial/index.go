package spatial

// IndexEntry is one row of the tick-local spatial index: a flat
// structure-of-arrays of (entity, x, y, faction).
type IndexEntry struct {
	Entity  uint32
	X, Y    float64
	Faction int
}

// Index is the world resource the nearby system rebuilds every tick and
// every other system queries read-only afterward: write-exclusive during
// nearby, read-only for the rest of the tick.
//
// Rebuild buckets entries into the underlying SpatialGrid for O(1) cell
// lookups; nearby separately feeds the same tick's positions through a
// SweepAndPrune pass for axis-aligned broad phase (see the `nearby` system).
type Index struct {
	grid    *SpatialGrid
	entries []IndexEntry
	byID    map[uint32]IndexEntry
}

func NewIndex(worldWidth, worldHeight, cellSize float64, maxEntities int) *Index {
	return &Index{
		grid: NewSpatialGrid(worldWidth, worldHeight, cellSize, maxEntities),
		byID: make(map[uint32]IndexEntry, maxEntities),
	}
}

// Rebuild replaces the index contents for this tick. entries order is not
// significant.
func (idx *Index) Rebuild(entries []IndexEntry) {
	idx.entries = entries

	idx.grid.Clear()
	for k := range idx.byID {
		delete(idx.byID, k)
	}
	for _, e := range entries {
		idx.grid.Insert(e.Entity, e.X, e.Y)
		idx.byID[e.Entity] = e
	}
}

// RangeQuery returns exactly the set of entries within radius r of
// (cx, cy). The grid gives broad-phase
// candidates in O(1) per cell, RangeQuery narrows them with an exact
// distance check.
func (idx *Index) RangeQuery(cx, cy, r float64) []IndexEntry {
	candidates := idx.grid.QueryRadius(cx, cy, r)
	out := make([]IndexEntry, 0, len(candidates))
	seen := make(map[uint32]bool, len(candidates))
	for _, id := range candidates {
		if seen[id] {
			continue
		}
		seen[id] = true
		e := idx.entryFor(id)
		dx := e.X - cx
		dy := e.Y - cy
		if dx*dx+dy*dy <= r*r {
			out = append(out, e)
		}
	}
	return out
}

func (idx *Index) entryFor(entityID uint32) IndexEntry {
	return idx.byID[entityID]
}

// Len reports how many entries were indexed this tick.
func (idx *Index) Len() int { return len(idx.entries) }
