package vision

import "mobacore/internal/worldstatic"

// VisibleRegion is one observer's computed visibility, in both output
// formats: a raster grid for minimaps and a vector
// description (disk minus merged shadow polygons) for precise renders.
type VisibleRegion struct {
	Grid    Grid
	Shadows []VectorShadow
}

// VectorShadow is one entry of the vector output: a shadow polygon tagged
// with the obstacle kind that produced it, after angular merge.
type VectorShadow struct {
	Kind    ShadowKind
	Polygon [][2]float64
}

// Contains reports whether world point (x,y) falls in a visible or
// partially-visible cell of the region's raster grid. This is the
// coarse, grid-resolution membership test the egress filter uses to scope
// events to what each recipient can see; precise renders should consult
// Shadows directly instead.
func (r *VisibleRegion) Contains(x, y float64) bool {
	g := r.Grid
	if g.CellSize <= 0 || g.Width == 0 || g.Height == 0 {
		return false
	}
	col := int((x - g.OriginX) / g.CellSize)
	row := int((y - g.OriginY) / g.CellSize)
	if col < 0 || col >= g.Width || row < 0 || row >= g.Height {
		return false
	}
	switch g.Cells[row*g.Width+col] {
	case CellVisible:
		return true
	case CellPartial:
		return g.Alpha[row*g.Width+col] >= 0.5
	default:
		return false
	}
}

// Observer bundles the per-observer inputs: position, height,
// vision radius, and angular precision (ray count; it is folded into the
// cache fingerprint, and neither the vector nor the raster pass reads it).
type Observer struct {
	X, Y             float64
	Height           float64
	Radius           float64
	AngularPrecision int
	CellSize         float64
}

// Engine computes and caches visible regions against a static obstacle
// quadtree. One Engine serves every observer in the world; the quadtree
// is rebuilt only when worldstatic.World.Epoch() changes.
type Engine struct {
	quadtree   *Quadtree
	epoch      uint64
	cache      *Cache
	world      *worldstatic.World
	worldW     float64
	worldH     float64
}

func NewEngine(world *worldstatic.World, worldW, worldH float64, cacheSize int) *Engine {
	e := &Engine{world: world, worldW: worldW, worldH: worldH, cache: NewCache(cacheSize)}
	e.rebuildIfStale()
	return e
}

func (e *Engine) rebuildIfStale() {
	epoch := e.world.Epoch()
	if e.quadtree != nil && epoch == e.epoch {
		return
	}
	e.quadtree = Build(e.world.Obstacles(), e.worldW, e.worldH)
	e.epoch = epoch
	e.cache = NewCache(e.cache.maxSize) // obstacle layout changed: old fingerprints are invalid anyway
}

// Compute runs the full pipeline for one observer, serving from
// cache when the fingerprint (position/height/R/P/epoch) is unchanged.
func (e *Engine) Compute(obs Observer) *VisibleRegion {
	e.rebuildIfStale()

	fp := ComputeFingerprint(obs.X, obs.Y, obs.Height, obs.Radius, obs.AngularPrecision, e.epoch)
	if cached, ok := e.cache.Get(fp); ok {
		return cached
	}

	candidates := e.quadtree.QueryCircle(obs.X, obs.Y, obs.Radius)
	shadows := make([]Shadow, 0, len(candidates))
	for _, c := range candidates {
		s, ok := computeShadow(obs.X, obs.Y, obs.Height, obs.Radius, c)
		if ok {
			shadows = append(shadows, s)
		}
	}

	grid := rasterize(obs.X, obs.Y, obs.Radius, obs.CellSize, shadows)

	intervals := make([]AngularInterval, len(shadows))
	for i, s := range shadows {
		intervals[i] = s.Interval
	}
	merged := mergeIntervals(intervals)
	vectorShadows := make([]VectorShadow, 0, len(merged))
	for _, iv := range merged {
		// Recover a representative polygon/kind: any contributing shadow
		// whose original interval falls inside the merged span. Exact
		// polygon union is left to the renderer; this keeps the vector
		// output's entry count down to the merged interval count, which
		// is the stated purpose of the merge step.
		for _, s := range shadows {
			if s.Interval.Start >= iv.Start-1e-9 && s.Interval.End <= iv.End+1e-9 {
				vectorShadows = append(vectorShadows, VectorShadow{Kind: s.Kind, Polygon: s.Polygon})
				break
			}
		}
	}

	region := &VisibleRegion{Grid: grid, Shadows: vectorShadows}
	e.cache.Put(fp, region)
	return region
}
