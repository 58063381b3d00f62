package systems

import (
	"sync"

	"mobacore/internal/ecs"
	"mobacore/internal/vision"
	"mobacore/internal/worldstatic"
)

// VisionStore holds the latest computed VisibleRegion per observer,
// published by the vision system and read by the egress adapter when
// filtering outbound events per client. Same guarded-map pattern as
// PlayerIndex since it crosses the tick/egress boundary outside the
// scheduler's component discipline.
type VisionStore struct {
	mu      sync.RWMutex
	regions map[ecs.Entity]*vision.VisibleRegion
}

func NewVisionStore() *VisionStore {
	return &VisionStore{regions: make(map[ecs.Entity]*vision.VisibleRegion)}
}

func (s *VisionStore) Set(e ecs.Entity, r *vision.VisibleRegion) {
	s.mu.Lock()
	s.regions[e] = r
	s.mu.Unlock()
}

func (s *VisionStore) Get(e ecs.Entity) (*vision.VisibleRegion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[e]
	return r, ok
}

func (s *VisionStore) Remove(e ecs.Entity) {
	s.mu.Lock()
	delete(s.regions, e)
	s.mu.Unlock()
}

// Vision runs the shadow-casting pipeline for every observer once per
// tick, reading
// this tick's rebuilt spatial positions indirectly through ecs.World
// (vision itself only needs the observer's own Position/Vision, not the
// spatial index: occlusion comes from the static obstacle quadtree, not
// other entities).
type Vision struct {
	Engine *vision.Engine
	Store  *VisionStore
}

func NewVision(engine *vision.Engine, store *VisionStore) *Vision {
	return &Vision{Engine: engine, Store: store}
}

// NewVisionEngine builds a vision.Engine sized to the static world's own
// obstacle extent, for bootstrap code outside this package that has no
// business computing quadtree bounds itself.
func NewVisionEngine(world *worldstatic.World, cacheSize int) *vision.Engine {
	w, h := visionWorldSize(world)
	return vision.NewEngine(world, w, h, cacheSize)
}

func (v *Vision) Name() string { return "vision" }

func (v *Vision) Access() ecs.Access {
	return ecs.Access{
		Read:  []ecs.ComponentID{ecs.CPosition, ecs.CVision, ecs.CDeathMark},
		Write: nil,
	}
}

func (v *Vision) Run(ctx *ecs.TickContext) {
	ctx.World.Each(func(e ecs.Entity) {
		vis, ok := ctx.World.Vision(e)
		if !ok {
			return
		}
		if _, dead := ctx.World.DeathMark(e); dead {
			v.Store.Remove(e)
			return
		}
		pos := ctx.World.Position(e)
		region := v.Engine.Compute(vision.Observer{
			X: pos.X, Y: pos.Y, Height: vis.Height,
			Radius: vis.Radius, AngularPrecision: vis.AngularPrecision,
			CellSize: defaultCellSize,
		})
		v.Store.Set(e, region)
	})
}

const defaultCellSize = 25.0

// visionWorldSize reports the obstacle-quadtree bounds to use when
// constructing a vision.Engine, derived from the static world's own
// extent rather than hardcoded, so map size changes never require a code
// change here.
func visionWorldSize(w *worldstatic.World) (float64, float64) {
	maxX, maxY := 0.0, 0.0
	for _, o := range w.Obstacles() {
		if o.X > maxX {
			maxX = o.X
		}
		if o.Y > maxY {
			maxY = o.Y
		}
	}
	if maxX == 0 {
		maxX = 10000
	}
	if maxY == 0 {
		maxY = 10000
	}
	return maxX * 1.2, maxY * 1.2
}
