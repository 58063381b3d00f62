package vision

import (
	"math"
	"testing"

	"mobacore/internal/worldstatic"
)

// TestSingleCircularObstacleSector: observer at origin,
// R=1000, P=360, one circular obstacle center=(300,0) radius=50 taller
// than the observer. Expected: exactly one shadow, of sector kind. Its
// span (2*asin(50/300), centered on angle 0) and near distance (250) are
// checked by TestSectorShadowAngularSpanAndRadius.
func TestSingleCircularObstacleSector(t *testing.T) {
	world := worldstatic.New()
	world.SetObstacles([]worldstatic.Obstacle{
		{Kind: worldstatic.ObstacleCircle, X: 300, Y: 0, Radius: 50, Height: 10, Opacity: 1},
	})

	engine := NewEngine(world, 4000, 4000, 16)
	region := engine.Compute(Observer{X: 0, Y: 0, Height: 0, Radius: 1000, AngularPrecision: 360, CellSize: 25})

	if len(region.Shadows) != 1 {
		t.Fatalf("expected exactly one shadow polygon, got %d: %+v", len(region.Shadows), region.Shadows)
	}
	if region.Shadows[0].Kind != ShadowSector {
		t.Fatalf("expected a sector-kind shadow, got %v", region.Shadows[0].Kind)
	}
}

func TestSectorShadowAngularSpanAndRadius(t *testing.T) {
	obs := worldstatic.Obstacle{Kind: worldstatic.ObstacleCircle, X: 300, Y: 0, Radius: 50, Height: 10}
	shadow, ok := sectorShadow(0, 0, 1000, obs)
	if !ok {
		t.Fatalf("expected sectorShadow to report a shadow for an in-range circle")
	}

	wantHalf := math.Asin(50.0 / 300.0)
	gotHalf := (shadow.Interval.End - shadow.Interval.Start) / 2
	if math.Abs(gotHalf-wantHalf) > 1e-6 {
		t.Fatalf("expected half-angle %.6f, got %.6f", wantHalf, gotHalf)
	}
	center := (shadow.Interval.Start + shadow.Interval.End) / 2
	if math.Abs(center) > 1e-6 {
		t.Fatalf("expected shadow centered on angle 0, got center %.6f", center)
	}
	wantNear := 300.0 - 50.0
	if math.Abs(shadow.NearDistance-wantNear) > 1e-6 {
		t.Fatalf("expected near distance %.3f, got %.3f", wantNear, shadow.NearDistance)
	}
}

// TestVisionDeterminism: two identical (observer, static world) inputs
// must yield bit-identical
// raster output and vertex-identical vector output.
func TestVisionDeterminism(t *testing.T) {
	world := worldstatic.New()
	world.SetObstacles([]worldstatic.Obstacle{
		{Kind: worldstatic.ObstacleCircle, X: 300, Y: 100, Radius: 40, Height: 10},
		{Kind: worldstatic.ObstacleRectangle, X: -200, Y: 150, HalfW: 30, HalfH: 60, Height: 10},
	})
	engine := NewEngine(world, 4000, 4000, 16)
	obs := Observer{X: 10, Y: -10, Height: 0, Radius: 800, AngularPrecision: 360, CellSize: 25}

	r1 := engine.Compute(obs)
	r2 := engine.Compute(obs)

	if len(r1.Grid.Cells) != len(r2.Grid.Cells) {
		t.Fatalf("grid length mismatch between two computes of identical inputs")
	}
	for i := range r1.Grid.Cells {
		if r1.Grid.Cells[i] != r2.Grid.Cells[i] {
			t.Fatalf("raster cell %d differs: %v vs %v", i, r1.Grid.Cells[i], r2.Grid.Cells[i])
		}
	}
	if len(r1.Shadows) != len(r2.Shadows) {
		t.Fatalf("vector shadow count differs: %d vs %d", len(r1.Shadows), len(r2.Shadows))
	}
	for i := range r1.Shadows {
		p1, p2 := r1.Shadows[i].Polygon, r2.Shadows[i].Polygon
		if len(p1) != len(p2) {
			t.Fatalf("shadow %d vertex count differs: %d vs %d", i, len(p1), len(p2))
		}
		for j := range p1 {
			if p1[j] != p2[j] {
				t.Fatalf("shadow %d vertex %d differs: %v vs %v", i, j, p1[j], p2[j])
			}
		}
	}
}

// TestVisionCacheServesIdenticalFingerprint checks the cache rule: the
// second Compute call for an unchanged fingerprint must return the exact
// same *VisibleRegion the first call cached, not merely an equal one.
func TestVisionCacheServesIdenticalFingerprint(t *testing.T) {
	world := worldstatic.New()
	engine := NewEngine(world, 1000, 1000, 16)
	obs := Observer{X: 0, Y: 0, Height: 0, Radius: 500, AngularPrecision: 360, CellSize: 25}

	first := engine.Compute(obs)
	second := engine.Compute(obs)
	if first != second {
		t.Fatalf("expected the second Compute call to be served from cache (same pointer)")
	}
}

// TestVisionCacheInvalidatesOnEpochChange ensures changing the static
// world (bumping the epoch) invalidates previously cached fingerprints.
func TestVisionCacheInvalidatesOnEpochChange(t *testing.T) {
	world := worldstatic.New()
	engine := NewEngine(world, 1000, 1000, 16)
	obs := Observer{X: 0, Y: 0, Height: 0, Radius: 500, AngularPrecision: 360, CellSize: 25}

	first := engine.Compute(obs)
	world.SetObstacles([]worldstatic.Obstacle{
		{Kind: worldstatic.ObstacleCircle, X: 100, Y: 0, Radius: 20, Height: 10},
	})
	second := engine.Compute(obs)
	if first == second {
		t.Fatalf("expected a changed static-world epoch to invalidate the cached region")
	}
}

// TestShadowMergeIdempotence: merging a shadow set twice equals merging
// it once.
func TestShadowMergeIdempotence(t *testing.T) {
	intervals := []AngularInterval{
		{Start: 0.1, End: 0.3},
		{Start: 0.25, End: 0.5},
		{Start: 1.0, End: 1.2},
	}
	once := mergeIntervals(intervals)
	twice := mergeIntervals(once)

	if len(once) != len(twice) {
		t.Fatalf("expected idempotent merge, got %d vs %d intervals", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("interval %d changed on second merge: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestQuadtreeQueryCircleFindsObstaclesInRange(t *testing.T) {
	obstacles := []worldstatic.Obstacle{
		{Kind: worldstatic.ObstacleCircle, X: 100, Y: 0, Radius: 10},
		{Kind: worldstatic.ObstacleCircle, X: 3000, Y: 3000, Radius: 10},
	}
	qt := Build(obstacles, 4000, 4000)
	found := qt.QueryCircle(0, 0, 500)
	if len(found) != 1 {
		t.Fatalf("expected exactly one obstacle within range, got %d", len(found))
	}
	if found[0].X != 100 {
		t.Fatalf("expected to find the near obstacle, got %+v", found[0])
	}
}
