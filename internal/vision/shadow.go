package vision

import (
	"math"

	"mobacore/internal/worldstatic"
)

// ShadowKind is the closed shadow-polygon kind set.
type ShadowKind int

const (
	ShadowSector ShadowKind = iota
	ShadowTrapezoid
	ShadowPolygon
)

// Shadow is one obstacle's occlusion result: an angular interval for
// raster/containment testing, the distance at which the obstacle's surface
// begins (cells nearer than this are still visible), and a rough polygon
// for the vector output.
type Shadow struct {
	Kind          ShadowKind
	Interval      AngularInterval
	NearDistance  float64
	Polygon       [][2]float64
	ObserverInside bool // observer is within the obstacle: everything behind is shadowed
}

// computeShadow dispatches on obstacle kind. ok is false when
// the obstacle casts no shadow at this observer (terrain below observer
// height, or degenerate geometry).
func computeShadow(ox, oy, observerHeight, radius float64, obs worldstatic.Obstacle) (Shadow, bool) {
	switch obs.Kind {
	case worldstatic.ObstacleCircle:
		return sectorShadow(ox, oy, radius, obs)
	case worldstatic.ObstacleRectangle:
		return trapezoidShadow(ox, oy, radius, obs)
	case worldstatic.ObstacleTerrain:
		if obs.Height <= observerHeight {
			return Shadow{}, false
		}
		return polygonShadow(ox, oy, radius, obs)
	default:
		return Shadow{}, false
	}
}

// sectorShadow: the two tangent rays from observer to the circle,
// truncated at R.
func sectorShadow(ox, oy, radius float64, obs worldstatic.Obstacle) (Shadow, bool) {
	dx, dy := obs.X-ox, obs.Y-oy
	d := math.Hypot(dx, dy)
	if d-obs.Radius > radius {
		return Shadow{}, false // entirely beyond vision range
	}
	if d <= obs.Radius {
		// Observer is inside the obstacle footprint: whole circle is shadow.
		return Shadow{Kind: ShadowSector, Interval: AngularInterval{Start: 0, End: 2 * math.Pi}, ObserverInside: true}, true
	}
	theta := math.Atan2(dy, dx)
	half := math.Asin(clamp(obs.Radius/d, -1, 1))
	iv := angularExtent([]float64{theta - half, theta + half})
	near := d - obs.Radius
	return Shadow{
		Kind:         ShadowSector,
		Interval:     iv,
		NearDistance: near,
		Polygon:      sectorPolygon(ox, oy, theta, half, near, radius),
	}, true
}

// trapezoidShadow: the two outermost visible corners projected away from
// the observer to R.
func trapezoidShadow(ox, oy, radius float64, obs worldstatic.Obstacle) (Shadow, bool) {
	corners := [4][2]float64{
		{obs.X - obs.HalfW, obs.Y - obs.HalfH},
		{obs.X + obs.HalfW, obs.Y - obs.HalfH},
		{obs.X - obs.HalfW, obs.Y + obs.HalfH},
		{obs.X + obs.HalfW, obs.Y + obs.HalfH},
	}
	angles := make([]float64, 4)
	near := math.MaxFloat64
	for i, c := range corners {
		dx, dy := c[0]-ox, c[1]-oy
		angles[i] = math.Atan2(dy, dx)
		if d := math.Hypot(dx, dy); d < near {
			near = d
		}
	}
	if near > radius {
		return Shadow{}, false
	}
	iv := angularExtent(angles)
	return Shadow{
		Kind:         ShadowTrapezoid,
		Interval:     iv,
		NearDistance: near,
		Polygon:      wedgePolygon(ox, oy, iv, near, radius),
	}, true
}

// polygonShadow: a general polygon shadow derived from the obstacle's
// silhouette vertices, used only when the terrain stands taller than the
// observer.
func polygonShadow(ox, oy, radius float64, obs worldstatic.Obstacle) (Shadow, bool) {
	if len(obs.Polygon) == 0 {
		return Shadow{}, false
	}
	angles := make([]float64, len(obs.Polygon))
	near := math.MaxFloat64
	for i, p := range obs.Polygon {
		dx, dy := p.X-ox, p.Y-oy
		angles[i] = math.Atan2(dy, dx)
		if d := math.Hypot(dx, dy); d < near {
			near = d
		}
	}
	if near > radius {
		return Shadow{}, false
	}
	iv := angularExtent(angles)
	return Shadow{
		Kind:         ShadowPolygon,
		Interval:     iv,
		NearDistance: near,
		Polygon:      wedgePolygon(ox, oy, iv, near, radius),
	}, true
}

// sectorPolygon approximates the tangent-bounded shadow as a quad: the two
// near tangent points and the two far points at radius R.
func sectorPolygon(ox, oy, theta, half, near, far float64) [][2]float64 {
	return wedgePolygon(ox, oy, AngularInterval{Start: theta - half, End: theta + half}, near, far)
}

// wedgePolygon builds a 4-point wedge (near-left, near-right, far-right,
// far-left) spanning iv at distances [near, far] from the observer. It is
// a rough approximation good enough for the vector output's shadow-kind
// tagging; exact polygon clipping against the visible disk is left to the
// renderer consuming this output.
func wedgePolygon(ox, oy float64, iv AngularInterval, near, far float64) [][2]float64 {
	return [][2]float64{
		{ox + near*math.Cos(iv.Start), oy + near*math.Sin(iv.Start)},
		{ox + near*math.Cos(iv.End), oy + near*math.Sin(iv.End)},
		{ox + far*math.Cos(iv.End), oy + far*math.Sin(iv.End)},
		{ox + far*math.Cos(iv.Start), oy + far*math.Sin(iv.Start)},
	}
}

