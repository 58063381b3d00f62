package systems

import (
	"fmt"
	"math"

	"mobacore/internal/spatial"
	"mobacore/internal/worldstatic"
)

// FlowSteering caches one spatial.FlowField per (path, waypoint) goal and
// hands Creep a steering vector around static obstacles. A lookup that
// falls off the grid or lands on an unreachable cell reports ok=false, and
// the caller keeps using the direct waypoint vector: the flow field is a
// local smoothing layer on top of waypoint following, never a replacement
// for it.
type FlowSteering struct {
	worldWidth, worldHeight, cellSize float64
	blocked                           []bool
	fields                            map[string]*spatial.FlowField
}

// NewFlowSteering builds the shared blocked-cell grid once from the map's
// static obstacles. Fields toward individual waypoint goals are generated
// lazily, since most of a path's waypoints are never the *current* goal
// for any live creep on a given tick.
func NewFlowSteering(worldWidth, worldHeight, cellSize float64, obstacles []worldstatic.Obstacle) *FlowSteering {
	probe := spatial.NewFlowField(worldWidth, worldHeight, cellSize)
	cols, rows, _ := probe.Dimensions()
	blocked := make([]bool, cols*rows)
	invCell := 1.0 / cellSize

	for _, o := range obstacles {
		minX, maxX, minY, maxY := obstacleBounds(o)
		c0, c1 := int(minX*invCell), int(maxX*invCell)
		r0, r1 := int(minY*invCell), int(maxY*invCell)
		for r := r0; r <= r1; r++ {
			if r < 0 || r >= rows {
				continue
			}
			for c := c0; c <= c1; c++ {
				if c < 0 || c >= cols {
					continue
				}
				blocked[r*cols+c] = true
			}
		}
	}

	return &FlowSteering{
		worldWidth:  worldWidth,
		worldHeight: worldHeight,
		cellSize:    cellSize,
		blocked:     blocked,
		fields:      make(map[string]*spatial.FlowField),
	}
}

func obstacleBounds(o worldstatic.Obstacle) (minX, maxX, minY, maxY float64) {
	switch o.Kind {
	case worldstatic.ObstacleRectangle:
		return o.X - o.HalfW, o.X + o.HalfW, o.Y - o.HalfH, o.Y + o.HalfH
	case worldstatic.ObstacleTerrain:
		if len(o.Polygon) == 0 {
			return o.X, o.X, o.Y, o.Y
		}
		minX, maxX = o.Polygon[0].X, o.Polygon[0].X
		minY, maxY = o.Polygon[0].Y, o.Polygon[0].Y
		for _, p := range o.Polygon[1:] {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
		return
	default: // circle
		return o.X - o.Radius, o.X + o.Radius, o.Y - o.Radius, o.Y + o.Radius
	}
}

// Vector returns the flow direction at (x, y) toward (goalX, goalY) along
// pathID/waypoint, generating and caching the field on first use. ok is
// false when the position is off-grid or the goal is unreachable from it.
func (fs *FlowSteering) Vector(pathID string, waypoint int, goalX, goalY, x, y float64) (vx, vy float64, ok bool) {
	key := fmt.Sprintf("%s#%d", pathID, waypoint)
	field, found := fs.fields[key]
	if !found {
		field = spatial.NewFlowField(fs.worldWidth, fs.worldHeight, fs.cellSize)
		field.SetBlocked(fs.blocked)
		field.Generate(goalX, goalY)
		fs.fields[key] = field
	}

	return field.SteeringVector(x, y)
}
