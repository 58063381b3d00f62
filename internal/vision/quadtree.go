// Package vision implements the 360° per-observer visibility pipeline:
// quadtree obstacle cull, shadow casting (sector/trapezoid/polygon),
// angular-interval shadow merge, and a dual raster/vector output behind a
// fingerprint-keyed cache.
package vision

import "mobacore/internal/worldstatic"

// quadNode is one node of a flat, contiguous quadtree: children are
// stored as indices into the same slice rather than pointers, keeping the
// whole tree in one cache-friendly allocation. A leaf holds obstacle
// indices directly; children[0] == -1 marks a leaf.
type quadNode struct {
	minX, minY, maxX, maxY float64
	children               [4]int32
	obstacles              []int32
}

const (
	quadMaxDepth    = 8
	quadMaxPerLeaf  = 8
	quadNoChildren  = -1
)

// Quadtree is a static, build-once index over worldstatic obstacles. It is
// immutable after Build returns, so readers need no locking.
type Quadtree struct {
	nodes     []quadNode
	obstacles []obstacleBox
}

type obstacleBox struct {
	worldstatic.Obstacle
	minX, minY, maxX, maxY float64
}

// Build constructs the quadtree over obstacles in a single pass: compute
// each obstacle's AABB, seed the root to the world bounds, then recursively
// subdivide until a leaf holds <= quadMaxPerLeaf obstacles or quadMaxDepth
// is reached.
func Build(obstacles []worldstatic.Obstacle, worldW, worldH float64) *Quadtree {
	qt := &Quadtree{
		obstacles: make([]obstacleBox, len(obstacles)),
	}
	for i, o := range obstacles {
		qt.obstacles[i] = obstacleBox{Obstacle: o, minX: o.X, minY: o.Y, maxX: o.X, maxY: o.Y}
		box := &qt.obstacles[i]
		switch o.Kind {
		case worldstatic.ObstacleCircle:
			box.minX, box.minY = o.X-o.Radius, o.Y-o.Radius
			box.maxX, box.maxY = o.X+o.Radius, o.Y+o.Radius
		case worldstatic.ObstacleRectangle:
			box.minX, box.minY = o.X-o.HalfW, o.Y-o.HalfH
			box.maxX, box.maxY = o.X+o.HalfW, o.Y+o.HalfH
		case worldstatic.ObstacleTerrain:
			for _, p := range o.Polygon {
				if p.X < box.minX {
					box.minX = p.X
				}
				if p.X > box.maxX {
					box.maxX = p.X
				}
				if p.Y < box.minY {
					box.minY = p.Y
				}
				if p.Y > box.maxY {
					box.maxY = p.Y
				}
			}
		}
	}

	all := make([]int32, len(obstacles))
	for i := range all {
		all[i] = int32(i)
	}
	qt.nodes = append(qt.nodes, quadNode{minX: 0, minY: 0, maxX: worldW, maxY: worldH})
	qt.build(0, all, 0)
	return qt
}

func (qt *Quadtree) build(nodeIdx int32, indices []int32, depth int) {
	node := &qt.nodes[nodeIdx]
	if depth >= quadMaxDepth || len(indices) <= quadMaxPerLeaf {
		node.children[0] = quadNoChildren
		node.obstacles = indices
		return
	}

	cx := (node.minX + node.maxX) / 2
	cy := (node.minY + node.maxY) / 2
	var buckets [4][]int32
	for _, i := range indices {
		b := qt.obstacles[i]
		quadrants := quadrantsOf(b.minX, b.minY, b.maxX, b.maxY, cx, cy)
		for _, q := range quadrants {
			buckets[q] = append(buckets[q], i)
		}
	}

	bounds := [4][4]float64{
		{node.minX, node.minY, cx, cy},
		{cx, node.minY, node.maxX, cy},
		{node.minX, cy, cx, node.maxY},
		{cx, cy, node.maxX, node.maxY},
	}
	for q := 0; q < 4; q++ {
		childIdx := int32(len(qt.nodes))
		qt.nodes = append(qt.nodes, quadNode{minX: bounds[q][0], minY: bounds[q][1], maxX: bounds[q][2], maxY: bounds[q][3]})
		qt.nodes[nodeIdx].children[q] = childIdx
		qt.build(childIdx, buckets[q], depth+1)
		node = &qt.nodes[nodeIdx] // re-slice: append above may have reallocated
	}
}

// quadrantsOf returns which of the 4 child quadrants an AABB overlaps
// (possibly more than one, when it straddles the center lines).
func quadrantsOf(minX, minY, maxX, maxY, cx, cy float64) []int {
	var qs []int
	left, right := minX < cx, maxX >= cx
	top, bottom := minY < cy, maxY >= cy
	if left && top {
		qs = append(qs, 0)
	}
	if right && top {
		qs = append(qs, 1)
	}
	if left && bottom {
		qs = append(qs, 2)
	}
	if right && bottom {
		qs = append(qs, 3)
	}
	return qs
}

// QueryCircle returns every obstacle whose AABB intersects the circle
// (cx, cy, r) in O(log n + k). An obstacle straddling a quadrant boundary
// lives in more than one leaf, so hits are deduplicated by index before
// being returned.
func (qt *Quadtree) QueryCircle(cx, cy, r float64) []worldstatic.Obstacle {
	if len(qt.nodes) == 0 {
		return nil
	}
	seen := make(map[int32]bool)
	var out []worldstatic.Obstacle
	qt.queryNode(0, cx, cy, r, seen, &out)
	return out
}

func (qt *Quadtree) queryNode(idx int32, cx, cy, r float64, seen map[int32]bool, out *[]worldstatic.Obstacle) {
	node := &qt.nodes[idx]
	if !circleIntersectsAABB(cx, cy, r, node.minX, node.minY, node.maxX, node.maxY) {
		return
	}
	if node.children[0] == quadNoChildren {
		for _, i := range node.obstacles {
			if seen[i] {
				continue
			}
			b := qt.obstacles[i]
			if circleIntersectsAABB(cx, cy, r, b.minX, b.minY, b.maxX, b.maxY) {
				seen[i] = true
				*out = append(*out, b.Obstacle)
			}
		}
		return
	}
	for _, child := range node.children {
		qt.queryNode(child, cx, cy, r, seen, out)
	}
}

func circleIntersectsAABB(cx, cy, r, minX, minY, maxX, maxY float64) bool {
	nx := clamp(cx, minX, maxX)
	ny := clamp(cy, minY, maxY)
	dx := cx - nx
	dy := cy - ny
	return dx*dx+dy*dy <= r*r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
