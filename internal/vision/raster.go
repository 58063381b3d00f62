package vision

import "math"

// CellState is the closed per-cell label of the grid output.
type CellState int

const (
	CellInvisible CellState = iota
	CellShadowed
	CellVisible
	CellPartial // Alpha in [0,1] holds the supersampled visibility fraction
)

// Grid is the rasterized (2R/g) x (2R/g) output: Cells[row*Width+col].
type Grid struct {
	OriginX, OriginY float64 // world coords of cell (0,0)'s center
	CellSize         float64
	Width, Height    int
	Cells            []CellState
	Alpha            []float64 // only meaningful where Cells[i] == CellPartial
}

const superSample = 2 // NxN subsamples per cell for the Partial state

// rasterize produces the grid output: for each cell within
// radius R of the observer, supersample superSample x superSample points
// and label the cell by the fraction unobstructed.
func rasterize(ox, oy, radius, cellSize float64, shadows []Shadow) Grid {
	if cellSize <= 0 {
		cellSize = 25
	}
	dim := int(math.Ceil((2 * radius) / cellSize))
	if dim < 1 {
		dim = 1
	}
	g := Grid{
		OriginX: ox - radius, OriginY: oy - radius,
		CellSize: cellSize, Width: dim, Height: dim,
		Cells: make([]CellState, dim*dim),
		Alpha: make([]float64, dim*dim),
	}

	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			cx := g.OriginX + (float64(col)+0.5)*cellSize
			cy := g.OriginY + (float64(row)+0.5)*cellSize
			visibleSamples := 0
			totalSamples := 0
			for sy := 0; sy < superSample; sy++ {
				for sx := 0; sx < superSample; sx++ {
					px := cx + (float64(sx)+0.5)/superSample*cellSize - cellSize/2
					py := cy + (float64(sy)+0.5)/superSample*cellSize - cellSize/2
					totalSamples++
					dx, dy := px-ox, py-oy
					dist := math.Hypot(dx, dy)
					if dist > radius {
						continue
					}
					angle := math.Atan2(dy, dx)
					if !anyShadowCovers(shadows, angle, dist) {
						visibleSamples++
					}
				}
			}
			idx := row*dim + col
			switch {
			case totalSamples == 0 || visibleSamples == 0:
				g.Cells[idx] = CellInvisible
				if math.Hypot(cx-ox, cy-oy) <= radius {
					g.Cells[idx] = CellShadowed
				}
			case visibleSamples == totalSamples:
				g.Cells[idx] = CellVisible
			default:
				g.Cells[idx] = CellPartial
				g.Alpha[idx] = float64(visibleSamples) / float64(totalSamples)
			}
		}
	}
	return g
}

func anyShadowCovers(shadows []Shadow, angle, dist float64) bool {
	for _, s := range shadows {
		if s.ObserverInside {
			return true
		}
		if dist <= s.NearDistance {
			continue // nearer than the obstacle: not shadowed by it
		}
		if occluded(s.Interval, angle) {
			return true
		}
	}
	return false
}
