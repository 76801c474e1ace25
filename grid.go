package isogrid

import (
	"math"

	vec2d "github.com/flywave/go3d/float64/vec2"
)

// Grid is a uniform raster of optional values. Row r sits at YAxis[r],
// column c at XAxis[c]. Empty cells hold NaN.
type Grid struct {
	Rows  int
	Cols  int
	XAxis []float64
	YAxis []float64
	StepX float64
	StepZ float64

	// Z is row-major, len Rows*Cols.
	Z []float64

	// Minimum and Maximum are the observed value range before clipping.
	Minimum float64
	Maximum float64
	// ClipMaximum is the percentile-clipped upper bound used for display.
	ClipMaximum float64
}

func newGrid(rows, cols int) *Grid {
	z := make([]float64, rows*cols)
	for i := range z {
		z[i] = math.NaN()
	}
	return &Grid{Rows: rows, Cols: cols, Z: z}
}

// Empty reports whether the grid has no cells to draw.
func (g *Grid) Empty() bool {
	return g == nil || g.Rows == 0 || g.Cols == 0
}

func (g *Grid) index(row, column int) int {
	return row*g.Cols + column
}

func (g *Grid) inBounds(row, column int) bool {
	return row >= 0 && row < g.Rows && column >= 0 && column < g.Cols
}

// Value returns the cell at (row, column); ok is false for empty or
// out-of-range cells.
func (g *Grid) Value(row, column int) (float64, bool) {
	if g.Empty() || !g.inBounds(row, column) {
		return math.NaN(), false
	}
	v := g.Z[g.index(row, column)]
	return v, !math.IsNaN(v)
}

// Filled counts the non-empty cells.
func (g *Grid) Filled() int {
	if g.Empty() {
		return 0
	}
	n := 0
	for _, v := range g.Z {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// ObservedRange is [Minimum, Maximum].
func (g *Grid) ObservedRange() Range {
	return Range{Min: g.Minimum, Max: g.Maximum}
}

// DisplayRange is [Minimum, ClipMaximum].
func (g *Grid) DisplayRange() Range {
	return Range{Min: g.Minimum, Max: g.ClipMaximum}
}

// GetRect returns the world extent covered by the axes.
func (g *Grid) GetRect() vec2d.Rect {
	if g.Empty() {
		return vec2d.Rect{}
	}
	return vec2d.Rect{
		Min: vec2d.T{g.XAxis[0], g.YAxis[0]},
		Max: vec2d.T{g.XAxis[g.Cols-1], g.YAxis[g.Rows-1]},
	}
}

// World maps fractional grid indices (column, row) to world coordinates.
func (g *Grid) World(p vec2d.T) vec2d.T {
	if g.Empty() {
		return p
	}
	return vec2d.T{g.XAxis[0] + p[0]*g.StepX, g.YAxis[0] + p[1]*g.StepZ}
}

// Rows2D copies the cells into a [row][col] slice; empty cells stay NaN.
func (g *Grid) Rows2D() [][]float64 {
	if g.Empty() {
		return nil
	}
	out := make([][]float64, g.Rows)
	for r := 0; r < g.Rows; r++ {
		out[r] = make([]float64, g.Cols)
		copy(out[r], g.Z[r*g.Cols:(r+1)*g.Cols])
	}
	return out
}
