package isogrid

import (
	"math"

	vec3d "github.com/flywave/go3d/float64/vec3"
)

// gridOf builds a unit-step grid from rows of values; NaN marks empty cells.
func gridOf(rows [][]float64) *Grid {
	g := newGrid(len(rows), len(rows[0]))
	g.StepX, g.StepZ = 1, 1
	g.XAxis = make([]float64, g.Cols)
	for c := range g.XAxis {
		g.XAxis[c] = float64(c)
	}
	g.YAxis = make([]float64, g.Rows)
	for r := range g.YAxis {
		g.YAxis[r] = float64(r)
	}
	g.Minimum, g.Maximum = math.Inf(1), math.Inf(-1)
	for r, row := range rows {
		for c, v := range row {
			g.Z[g.index(r, c)] = v
			if !math.IsNaN(v) {
				g.Minimum = math.Min(g.Minimum, v)
				g.Maximum = math.Max(g.Maximum, v)
			}
		}
	}
	g.ClipMaximum = g.Maximum
	return g
}

// lattice returns n x n samples spaced by step with value f(x, z).
func lattice(n int, step float64, f func(x, z float64) float64) Samples {
	out := make(Samples, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			x, z := float64(c)*step, float64(r)*step
			out = append(out, vec3d.T{x, z, f(x, z)})
		}
	}
	return out
}

var nan = math.NaN()
