package isogrid

import (
	"math"
	"sort"

	vec2d "github.com/flywave/go3d/float64/vec2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultNoiseThreshold = 0.05
	DefaultStep           = 0.5
	DefaultClipPercentile = 0.99
	// DefaultMaxCells bounds Rows*Cols of a resampled grid.
	DefaultMaxCells = 1 << 22
)

// Options tunes Resample. The zero value selects the defaults.
type Options struct {
	// NoiseThreshold drops coordinate differences below it before the
	// median step is taken.
	NoiseThreshold float64
	// DefaultStep is used when no difference survives the threshold.
	DefaultStep float64
	// ClipPercentile in (0, 1) bounds the display maximum. 1 disables clipping.
	ClipPercentile float64
	Collision      CollisionPolicy
	GapFill        GapFill
	// Variogram is the model used by GapFillKriging.
	Variogram VariogramModel
	// MaxCells caps Rows*Cols. Steps are doubled along the longer axis
	// until the grid fits.
	MaxCells int
}

func (o Options) withDefaults() Options {
	if o.NoiseThreshold <= 0 {
		o.NoiseThreshold = DefaultNoiseThreshold
	}
	if o.DefaultStep <= 0 {
		o.DefaultStep = DefaultStep
	}
	if o.ClipPercentile <= 0 || o.ClipPercentile > 1 {
		o.ClipPercentile = DefaultClipPercentile
	}
	if o.Collision == "" {
		o.Collision = CollisionLast
	}
	if o.GapFill == "" {
		o.GapFill = GapFillStep
	}
	if o.Variogram == "" {
		o.Variogram = VariogramExponential
	}
	if o.MaxCells <= 0 {
		o.MaxCells = DefaultMaxCells
	}
	return o
}

// MedianStep infers the natural sampling step of a coordinate sequence: the
// median of the successive differences between unique sorted values,
// ignoring differences below threshold. fallback is returned when nothing
// survives.
func MedianStep(coords []float64, threshold, fallback float64) float64 {
	unique := uniqueSorted(coords)
	if len(unique) < 2 {
		return fallback
	}

	diffs := make([]float64, 0, len(unique)-1)
	for i := 1; i < len(unique); i++ {
		if d := unique[i] - unique[i-1]; d >= threshold {
			diffs = append(diffs, d)
		}
	}
	if len(diffs) == 0 {
		return fallback
	}
	sort.Float64s(diffs)
	return median(diffs)
}

// fitSteps coarsens stepX and stepZ until a grid spanning spanX x spanZ has
// at most maxCells cells. ok is false when no finite step pair fits.
func fitSteps(spanX, spanZ, stepX, stepZ float64, maxCells int) (cols, rows int, sx, sz float64, ok bool) {
	limit := float64(maxCells)
	for i := 0; i < 4096; i++ {
		if !isFinite(stepX) || !isFinite(stepZ) {
			return 0, 0, 0, 0, false
		}
		cx := math.Ceil(spanX/stepX) + 1
		cz := math.Ceil(spanZ/stepZ) + 1
		if !isFinite(cx) || !isFinite(cz) {
			return 0, 0, 0, 0, false
		}
		if cx*cz <= limit {
			return int(cx), int(cz), stepX, stepZ, true
		}
		if cx >= cz {
			stepX *= 2
		} else {
			stepZ *= 2
		}
	}
	return 0, 0, 0, 0, false
}

// Resample rasterises samples onto a uniform grid. Non-finite samples are
// dropped; an empty input yields a zero-sized grid, as does an extent too
// large to fit in MaxCells at any finite step.
func Resample(samples Samples, opts Options) *Grid {
	opts = opts.withDefaults()

	pts := samples.Finite()
	if len(pts) == 0 {
		return newGrid(0, 0)
	}

	xs := make([]float64, len(pts))
	zs := make([]float64, len(pts))
	vs := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], zs[i], vs[i] = p[0], p[1], p[2]
	}

	minX, maxX := floats.Min(xs), floats.Max(xs)
	minZ, maxZ := floats.Min(zs), floats.Max(zs)

	stepX := MedianStep(xs, opts.NoiseThreshold, opts.DefaultStep)
	stepZ := MedianStep(zs, opts.NoiseThreshold, opts.DefaultStep)

	cols, rows, stepX, stepZ, ok := fitSteps(maxX-minX, maxZ-minZ, stepX, stepZ, opts.MaxCells)
	if !ok {
		return newGrid(0, 0)
	}

	g := newGrid(rows, cols)
	g.StepX, g.StepZ = stepX, stepZ
	g.XAxis = make([]float64, cols)
	for c := range g.XAxis {
		g.XAxis[c] = minX + float64(c)*stepX
	}
	g.YAxis = make([]float64, rows)
	for r := range g.YAxis {
		g.YAxis[r] = minZ + float64(r)*stepZ
	}

	p := placer{grid: g, policy: opts.Collision, counts: make([]int, rows*cols)}
	for i := range pts {
		col := int(math.Round((xs[i] - minX) / stepX))
		row := int(math.Round((zs[i] - minZ) / stepZ))
		if !g.inBounds(row, col) {
			continue
		}
		idx := p.place(row, col, vs[i])
		if opts.GapFill == GapFillStep {
			p.bridge(row, col, idx)
		}
	}
	switch opts.GapFill {
	case GapFillDilate:
		p.dilate()
	case GapFillKriging:
		if kri, err := TrainKriging(pts, opts.Variogram, 0, 100); err == nil {
			p.predict(kri, NewConvex(pts))
		} else {
			p.dilate()
		}
	}

	g.Minimum, g.Maximum = floats.Min(vs), floats.Max(vs)
	g.ClipMaximum = g.Maximum
	if opts.ClipPercentile < 1 {
		sorted := make([]float64, len(vs))
		copy(sorted, vs)
		sort.Float64s(sorted)
		g.ClipMaximum = stat.Quantile(opts.ClipPercentile, stat.Empirical, sorted, nil)
	}
	return g
}

// placer writes samples into a grid. counts tracks real observations per
// cell so bridged values never take part in aggregation.
type placer struct {
	grid   *Grid
	policy CollisionPolicy
	counts []int
}

func (p *placer) place(row, col int, v float64) int {
	idx := p.grid.index(row, col)
	n := p.counts[idx]
	switch {
	case n == 0 || p.policy == CollisionLast:
		p.grid.Z[idx] = v
	case p.policy == CollisionMean:
		p.grid.Z[idx] += (v - p.grid.Z[idx]) / float64(n+1)
	case p.policy == CollisionMax:
		p.grid.Z[idx] = math.Max(p.grid.Z[idx], v)
	}
	p.counts[idx] = n + 1
	return idx
}

func (p *placer) bridge(row, col, idx int) {
	g := p.grid
	v := g.Z[idx]
	if col+1 < g.Cols {
		if right := g.index(row, col+1); math.IsNaN(g.Z[right]) {
			g.Z[right] = v
		}
	}
	if row+1 < g.Rows {
		if below := g.index(row+1, col); math.IsNaN(g.Z[below]) {
			g.Z[below] = v
		}
	}
}

func (p *placer) dilate() {
	g := p.grid
	observed := make([]float64, len(g.Z))
	copy(observed, g.Z)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			idx := g.index(r, c)
			if !math.IsNaN(observed[idx]) {
				continue
			}
			if c > 0 && !math.IsNaN(observed[idx-1]) {
				g.Z[idx] = observed[idx-1]
			} else if r > 0 && !math.IsNaN(observed[idx-g.Cols]) {
				g.Z[idx] = observed[idx-g.Cols]
			}
		}
	}
}

// predict fills empty cells inside hull from kri.
func (p *placer) predict(kri *Kriging, hull *Convex) {
	g := p.grid
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			idx := g.index(r, c)
			if !math.IsNaN(g.Z[idx]) {
				continue
			}
			x, z := g.XAxis[c], g.YAxis[r]
			if !hull.Contains(vec2d.T{x, z}) {
				continue
			}
			if v := kri.Predict(x, z); isFinite(v) {
				g.Z[idx] = v
			}
		}
	}
}
