package isogrid

import (
	vec3d "github.com/flywave/go3d/float64/vec3"
)

// Samples holds scattered measurements. Each entry is {x, z, value}: the
// first two components are planar coordinates seen from above, the third
// is the measured value.
type Samples []vec3d.T

// Finite returns the samples whose coordinates and value are all finite.
func (s Samples) Finite() Samples {
	out := make(Samples, 0, len(s))
	for _, p := range s {
		if isFinite(p[0]) && isFinite(p[1]) && isFinite(p[2]) {
			out = append(out, p)
		}
	}
	return out
}

// CollisionPolicy decides what a cell keeps when several samples round to it.
type CollisionPolicy string

const (
	CollisionLast CollisionPolicy = "last"
	CollisionMean CollisionPolicy = "mean"
	CollisionMax  CollisionPolicy = "max"
)

// GapFill selects how empty cells next to observations are bridged.
type GapFill string

const (
	// GapFillStep copies each placed value into the right and lower
	// neighbour if they are still empty at that moment. The result depends
	// on sample order.
	GapFillStep GapFill = "step"
	// GapFillNone leaves unobserved cells empty.
	GapFillNone GapFill = "none"
	// GapFillDilate runs one dilation pass after placement: an empty cell
	// takes its left neighbour's observed value, else the upper one's.
	GapFillDilate GapFill = "dilate"
	// GapFillKriging predicts every empty cell inside the sample hull from a
	// fitted variogram. It falls back to GapFillDilate when no variogram
	// can be fitted.
	GapFillKriging GapFill = "kriging"
)

// Range is a closed value interval used for colour normalisation.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns Max-Min, or 1 when the interval is degenerate.
func (r Range) Span() float64 {
	if d := r.Max - r.Min; d != 0 && isFinite(d) {
		return d
	}
	return 1
}

// Normalize maps v into [0, 1].
func (r Range) Normalize(v float64) float64 {
	return clamp((v-r.Min)/r.Span(), 0, 1)
}
