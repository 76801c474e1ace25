package isogrid

import (
	"math"
)

const (
	NEAREST    = "nearest"
	BILINEAR   = "bilinear"
	HYPERBOLIC = "hyperbolic"
)

type Interpolator interface {
	Interpolate(southWest, southEast, northWest, northEast, x, y float64) float64
}

type BilinearInterpolator struct {
	Interpolator
}

func (i *BilinearInterpolator) Interpolate(southWest, southEast, northWest, northEast, x, y float64) float64 {
	return lerp(lerp(northWest, southWest, y), lerp(northEast, southEast, y), x)
}

type HyperbolicInterpolator struct {
	Interpolator
}

func (i *HyperbolicInterpolator) Interpolate(southWest, southEast, northWest, northEast, x, y float64) float64 {
	a00 := northWest
	a10 := northEast - northWest
	a01 := southWest - northWest
	a11 := northWest - northEast - southWest + southEast
	return a00 + a10*x + a01*y + a11*x*y
}

// newInterpolator returns nil for nearest-neighbour sampling.
func newInterpolator(name string) Interpolator {
	switch name {
	case BILINEAR:
		return &BilinearInterpolator{}
	case HYPERBOLIC:
		return &HyperbolicInterpolator{}
	default:
		return nil
	}
}

func averageExceptNoData(values ...float64) (float64, bool) {
	sum, n := 0.0, 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN(), false
	}
	return sum / float64(n), true
}

// sample reads g at fractional cell coordinates (fx, fy), where integer
// values are cell centres. Empty corners take the mean of the others.
func sample(g *Grid, fx, fy float64, interpolator Interpolator) float64 {
	fx = clamp(fx, 0, float64(g.Cols-1))
	fy = clamp(fy, 0, float64(g.Rows-1))

	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	x1, y1 := min(x0+1, g.Cols-1), min(y0+1, g.Rows-1)
	dx, dy := fx-float64(x0), fy-float64(y0)

	northWest := g.Z[g.index(y0, x0)]
	northEast := g.Z[g.index(y0, x1)]
	southWest := g.Z[g.index(y1, x0)]
	southEast := g.Z[g.index(y1, x1)]

	avg, ok := averageExceptNoData(southWest, southEast, northWest, northEast)
	if !ok {
		return math.NaN()
	}
	if math.IsNaN(northWest) {
		northWest = avg
	}
	if math.IsNaN(northEast) {
		northEast = avg
	}
	if math.IsNaN(southWest) {
		southWest = avg
	}
	if math.IsNaN(southEast) {
		southEast = avg
	}

	return interpolator.Interpolate(southWest, southEast, northWest, northEast, dx, dy)
}
