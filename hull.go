package isogrid

import (
	"math"

	vec2d "github.com/flywave/go3d/float64/vec2"
	vec3d "github.com/flywave/go3d/float64/vec3"
)

// hullTolerance admits points lying on a hull edge, such as the outermost
// samples of a regular lattice.
const hullTolerance = 1e-9

// Convex is the convex hull of a sample footprint, seen from above.
type Convex struct {
	vertices []vec3d.T
	hull     []vec2d.T
}

func NewConvex(vertices Samples) *Convex {
	return &Convex{vertices: vertices.Finite()}
}

func (c *Convex) Rect() vec2d.Rect {
	r := vec2d.Rect{Min: vec2d.MaxVal, Max: vec2d.MinVal}
	for i := range c.Hull() {
		r.Extend(&c.hull[i])
	}
	return r
}

// Hull returns the hull vertices in counter-clockwise order (x right, z up).
func (c *Convex) Hull() []vec2d.T {
	if c.hull == nil && len(c.vertices) > 0 {
		minX, maxX := c.getExtremePoints()
		c.hull = append(c.quickHull(c.vertices, maxX, minX), c.quickHull(c.vertices, minX, maxX)...)
	}
	return c.hull
}

// Contains reports whether p lies inside or on the hull. Degenerate hulls
// (fewer than three vertices) contain everything.
func (c *Convex) Contains(p vec2d.T) bool {
	hull := c.Hull()
	if len(hull) < 3 {
		return true
	}
	for i, start := range hull {
		end := hull[(i+1)%len(hull)]
		edge := vec2d.Sub(&end, &start)
		rel := vec2d.Sub(&p, &start)
		scale := math.Max(1, math.Abs(edge[0])+math.Abs(edge[1]))
		if cross(edge, rel) < -hullTolerance*scale {
			return false
		}
	}
	return true
}

func (c *Convex) quickHull(points []vec3d.T, start, end vec2d.T) []vec2d.T {
	indicators := c.getLhsPointDistanceIndicatorMap(points, start, end)
	if len(indicators) == 0 {
		return []vec2d.T{end}
	}

	farthestPoint := c.getFarthestPoint(indicators)

	newPoints := make([]vec3d.T, 0, len(indicators))
	for point := range indicators {
		newPoints = append(newPoints, point)
	}

	return append(
		c.quickHull(newPoints, farthestPoint, end),
		c.quickHull(newPoints, start, farthestPoint)...)
}

func cross(lhs, rhs vec2d.T) float64 {
	return (lhs[0] * rhs[1]) - (lhs[1] * rhs[0])
}

func (c *Convex) getExtremePoints() (minX, maxX vec2d.T) {
	minX = vec2d.T{math.MaxFloat64, 0}
	maxX = vec2d.T{-math.MaxFloat64, 0}

	for _, p := range c.vertices {
		if p[0] < minX[0] {
			minX = vec2d.T{p[0], p[1]}
		}
		if maxX[0] < p[0] {
			maxX = vec2d.T{p[0], p[1]}
		}
	}

	return minX, maxX
}

// getLhsPointDistanceIndicatorMap keys by planar position only, so samples
// sharing a location but carrying different values collapse.
func (c *Convex) getLhsPointDistanceIndicatorMap(points []vec3d.T, start, end vec2d.T) map[vec3d.T]float64 {
	indicators := make(map[vec3d.T]float64)

	for _, point := range points {
		key := vec3d.T{point[0], point[1], 0}
		if d := c.getDistanceIndicator(key, start, end); d > 0 {
			indicators[key] = d
		}
	}

	return indicators
}

func (c *Convex) getDistanceIndicator(point vec3d.T, start, end vec2d.T) float64 {
	point2d := vec2d.T{point[0], point[1]}
	vLine := vec2d.Sub(&end, &start)
	vPoint := vec2d.Sub(&point2d, &start)
	return cross(vLine, vPoint)
}

func (c *Convex) getFarthestPoint(indicators map[vec3d.T]float64) (farthestPoint vec2d.T) {
	maxIndicator := -math.MaxFloat64
	for point, d := range indicators {
		if maxIndicator < d || (maxIndicator == d && lessPlanar(point, farthestPoint)) {
			maxIndicator = d
			farthestPoint = vec2d.T{point[0], point[1]}
		}
	}
	return farthestPoint
}

// lessPlanar breaks ties so the hull does not depend on map order.
func lessPlanar(p vec3d.T, q vec2d.T) bool {
	if p[0] != q[0] {
		return p[0] < q[0]
	}
	return p[1] < q[1]
}
