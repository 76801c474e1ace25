package isogrid

import (
	"math"

	vec3d "github.com/flywave/go3d/float64/vec3"
)

type leafKey [2]int

type leaf struct {
	sum vec3d.T
	num int
}

// Thin merges the samples falling into each leaf x leaf square into one
// sample at their mean position carrying their mean value. Output follows
// the order in which leaves are first hit. Non-finite samples are dropped;
// a non-positive leaf only does that.
func Thin(samples Samples, size float64) Samples {
	pts := samples.Finite()
	if !(size > 0) || len(pts) == 0 {
		return pts
	}

	minX, minZ := pts[0][0], pts[0][1]
	for _, p := range pts[1:] {
		minX = math.Min(minX, p[0])
		minZ = math.Min(minZ, p[1])
	}

	leaves := make(map[leafKey]*leaf, len(pts))
	order := make([]leafKey, 0, len(pts))
	for _, p := range pts {
		k := leafKey{int((p[0] - minX) / size), int((p[1] - minZ) / size)}
		l, ok := leaves[k]
		if !ok {
			l = &leaf{}
			leaves[k] = l
			order = append(order, k)
		}
		l.sum.Add(&p)
		l.num++
	}

	out := make(Samples, 0, len(order))
	for _, k := range order {
		l := leaves[k]
		n := float64(l.num)
		out = append(out, vec3d.T{l.sum[0] / n, l.sum[1] / n, l.sum[2] / n})
	}
	return out
}
