package isogrid

import (
	"math"

	vec2d "github.com/flywave/go3d/float64/vec2"
)

// edgeEpsilon keeps the crossing interpolation finite on flat edges.
const edgeEpsilon = 1e-9

// Segment is a straight piece of an isoline.
type Segment [2]vec2d.T

// Isoline groups the segments extracted for one level. Points are in grid
// index space: x is the column, y the row.
type Isoline struct {
	Level    float64
	Segments []Segment
}

type edge uint8

const (
	edgeTop edge = iota
	edgeRight
	edgeBottom
	edgeLeft
)

// caseEdges lists the edge pairs to connect for each corner configuration.
// Bits: top-left 8, top-right 4, bottom-right 2, bottom-left 1. Cases 5 and
// 10 are saddles and get two independent segments.
var caseEdges = [16][][2]edge{
	0:  nil,
	1:  {{edgeLeft, edgeBottom}},
	2:  {{edgeBottom, edgeRight}},
	3:  {{edgeLeft, edgeRight}},
	4:  {{edgeTop, edgeRight}},
	5:  {{edgeLeft, edgeTop}, {edgeBottom, edgeRight}},
	6:  {{edgeTop, edgeBottom}},
	7:  {{edgeLeft, edgeTop}},
	8:  {{edgeLeft, edgeTop}},
	9:  {{edgeTop, edgeBottom}},
	10: {{edgeTop, edgeRight}, {edgeLeft, edgeBottom}},
	11: {{edgeTop, edgeRight}},
	12: {{edgeLeft, edgeRight}},
	13: {{edgeBottom, edgeRight}},
	14: {{edgeLeft, edgeBottom}},
	15: nil,
}

// ExtractIsolines runs marching squares over g for every level. Cells with
// an empty corner are skipped. Levels that cross nothing yield an Isoline
// with no segments.
func ExtractIsolines(g *Grid, levels []float64) []Isoline {
	if g.Empty() || len(levels) == 0 {
		return nil
	}

	out := make([]Isoline, 0, len(levels))
	for _, level := range levels {
		out = append(out, Isoline{Level: level, Segments: march(g, level)})
	}
	return out
}

func march(g *Grid, level float64) []Segment {
	var segs []Segment
	for r := 0; r+1 < g.Rows; r++ {
		for c := 0; c+1 < g.Cols; c++ {
			tl := g.Z[g.index(r, c)]
			tr := g.Z[g.index(r, c+1)]
			br := g.Z[g.index(r+1, c+1)]
			bl := g.Z[g.index(r+1, c)]
			if math.IsNaN(tl) || math.IsNaN(tr) || math.IsNaN(br) || math.IsNaN(bl) {
				continue
			}

			cell := corners{x: float64(c), y: float64(r), tl: tl, tr: tr, br: br, bl: bl}
			idx := above(tl, level)<<3 | above(tr, level)<<2 | above(br, level)<<1 | above(bl, level)
			for _, pair := range caseEdges[idx] {
				segs = append(segs, Segment{cell.cross(pair[0], level), cell.cross(pair[1], level)})
			}
		}
	}
	return segs
}

func above(v, level float64) int {
	if v >= level {
		return 1
	}
	return 0
}

type corners struct {
	x, y           float64
	tl, tr, br, bl float64
}

func (k corners) cross(e edge, level float64) vec2d.T {
	switch e {
	case edgeTop:
		return vec2d.T{k.x + crossing(k.tl, k.tr, level), k.y}
	case edgeRight:
		return vec2d.T{k.x + 1, k.y + crossing(k.tr, k.br, level)}
	case edgeBottom:
		return vec2d.T{k.x + crossing(k.bl, k.br, level), k.y + 1}
	default:
		return vec2d.T{k.x, k.y + crossing(k.tl, k.bl, level)}
	}
}

func crossing(v1, v2, level float64) float64 {
	d := v2 - v1
	if d == 0 {
		d = edgeEpsilon
	}
	return (level - v1) / d
}

// LinearLevels returns n evenly spaced levels strictly inside (min, max).
func LinearLevels(min, max float64, n int) []float64 {
	if n <= 0 || !(min < max) || !isFinite(min) || !isFinite(max) {
		return nil
	}
	step := (max - min) / float64(n+1)
	levels := make([]float64, n)
	for i := range levels {
		levels[i] = min + float64(i+1)*step
	}
	return levels
}

// World maps the isoline into world coordinates through g's axes.
func (l Isoline) World(g *Grid) Isoline {
	out := Isoline{Level: l.Level, Segments: make([]Segment, len(l.Segments))}
	for i, s := range l.Segments {
		out.Segments[i] = Segment{g.World(s[0]), g.World(s[1])}
	}
	return out
}

// Pixels maps the isoline onto a width x height raster where each grid
// cell covers an equal block and values sit at block centres.
func (l Isoline) Pixels(g *Grid, width, height int) Isoline {
	out := Isoline{Level: l.Level, Segments: make([]Segment, len(l.Segments))}
	if g.Empty() {
		return out
	}
	sx := float64(width) / float64(g.Cols)
	sy := float64(height) / float64(g.Rows)
	for i, s := range l.Segments {
		for j := range s {
			out.Segments[i][j] = vec2d.T{(s[j][0] + 0.5) * sx, (s[j][1] + 0.5) * sy}
		}
	}
	return out
}
