package isogrid

import (
	"image"
)

const DefaultLevelCount = 8

// BuildOptions configures Build.
type BuildOptions struct {
	Resample Options
	// Levels, when set, are used as is. Otherwise LevelCount levels are
	// spread evenly inside the display range.
	Levels     []float64
	LevelCount int
	// Unclipped normalises colours against the observed range instead of
	// the percentile-clipped one.
	Unclipped bool
	// Thin, when positive, merges samples per Thin x Thin square before
	// resampling.
	Thin float64
}

// Layer is everything derived from one sample set. It is built once per
// refresh and never modified afterwards.
type Layer struct {
	Samples  Samples
	Grid     *Grid
	Range    Range
	Levels   []float64
	Isolines []Isoline
}

// Build runs the pipeline: optionally thin, resample, pick the display
// range and levels, extract isolines.
func Build(samples Samples, opts BuildOptions) *Layer {
	if opts.Thin > 0 {
		samples = Thin(samples, opts.Thin)
	}
	g := Resample(samples, opts.Resample)

	rng := g.DisplayRange()
	if opts.Unclipped {
		rng = g.ObservedRange()
	}

	levels := opts.Levels
	if len(levels) == 0 {
		n := opts.LevelCount
		if n <= 0 {
			n = DefaultLevelCount
		}
		levels = LinearLevels(rng.Min, rng.Max, n)
	}

	return &Layer{
		Samples:  samples,
		Grid:     g,
		Range:    rng,
		Levels:   levels,
		Isolines: ExtractIsolines(g, levels),
	}
}

// Empty reports whether there is nothing to draw.
func (l *Layer) Empty() bool {
	return l == nil || l.Grid.Empty()
}

// Render draws the layer's grid with its display range.
func (l *Layer) Render(cmap Colormap, width, height int, opts RenderOptions) *image.RGBA {
	if l == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	return Render(l.Grid, cmap, l.Range, width, height, opts)
}

// Segments counts the isoline segments across all levels.
func (l *Layer) Segments() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, iso := range l.Isolines {
		n += len(iso.Segments)
	}
	return n
}
