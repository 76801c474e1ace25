package isogrid_test

import (
	"fmt"

	isogrid "github.com/flywave/go-isogrid"
)

var samples = isogrid.Samples{
	{0, 0, 10},
	{1, 0, 20},
	{0, 1, 30},
	{1, 1, 40},
}

func ExampleResample() {
	g := isogrid.Resample(samples, isogrid.Options{})

	fmt.Println(g.Rows, g.Cols, g.StepX, g.StepZ)
	fmt.Println(g.Rows2D())
	// Output:
	// 2 2 1 1
	// [[10 20] [30 40]]
}

func ExampleExtractIsolines() {
	g := isogrid.Resample(samples, isogrid.Options{})

	for _, iso := range isogrid.ExtractIsolines(g, []float64{25}) {
		for _, s := range iso.Segments {
			fmt.Printf("%.2f -> %.2f\n", s[0], s[1])
		}
	}
	// Output:
	// [0.00 0.75] -> [1.00 0.25]
}

func ExampleLocate() {
	g := isogrid.Resample(samples, isogrid.Options{})
	vp := isogrid.Viewport{Width: 200, Height: 200}

	p, ok := isogrid.Locate(150, 20, g, vp)
	fmt.Println(ok, p.Row, p.Col, p.Value)
	// Output:
	// true 0 0 10
}

func ExampleBuild() {
	layer := isogrid.Build(samples, isogrid.BuildOptions{LevelCount: 1})

	fmt.Println(layer.Range.Min, layer.Range.Max, layer.Levels, layer.Segments())
	// Output:
	// 10 40 [25] 1
}
