package isogrid

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	vec2d "github.com/flywave/go3d/float64/vec2"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderOptions tunes Render. The zero value renders nearest-neighbour
// cells without masking.
type RenderOptions struct {
	// Interpolator is NEAREST, BILINEAR or HYPERBOLIC.
	Interpolator string
	// Mask hides pixels outside the hull of these samples.
	Mask Samples
}

// Render draws g into a width x height RGBA image. Row 0 is the top of the
// image. Cells are normalised against rng and passed through cmap; empty
// cells stay transparent. An empty grid or a non-positive size gives an
// empty image.
func Render(g *Grid, cmap Colormap, rng Range, width, height int, opts RenderOptions) *image.RGBA {
	if g.Empty() || width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	}

	var dst *image.RGBA
	if interp := newInterpolator(opts.Interpolator); interp != nil {
		dst = renderInterpolated(g, cmap, rng, width, height, interp)
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), renderCells(g, cmap, rng), image.Rect(0, 0, g.Cols, g.Rows), xdraw.Src, nil)
	}

	if len(opts.Mask) > 0 {
		applyHullMask(dst, g, NewConvex(opts.Mask))
	}
	return dst
}

// renderCells paints one pixel per cell.
func renderCells(g *Grid, cmap Colormap, rng Range) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Cols, g.Rows))
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			v := g.Z[g.index(r, c)]
			if math.IsNaN(v) {
				continue
			}
			img.SetRGBA(c, r, cmap(rng.Normalize(v)))
		}
	}
	return img
}

func renderInterpolated(g *Grid, cmap Colormap, rng Range, width, height int, interp Interpolator) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	sx := float64(g.Cols) / float64(width)
	sy := float64(g.Rows) / float64(height)
	for py := 0; py < height; py++ {
		fy := (float64(py)+0.5)*sy - 0.5
		for px := 0; px < width; px++ {
			fx := (float64(px)+0.5)*sx - 0.5
			v := sample(g, fx, fy, interp)
			if math.IsNaN(v) {
				continue
			}
			img.SetRGBA(px, py, cmap(rng.Normalize(v)))
		}
	}
	return img
}

func applyHullMask(img *image.RGBA, g *Grid, hull *Convex) {
	b := img.Bounds()
	sx := float64(g.Cols) / float64(b.Dx())
	sy := float64(g.Rows) / float64(b.Dy())
	for py := b.Min.Y; py < b.Max.Y; py++ {
		fy := (float64(py)+0.5)*sy - 0.5
		for px := b.Min.X; px < b.Max.X; px++ {
			fx := (float64(px)+0.5)*sx - 0.5
			if !hull.Contains(g.World(vec2d.T{fx, fy})) {
				img.SetRGBA(px, py, color.RGBA{})
			}
		}
	}
}

// Colorbar draws the colormap as a strip, low to high from left to right,
// or bottom to top when vertical.
func Colorbar(cmap Colormap, width, height int, vertical bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	if width <= 0 || height <= 0 {
		return img
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var t float64
			if vertical {
				t = 1 - ratio(y, height)
			} else {
				t = ratio(x, width)
			}
			img.SetRGBA(x, y, cmap(t))
		}
	}
	return img
}

func ratio(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

const labelHeight = 16

// LabelledColorbar is a horizontal Colorbar with the range bounds printed
// underneath on a white band.
func LabelledColorbar(cmap Colormap, rng Range, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)+labelHeight))
	if width <= 0 || height <= 0 {
		return img
	}
	xdraw.Draw(img, img.Bounds(), image.White, image.Point{}, xdraw.Src)
	xdraw.Draw(img, image.Rect(0, 0, width, height), Colorbar(cmap, width, height, false), image.Point{}, xdraw.Src)

	d := &font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13}
	baseline := height + labelHeight - 3

	d.Dot = fixed.P(1, baseline)
	d.DrawString(formatTick(rng.Min))

	hi := formatTick(rng.Max)
	d.Dot = fixed.P(width-d.MeasureString(hi).Ceil()-1, baseline)
	d.DrawString(hi)
	return img
}

func formatTick(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

// ScaleToFit resizes img to width x height with nearest-neighbour sampling.
func ScaleToFit(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	if width > 0 && height > 0 && !img.Bounds().Empty() {
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	}
	return dst
}

// EncodePNG writes a snapshot of img.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
