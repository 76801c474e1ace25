package isogrid

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// Colormap maps a normalised value in [0, 1] to an opaque colour. It must
// be pure: the same t always gives the same colour.
type Colormap func(t float64) color.RGBA

var ErrUnknownColormap = errors.New("isogrid: unknown colormap")

const DefaultColormap = "viridis"

// viridisStops are evenly spaced samples of the viridis map.
var viridisStops = []color.RGBA{
	{0x44, 0x01, 0x54, 0xff},
	{0x48, 0x27, 0x77, 0xff},
	{0x3e, 0x49, 0x89, 0xff},
	{0x31, 0x68, 0x8e, 0xff},
	{0x26, 0x82, 0x8e, 0xff},
	{0x1f, 0x9e, 0x89, 0xff},
	{0x35, 0xb7, 0x79, 0xff},
	{0x6e, 0xce, 0x58, 0xff},
	{0xb5, 0xde, 0x2b, 0xff},
	{0xfd, 0xe7, 0x25, 0xff},
}

var colormaps = map[string]Colormap{
	"viridis":      stopColormap(viridisStops),
	"kindlmann":    paletteColormap(moreland.Kindlmann()),
	"blackbody":    paletteColormap(moreland.ExtendedBlackBody()),
	"coolwarm":     paletteColormap(moreland.SmoothBlueRed()),
	"purpleorange": paletteColormap(moreland.SmoothPurpleOrange()),
}

// LookupColormap returns the registered colormap called name.
func LookupColormap(name string) (Colormap, error) {
	if cm, ok := colormaps[name]; ok {
		return cm, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownColormap, name)
}

// ColormapNames lists the registered names in sorted order.
func ColormapNames() []string {
	names := make([]string, 0, len(colormaps))
	for name := range colormaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unit(t float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return clamp(t, 0, 1)
}

func stopColormap(stops []color.RGBA) Colormap {
	last := float64(len(stops) - 1)
	return func(t float64) color.RGBA {
		f := unit(t) * last
		i := int(math.Floor(f))
		if i >= len(stops)-1 {
			return stops[len(stops)-1]
		}
		a, b, k := stops[i], stops[i+1], f-float64(i)
		return color.RGBA{
			R: uint8(math.Round(lerp(float64(a.R), float64(b.R), k))),
			G: uint8(math.Round(lerp(float64(a.G), float64(b.G), k))),
			B: uint8(math.Round(lerp(float64(a.B), float64(b.B), k))),
			A: 0xff,
		}
	}
}

// paletteColormap pins cm to [0, 1]. The moreland maps only read their
// state in At, so the closure is safe to share.
func paletteColormap(cm palette.ColorMap) Colormap {
	cm.SetMin(0)
	cm.SetMax(1)
	return func(t float64) color.RGBA {
		c, err := cm.At(unit(t))
		if err != nil {
			return color.RGBA{A: 0xff}
		}
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		return color.RGBA{R: n.R, G: n.G, B: n.B, A: 0xff}
	}
}
