package isogrid

import (
	"errors"
	"math"
	"sync"

	vec2d "github.com/flywave/go3d/float64/vec2"
)

var ErrViewClosed = errors.New("isogrid: view closed")

// Margin is the space between the viewport edge and the plotted area, in
// device pixels.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// Viewport describes where a grid is drawn on screen.
type Viewport struct {
	Width, Height float64
	Margin        Margin
}

// PlotRect returns the plotted area in device pixels.
func (vp Viewport) PlotRect() vec2d.Rect {
	return vec2d.Rect{
		Min: vec2d.T{vp.Margin.Left, vp.Margin.Top},
		Max: vec2d.T{vp.Width - vp.Margin.Right, vp.Height - vp.Margin.Bottom},
	}
}

// Probe is the cell under the pointer. Valid is false when the cell holds
// no value.
type Probe struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Locate hit-tests a pointer position against g drawn in vp. ok is false
// when the pointer is outside the plotted area or the grid is empty.
func Locate(px, py float64, g *Grid, vp Viewport) (Probe, bool) {
	return locateIn(px, py, g, vp.PlotRect())
}

func locateIn(px, py float64, g *Grid, rect vec2d.Rect) (Probe, bool) {
	if g.Empty() {
		return Probe{}, false
	}
	w, h := rect.Max[0]-rect.Min[0], rect.Max[1]-rect.Min[1]
	if w <= 0 || h <= 0 {
		return Probe{}, false
	}
	fx := (px - rect.Min[0]) / w
	fy := (py - rect.Min[1]) / h
	if !(fx >= 0 && fx <= 1 && fy >= 0 && fy <= 1) {
		return Probe{}, false
	}

	col := int(math.Floor(fx * float64(g.Cols-1)))
	row := int(math.Floor(fy * float64(g.Rows-1)))
	v, valid := g.Value(row, col)
	return Probe{Row: row, Col: col, Value: v, Valid: valid}, true
}

// View owns the interaction state of one mounted heatmap: the layer on
// display, the cached plot rectangle and the current hover probe. Create
// one per mount and Close it on unmount.
type View struct {
	mu       sync.Mutex
	closed   bool
	viewport Viewport
	rect     *vec2d.Rect
	layer    *Layer
	hover    *Probe
}

func NewView(vp Viewport) *View {
	return &View{viewport: vp}
}

// SetLayer swaps the displayed layer and drops the hover probe.
func (v *View) SetLayer(l *Layer) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	if v.layer != l {
		v.layer = l
		v.hover = nil
	}
	return nil
}

// Layer returns the displayed layer, or nil.
func (v *View) Layer() *Layer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.layer
}

// Resize records a new viewport and invalidates the cached plot rectangle.
// Call it on resize and scroll.
func (v *View) Resize(vp Viewport) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	v.viewport = vp
	v.rect = nil
	v.hover = nil
	return nil
}

// Hover updates the probe for a pointer move. ok is false when the pointer
// misses the grid, in which case the probe is cleared.
func (v *View) Hover(px, py float64) (Probe, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return Probe{}, false, ErrViewClosed
	}
	if v.rect == nil {
		r := v.viewport.PlotRect()
		v.rect = &r
	}

	var g *Grid
	if v.layer != nil {
		g = v.layer.Grid
	}
	p, ok := locateIn(px, py, g, *v.rect)
	if !ok {
		v.hover = nil
		return Probe{}, false, nil
	}
	v.hover = &p
	return p, true, nil
}

// Leave discards the probe on pointer-leave.
func (v *View) Leave() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hover = nil
}

// Current returns the last probe, if any.
func (v *View) Current() (Probe, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.hover == nil {
		return Probe{}, false
	}
	return *v.hover, true
}

// Close releases the view. Later calls fail with ErrViewClosed.
func (v *View) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	v.closed = true
	v.layer = nil
	v.hover = nil
	v.rect = nil
	return nil
}
