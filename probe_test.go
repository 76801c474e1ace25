package isogrid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	g := gridOf([][]float64{
		{1, 2, 3},
		{4, nan, 6},
		{7, 8, 9},
	})
	vp := Viewport{Width: 120, Height: 120, Margin: Margin{Top: 10, Right: 10, Bottom: 10, Left: 10}}

	tests := []struct {
		name   string
		px, py float64
		hit    bool
		want   Probe
	}{
		{"top left corner", 10, 10, true, Probe{Row: 0, Col: 0, Value: 1, Valid: true}},
		{"bottom right corner", 110, 110, true, Probe{Row: 2, Col: 2, Value: 9, Valid: true}},
		{"middle", 60, 60, true, Probe{Row: 1, Col: 1, Valid: false}},
		{"right edge", 109, 10, true, Probe{Row: 0, Col: 1, Value: 2, Valid: true}},
		{"in margin", 5, 60, false, Probe{}},
		{"past right", 111, 60, false, Probe{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := Locate(tt.px, tt.py, g, vp)
			require.Equal(t, tt.hit, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want.Row, p.Row)
			assert.Equal(t, tt.want.Col, p.Col)
			assert.Equal(t, tt.want.Valid, p.Valid)
			if tt.want.Valid {
				assert.Equal(t, tt.want.Value, p.Value)
			}
		})
	}
}

func TestLocate_EmptyGrid(t *testing.T) {
	_, ok := Locate(5, 5, nil, Viewport{Width: 10, Height: 10})
	assert.False(t, ok)

	_, ok = Locate(5, 5, gridOf([][]float64{{1}}), Viewport{Width: 10, Height: 10, Margin: Margin{Left: 20}})
	assert.False(t, ok)
}

func TestView_HoverAndLeave(t *testing.T) {
	layer := &Layer{Grid: gridOf([][]float64{{1, 2}, {3, 4}})}
	v := NewView(Viewport{Width: 100, Height: 100})
	require.NoError(t, v.SetLayer(layer))
	assert.Same(t, layer, v.Layer())

	p, ok, err := v.Hover(100, 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4.0, p.Value)

	cur, ok := v.Current()
	require.True(t, ok)
	assert.Equal(t, p, cur)

	_, ok, err = v.Hover(150, 50)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok = v.Current()
	assert.False(t, ok, "missing the grid clears the probe")

	_, _, err = v.Hover(0, 0)
	require.NoError(t, err)
	v.Leave()
	_, ok = v.Current()
	assert.False(t, ok)
}

func TestView_ResizeInvalidatesRect(t *testing.T) {
	v := NewView(Viewport{Width: 100, Height: 100})
	require.NoError(t, v.SetLayer(&Layer{Grid: gridOf([][]float64{{1, 2}, {3, 4}})}))

	_, ok, err := v.Hover(150, 150)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, v.Resize(Viewport{Width: 200, Height: 200}))
	p, ok, err := v.Hover(200, 200)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, p.Row)
	assert.Equal(t, 1, p.Col)
}

func TestView_SetLayerDropsProbe(t *testing.T) {
	v := NewView(Viewport{Width: 10, Height: 10})
	require.NoError(t, v.SetLayer(&Layer{Grid: gridOf([][]float64{{1}})}))
	_, ok, err := v.Hover(5, 5)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, v.SetLayer(&Layer{Grid: gridOf([][]float64{{2}})}))
	_, ok = v.Current()
	assert.False(t, ok)
}

func TestView_Close(t *testing.T) {
	v := NewView(Viewport{Width: 10, Height: 10})
	require.NoError(t, v.Close())

	assert.ErrorIs(t, v.Close(), ErrViewClosed)
	assert.ErrorIs(t, v.SetLayer(nil), ErrViewClosed)
	assert.ErrorIs(t, v.Resize(Viewport{}), ErrViewClosed)
	_, _, err := v.Hover(1, 1)
	assert.ErrorIs(t, err, ErrViewClosed)
	assert.Nil(t, v.Layer())
}

func TestView_ConcurrentHover(t *testing.T) {
	v := NewView(Viewport{Width: 100, Height: 100})
	require.NoError(t, v.SetLayer(&Layer{Grid: gridOf([][]float64{{1, 2}, {3, 4}})}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _, _ = v.Hover(float64(i*10), float64(j))
				_ = v.Resize(Viewport{Width: 100, Height: 100})
			}
		}(i)
	}
	wg.Wait()
}
