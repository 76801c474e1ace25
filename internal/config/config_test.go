package config

import (
	"testing"
	"time"

	isogrid "github.com/flywave/go-isogrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.GeometryURL)
	assert.Empty(t, cfg.MeasurementURL)
	assert.Equal(t, 0.0, cfg.GeometryRotation)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, "viridis", cfg.Colormap)
	assert.Equal(t, 8, cfg.IsolineLevels)
	assert.Equal(t, 800, cfg.RenderWidth)
	assert.Equal(t, 600, cfg.RenderHeight)
	assert.Equal(t, 0.99, cfg.ClipPercentile)
	assert.Equal(t, isogrid.NEAREST, cfg.Interpolator)
	assert.Equal(t, isogrid.GapFillStep, cfg.GapFill)
	assert.Equal(t, isogrid.CollisionLast, cfg.Collision)
	assert.Equal(t, isogrid.VariogramExponential, cfg.Variogram)
	assert.Equal(t, 0.0, cfg.ThinLeaf)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("GEOMETRY_URL", "http://example.test/site.vtp")
	t.Setenv("MEASUREMENT_URL", "file:///data/temps.csv")
	t.Setenv("GEOMETRY_ROTATION", "-90")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("REFRESH_INTERVAL", "1m")
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("COLORMAP", "coolwarm")
	t.Setenv("ISOLINE_LEVELS", "12")
	t.Setenv("RENDER_WIDTH", "1024")
	t.Setenv("RENDER_HEIGHT", "768")
	t.Setenv("CLIP_PERCENTILE", "1")
	t.Setenv("INTERPOLATOR", "bilinear")
	t.Setenv("GAP_FILL", "kriging")
	t.Setenv("COLLISION", "mean")
	t.Setenv("VARIOGRAM", "spherical")
	t.Setenv("THIN_LEAF", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://example.test/site.vtp", cfg.GeometryURL)
	assert.Equal(t, "file:///data/temps.csv", cfg.MeasurementURL)
	assert.Equal(t, -90.0, cfg.GeometryRotation)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, "coolwarm", cfg.Colormap)
	assert.Equal(t, 12, cfg.IsolineLevels)
	assert.Equal(t, 1024, cfg.RenderWidth)
	assert.Equal(t, 768, cfg.RenderHeight)
	assert.Equal(t, 1.0, cfg.ClipPercentile)
	assert.Equal(t, isogrid.BILINEAR, cfg.Interpolator)
	assert.Equal(t, isogrid.GapFillKriging, cfg.GapFill)
	assert.Equal(t, isogrid.CollisionMean, cfg.Collision)
	assert.Equal(t, isogrid.VariogramSpherical, cfg.Variogram)
	assert.Equal(t, 0.25, cfg.ThinLeaf)
	require.NoError(t, cfg.RequireSources())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SHUTDOWN_TIMEOUT", "soon"},
		{"FETCH_TIMEOUT", "-1s"},
		{"REFRESH_INTERVAL", "0s"},
		{"RETRY_ATTEMPTS", "0"},
		{"ISOLINE_LEVELS", "many"},
		{"RENDER_WIDTH", "-5"},
		{"CLIP_PERCENTILE", "1.5"},
		{"CLIP_PERCENTILE", "0"},
		{"GEOMETRY_ROTATION", "left"},
		{"COLORMAP", "rainbow"},
		{"INTERPOLATOR", "cubic"},
		{"GAP_FILL", "spline"},
		{"COLLISION", "first"},
		{"VARIOGRAM", "linear"},
		{"THIN_LEAF", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	t.Setenv("RENDER_WIDTH", "0")
	t.Setenv("RENDER_HEIGHT", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RENDER_WIDTH")
	assert.Contains(t, err.Error(), "RENDER_HEIGHT")
}

func TestRequireSources(t *testing.T) {
	cfg := &Config{}
	assert.ErrorContains(t, cfg.RequireSources(), "GEOMETRY_URL")

	cfg.GeometryURL = "site.vtp"
	assert.ErrorContains(t, cfg.RequireSources(), "MEASUREMENT_URL")
}

func TestBuildOptions(t *testing.T) {
	cfg := &Config{
		ClipPercentile: 0.95,
		IsolineLevels:  4,
		GapFill:        isogrid.GapFillDilate,
		Collision:      isogrid.CollisionMax,
		ThinLeaf:       2,
	}
	opts := cfg.BuildOptions()

	assert.Equal(t, 0.95, opts.Resample.ClipPercentile)
	assert.Equal(t, isogrid.GapFillDilate, opts.Resample.GapFill)
	assert.Equal(t, isogrid.CollisionMax, opts.Resample.Collision)
	assert.Equal(t, 4, opts.LevelCount)
	assert.Equal(t, 2.0, opts.Thin)
}
