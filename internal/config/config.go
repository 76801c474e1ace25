package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	isogrid "github.com/flywave/go-isogrid"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	GeometryURL    string
	MeasurementURL string
	// GeometryRotation turns site geometry, in degrees, before projection.
	GeometryRotation float64

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	FetchTimeout    time.Duration
	RefreshInterval time.Duration
	RetryAttempts   int

	Colormap       string
	IsolineLevels  int
	RenderWidth    int
	RenderHeight   int
	ClipPercentile float64
	Interpolator   string

	GapFill   isogrid.GapFill
	Collision isogrid.CollisionPolicy
	Variogram isogrid.VariogramModel
	ThinLeaf  float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		GeometryURL:    os.Getenv("GEOMETRY_URL"),
		MeasurementURL: os.Getenv("MEASUREMENT_URL"),
		HTTPAddr:       envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("LOG_FORMAT", "json"),
		Colormap:       envOrDefault("COLORMAP", isogrid.DefaultColormap),
		Interpolator:   envOrDefault("INTERPOLATOR", isogrid.NEAREST),
		GapFill:        isogrid.GapFill(envOrDefault("GAP_FILL", string(isogrid.GapFillStep))),
		Collision:      isogrid.CollisionPolicy(envOrDefault("COLLISION", string(isogrid.CollisionLast))),
		Variogram:      isogrid.VariogramModel(envOrDefault("VARIOGRAM", string(isogrid.VariogramExponential))),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
		{"FETCH_TIMEOUT", "10s", &cfg.FetchTimeout},
		{"REFRESH_INTERVAL", "5m", &cfg.RefreshInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(envOrDefault(d.key, d.def))
		if err != nil || v <= 0 {
			errs = append(errs, fmt.Errorf("invalid %s", d.key))
			continue
		}
		*d.dst = v
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"RETRY_ATTEMPTS", 3, &cfg.RetryAttempts},
		{"ISOLINE_LEVELS", isogrid.DefaultLevelCount, &cfg.IsolineLevels},
		{"RENDER_WIDTH", 800, &cfg.RenderWidth},
		{"RENDER_HEIGHT", 600, &cfg.RenderHeight},
	}
	for _, i := range ints {
		n, err := parseInt(i.key, i.def)
		if err != nil || n < 1 {
			errs = append(errs, fmt.Errorf("invalid %s", i.key))
			continue
		}
		*i.dst = n
	}

	clip, err := parseFloat("CLIP_PERCENTILE", isogrid.DefaultClipPercentile)
	if err != nil || clip <= 0 || clip > 1 {
		errs = append(errs, errors.New("invalid CLIP_PERCENTILE"))
	}
	cfg.ClipPercentile = clip

	rot, err := parseFloat("GEOMETRY_ROTATION", 0)
	if err != nil {
		errs = append(errs, errors.New("invalid GEOMETRY_ROTATION"))
	}
	cfg.GeometryRotation = rot

	thin, err := parseFloat("THIN_LEAF", 0)
	if err != nil || thin < 0 {
		errs = append(errs, errors.New("invalid THIN_LEAF"))
	}
	cfg.ThinLeaf = thin

	switch cfg.GapFill {
	case isogrid.GapFillStep, isogrid.GapFillNone, isogrid.GapFillDilate, isogrid.GapFillKriging:
	default:
		errs = append(errs, fmt.Errorf("invalid GAP_FILL %q", cfg.GapFill))
	}
	switch cfg.Collision {
	case isogrid.CollisionLast, isogrid.CollisionMean, isogrid.CollisionMax:
	default:
		errs = append(errs, fmt.Errorf("invalid COLLISION %q", cfg.Collision))
	}
	switch cfg.Variogram {
	case isogrid.VariogramGaussian, isogrid.VariogramExponential, isogrid.VariogramSpherical:
	default:
		errs = append(errs, fmt.Errorf("invalid VARIOGRAM %q", cfg.Variogram))
	}

	if _, err := isogrid.LookupColormap(cfg.Colormap); err != nil {
		errs = append(errs, fmt.Errorf("invalid COLORMAP: %w", err))
	}
	switch cfg.Interpolator {
	case isogrid.NEAREST, isogrid.BILINEAR, isogrid.HYPERBOLIC:
	default:
		errs = append(errs, fmt.Errorf("invalid INTERPOLATOR %q", cfg.Interpolator))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireSources checks that both data sources are configured.
func (c *Config) RequireSources() error {
	if c.GeometryURL == "" {
		return errors.New("GEOMETRY_URL is required")
	}
	if c.MeasurementURL == "" {
		return errors.New("MEASUREMENT_URL is required")
	}
	return nil
}

// BuildOptions maps the rendering settings onto the pipeline options.
func (c *Config) BuildOptions() isogrid.BuildOptions {
	return isogrid.BuildOptions{
		Resample: isogrid.Options{
			ClipPercentile: c.ClipPercentile,
			Collision:      c.Collision,
			GapFill:        c.GapFill,
			Variogram:      c.Variogram,
		},
		LevelCount: c.IsolineLevels,
		Thin:       c.ThinLeaf,
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	return strconv.ParseFloat(s, 64)
}
