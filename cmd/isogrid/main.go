package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	isogrid "github.com/flywave/go-isogrid"
	"github.com/flywave/go-isogrid/internal/config"
	"github.com/flywave/go-isogrid/internal/httpapi"
	"github.com/flywave/go-isogrid/internal/observability"
	"github.com/flywave/go-isogrid/internal/source"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "isogrid",
		Short:         "Resample scattered measurements into heatmaps and isolines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var cfg *config.Config
	var logger *slog.Logger
	root.PersistentFlags().String("geometry", "", "geometry location, overrides GEOMETRY_URL")
	root.PersistentFlags().String("measurements", "", "measurement location, overrides MEASUREMENT_URL")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			slog.Error("failed to load config", "error", err)
			return err
		}
		if v, _ := cmd.Flags().GetString("geometry"); v != "" {
			cfg.GeometryURL = v
		}
		if v, _ := cmd.Flags().GetString("measurements"); v != "" {
			cfg.MeasurementURL = v
		}
		logger = observability.NewLogger(cfg)
		if err := cfg.RequireSources(); err != nil {
			logger.Error("missing source", "error", err)
			return err
		}
		return nil
	}

	env := func() (*config.Config, *slog.Logger) { return cfg, logger }
	root.AddCommand(newRenderCmd(env), newServeCmd(env))
	return root
}

type setup func() (*config.Config, *slog.Logger)

func newRenderCmd(env setup) *cobra.Command {
	var (
		outDir string
		levels []float64
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch the sources once and write heatmap.png, colorbar.png and isolines.geojson",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := env()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := source.NewClient(cfg.FetchTimeout, isogrid.Rotator{Degrees: cfg.GeometryRotation}, logger)
			samples, err := client.FetchSamples(ctx, cfg.GeometryURL, cfg.MeasurementURL)
			if err != nil {
				return err
			}

			opts := cfg.BuildOptions()
			opts.Levels = levels
			layer := isogrid.Build(samples, opts)
			if layer.Empty() {
				return errors.New("no finite samples to render")
			}
			cmap, err := isogrid.LookupColormap(cfg.Colormap)
			if err != nil {
				return err
			}
			return writeOutputs(outDir, layer, cmap, cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().Float64SliceVar(&levels, "levels", nil, "explicit isoline levels, comma separated")
	return cmd
}

func writeOutputs(dir string, layer *isogrid.Layer, cmap isogrid.Colormap, cfg *config.Config, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	heatmap := layer.Render(cmap, cfg.RenderWidth, cfg.RenderHeight, isogrid.RenderOptions{
		Interpolator: cfg.Interpolator,
	})
	if err := writePNG(filepath.Join(dir, "heatmap.png"), heatmap); err != nil {
		return err
	}
	bar := isogrid.LabelledColorbar(cmap, layer.Range, cfg.RenderWidth, 24)
	if err := writePNG(filepath.Join(dir, "colorbar.png"), bar); err != nil {
		return err
	}

	data, err := isogrid.IsolinesGeoJSON(layer.Grid, layer.Isolines).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode isolines: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "isolines.geojson"), data, 0o644); err != nil {
		return fmt.Errorf("write isolines: %w", err)
	}

	logger.Info("outputs written",
		"dir", dir,
		"rows", layer.Grid.Rows,
		"cols", layer.Grid.Cols,
		"segments", layer.Segments(),
	)
	return nil
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := isogrid.EncodePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

func newServeCmd(env setup) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Refresh the layer periodically and serve it over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := env()
			cmap, err := isogrid.LookupColormap(cfg.Colormap)
			if err != nil {
				return err
			}
			metrics := observability.NewMetrics()

			client := source.NewClient(cfg.FetchTimeout, isogrid.Rotator{Degrees: cfg.GeometryRotation}, logger)
			refresher := source.NewRefresher(client, source.RefresherConfig{
				GeometryLoc:    cfg.GeometryURL,
				MeasurementLoc: cfg.MeasurementURL,
				Build:          cfg.BuildOptions(),
				Attempts:       cfg.RetryAttempts,
			}, logger, metrics)

			srv := httpapi.NewServer(cfg.HTTPAddr, refresher, httpapi.Options{
				Colormap: cmap,
				Width:    cfg.RenderWidth,
				Height:   cfg.RenderHeight,
				Render:   isogrid.RenderOptions{Interpolator: cfg.Interpolator},
			}, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server error", "error", err)
				}
			}()

			go func() {
				if err := refresher.Run(ctx, cfg.RefreshInterval); err != nil {
					logger.Error("refresher error", "error", err)
				}
			}()

			<-ctx.Done()
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
}
