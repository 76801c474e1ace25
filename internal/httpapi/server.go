// Package httpapi serves the current layer as PNG, GeoJSON and JSON probes,
// alongside health, readiness and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	isogrid "github.com/flywave/go-isogrid"
	"github.com/flywave/go-isogrid/internal/source"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LayerSource provides the layer to serve.
type LayerSource interface {
	Latest() (*isogrid.Layer, time.Time)
	CheckReadiness(ctx context.Context) error
	// Retry refreshes with bounded backoff. It returns
	// source.ErrSuperseded when a newer refresh overtook it.
	Retry(ctx context.Context) (*isogrid.Layer, error)
}

// Options configures what the server draws.
type Options struct {
	Colormap isogrid.Colormap
	Width    int
	Height   int
	Render   isogrid.RenderOptions
}

// Server exposes the layer endpoints.
type Server struct {
	httpServer *http.Server
	source     LayerSource
	opts       Options
	view       *isogrid.View
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the layer, probe, refresh, health,
// readiness and metrics routes.
func NewServer(addr string, src LayerSource, opts Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source: src,
		opts:   opts,
		view: isogrid.NewView(isogrid.Viewport{
			Width:  float64(opts.Width),
			Height: float64(opts.Height),
		}),
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(src))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /heatmap.png", s.handleHeatmap)
	mux.HandleFunc("GET /colorbar.png", s.handleColorbar)
	mux.HandleFunc("GET /isolines.geojson", s.handleIsolines)
	mux.HandleFunc("GET /probe", s.handleProbe)
	mux.HandleFunc("POST /refresh", s.handleRefresh)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the context deadline and releases the
// probe view.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.view.Close(); cerr != nil && !errors.Is(cerr, isogrid.ErrViewClosed) {
		err = errors.Join(err, cerr)
	}
	return err
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker LayerSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// layer returns the current non-empty layer or answers 503.
func (s *Server) layer(w http.ResponseWriter) (*isogrid.Layer, bool) {
	l, _ := s.source.Latest()
	if l.Empty() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no data"})
		return nil, false
	}
	return l, true
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	width, height, ok := size(w, r, s.opts.Width, s.opts.Height)
	if !ok {
		return
	}
	l, ok := s.layer(w)
	if !ok {
		return
	}
	s.writePNG(w, l.Render(s.opts.Colormap, width, height, s.opts.Render))
}

func (s *Server) handleColorbar(w http.ResponseWriter, r *http.Request) {
	width, height, ok := size(w, r, 256, 24)
	if !ok {
		return
	}
	l, ok := s.layer(w)
	if !ok {
		return
	}
	s.writePNG(w, isogrid.LabelledColorbar(s.opts.Colormap, l.Range, width, height))
}

func (s *Server) writePNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	if err := isogrid.EncodePNG(w, img); err != nil {
		s.logger.Error("encode png failed", "error", err)
	}
}

func (s *Server) handleIsolines(w http.ResponseWriter, _ *http.Request) {
	l, ok := s.layer(w)
	if !ok {
		return
	}
	data, err := isogrid.IsolinesGeoJSON(l.Grid, l.Isolines).MarshalJSON()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client went away
}

// probeResponse reports a hover hit. Value is null for an empty cell.
type probeResponse struct {
	Hit   bool     `json:"hit"`
	Row   int      `json:"row"`
	Col   int      `json:"col"`
	Value *float64 `json:"value"`
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "x and y must be numbers"})
		return
	}

	l, _ := s.source.Latest()
	if err := s.view.SetLayer(l); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	p, hit, err := s.view.Hover(x, y)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}

	resp := probeResponse{Hit: hit}
	if hit {
		resp.Row, resp.Col = p.Row, p.Col
		if p.Valid && !math.IsNaN(p.Value) {
			v := p.Value
			resp.Value = &v
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	l, err := s.source.Retry(r.Context())
	if errors.Is(err, source.ErrSuperseded) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Warn("manual refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":     l.Grid.Rows,
		"cols":     l.Grid.Cols,
		"segments": l.Segments(),
		"min":      l.Range.Min,
		"max":      l.Range.Max,
	})
}

// size reads optional width and height query parameters.
func size(w http.ResponseWriter, r *http.Request, defW, defH int) (int, int, bool) {
	width, height := defW, defH
	for _, p := range []struct {
		key string
		dst *int
	}{{"width", &width}, {"height", &height}} {
		s := r.URL.Query().Get(p.key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 8192 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + p.key})
			return 0, 0, false
		}
		*p.dst = n
	}
	return width, height, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
