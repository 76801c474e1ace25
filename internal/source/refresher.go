package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	isogrid "github.com/flywave/go-isogrid"
	"github.com/flywave/go-isogrid/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrSuperseded is returned by a refresh whose result was discarded because
// a newer refresh, or a Clear, started after it.
var ErrSuperseded = errors.New("refresh superseded by a newer request")

// SampleFetcher loads one sample set from the two source documents.
type SampleFetcher interface {
	FetchSamples(ctx context.Context, geometryLoc, measurementLoc string) (isogrid.Samples, error)
}

// Refresher keeps the latest layer built from the sources. Only the most
// recently started refresh may publish its layer; older ones that finish
// later are dropped.
type Refresher struct {
	fetcher        SampleFetcher
	geometryLoc    string
	measurementLoc string
	opts           isogrid.BuildOptions
	attempts       int
	logger         *slog.Logger
	metrics        *observability.Metrics
	clock          clockwork.Clock

	// NewBackOff returns the retry schedule for one Retry call.
	NewBackOff func() backoff.BackOff

	generation atomic.Uint64

	mu      sync.RWMutex
	layer   *isogrid.Layer
	builtAt time.Time
}

// RefresherConfig gathers the Refresher's settings.
type RefresherConfig struct {
	GeometryLoc    string
	MeasurementLoc string
	Build          isogrid.BuildOptions
	// Attempts bounds Retry, counting the first try.
	Attempts int
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// NewRefresher creates a Refresher. It holds no layer until the first
// successful refresh.
func NewRefresher(f SampleFetcher, cfg RefresherConfig, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	r := &Refresher{
		fetcher:        f,
		geometryLoc:    cfg.GeometryLoc,
		measurementLoc: cfg.MeasurementLoc,
		opts:           cfg.Build,
		attempts:       attempts,
		logger:         logger,
		metrics:        metrics,
		clock:          clock,
	}
	r.NewBackOff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 500 * time.Millisecond
		b.MaxInterval = 10 * time.Second
		b.MaxElapsedTime = 0
		b.Clock = clock
		return b
	}
	return r
}

// Refresh fetches the sources once, builds a layer and publishes it. It
// returns ErrSuperseded when a newer refresh or Clear began meanwhile.
func (r *Refresher) Refresh(ctx context.Context) (*isogrid.Layer, error) {
	gen := r.generation.Add(1)

	start := r.clock.Now()
	samples, err := r.fetcher.FetchSamples(ctx, r.geometryLoc, r.measurementLoc)
	r.metrics.FetchDuration.Observe(r.clock.Since(start).Seconds())
	if err != nil {
		if r.generation.Load() != gen {
			return nil, r.superseded(gen)
		}
		r.metrics.Refreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("refresh: %w", err)
	}

	layer := isogrid.Build(samples, r.opts)

	r.mu.Lock()
	if r.generation.Load() != gen {
		r.mu.Unlock()
		return nil, r.superseded(gen)
	}
	r.layer = layer
	r.builtAt = r.clock.Now()
	r.metrics.GridCells.Set(float64(layer.Grid.Rows * layer.Grid.Cols))
	r.metrics.FilledCells.Set(float64(layer.Grid.Filled()))
	r.metrics.Segments.Set(float64(layer.Segments()))
	r.metrics.LayerReady.Set(1)
	r.mu.Unlock()

	r.metrics.Refreshes.WithLabelValues("success").Inc()
	r.logger.Info("layer refreshed",
		"samples", len(samples),
		"rows", layer.Grid.Rows,
		"cols", layer.Grid.Cols,
		"segments", layer.Segments(),
	)
	return layer, nil
}

func (r *Refresher) superseded(gen uint64) error {
	r.metrics.Refreshes.WithLabelValues("superseded").Inc()
	r.logger.Debug("refresh result discarded", "generation", gen)
	return ErrSuperseded
}

// Retry calls Refresh until it succeeds, the attempts run out or ctx ends.
// A superseded refresh is not retried.
func (r *Refresher) Retry(ctx context.Context) (*isogrid.Layer, error) {
	var layer *isogrid.Layer
	op := func() error {
		l, err := r.Refresh(ctx)
		if errors.Is(err, ErrSuperseded) {
			return backoff.Permanent(err)
		}
		if err != nil {
			return err
		}
		layer = l
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.NewBackOff(), uint64(r.attempts-1)), ctx)
	notify := func(err error, wait time.Duration) {
		r.logger.Warn("refresh failed, retrying", "error", err, "wait", wait)
	}
	if err := backoff.RetryNotifyWithTimer(op, b, notify, &clockTimer{clock: r.clock}); err != nil {
		return nil, err
	}
	return layer, nil
}

// Run refreshes immediately and then every interval until ctx is cancelled.
// Failures are logged; the previous layer stays published.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) error {
	r.logger.Info("refresher started", "interval", interval)

	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, err := r.Retry(ctx)
		switch {
		case err == nil, ctx.Err() != nil:
		case errors.Is(err, ErrSuperseded):
			r.logger.Debug("scheduled refresh overtaken")
		default:
			r.logger.Error("refresh failed", "error", err)
		}
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// Latest returns the published layer and when it was built. The layer is
// nil before the first successful refresh.
func (r *Refresher) Latest() (*isogrid.Layer, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.layer, r.builtAt
}

// Clear drops the published layer and discards any refresh in flight.
func (r *Refresher) Clear() {
	r.mu.Lock()
	r.generation.Add(1)
	r.layer = nil
	r.builtAt = time.Time{}
	r.metrics.LayerReady.Set(0)
	r.mu.Unlock()
}

// CheckReadiness returns nil once a layer has been published.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if l, _ := r.Latest(); l == nil {
		return errors.New("no layer has been built yet")
	}
	return nil
}

// clockTimer drives backoff waits from a clockwork clock.
type clockTimer struct {
	clock clockwork.Clock
	timer clockwork.Timer
	c     <-chan time.Time
}

func (t *clockTimer) Start(d time.Duration) {
	if d <= 0 {
		ch := make(chan time.Time, 1)
		ch <- t.clock.Now()
		t.timer, t.c = nil, ch
		return
	}
	t.timer = t.clock.NewTimer(d)
	t.c = t.timer.Chan()
}

func (t *clockTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *clockTimer) C() <-chan time.Time {
	return t.c
}
