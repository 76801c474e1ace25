package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	isogrid "github.com/flywave/go-isogrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareVTK = `<VTKFile type="PolyData"><PolyData><Piece><Points>
<DataArray type="Float32" NumberOfComponents="3" format="ascii">
0 9 0  1 9 0  0 9 1  1 9 1
</DataArray></Points></Piece></PolyData></VTKFile>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient() *Client {
	return NewClient(time.Second, isogrid.ZERO(), discardLogger())
}

func newSourceServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/site.vtp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, squareVTK) //nolint:errcheck
	})
	mux.HandleFunc("/temps.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `["10 20", "30 40"]`) //nolint:errcheck
	})
	mux.HandleFunc("/temps", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		io.WriteString(w, "value\n10\n20\n30\n40\n") //nolint:errcheck
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSamples_HTTP(t *testing.T) {
	srv := newSourceServer(t)
	c := newTestClient()

	for _, measurements := range []string{"/temps.json", "/temps"} {
		t.Run(measurements, func(t *testing.T) {
			samples, err := c.FetchSamples(context.Background(), srv.URL+"/site.vtp", srv.URL+measurements)
			require.NoError(t, err)
			assert.Equal(t, isogrid.Samples{{0, 0, 10}, {1, 0, 20}, {0, 1, 30}, {1, 1, 40}}, samples)
		})
	}
}

func TestFetchSamples_Files(t *testing.T) {
	dir := t.TempDir()
	geometry := filepath.Join(dir, "site.vtu")
	measurements := filepath.Join(dir, "temps.csv")
	require.NoError(t, os.WriteFile(geometry, []byte(squareVTK), 0o644))
	require.NoError(t, os.WriteFile(measurements, []byte("10,20\n30\n"), 0o644))

	samples, err := newTestClient().FetchSamples(context.Background(), "file://"+geometry, measurements)
	require.NoError(t, err)
	assert.Equal(t, isogrid.Samples{{0, 0, 10}, {1, 0, 20}, {0, 1, 30}}, samples)
}

func TestFetchGeometry_Rotated(t *testing.T) {
	srv := newSourceServer(t)
	c := NewClient(time.Second, isogrid.Rotator{Degrees: 180}, discardLogger())

	samples, err := c.FetchSamples(context.Background(), srv.URL+"/site.vtp", srv.URL+"/temps.json")
	require.NoError(t, err)
	require.Len(t, samples, 4)
	assert.InDelta(t, -1, samples[3][0], 1e-12)
	assert.InDelta(t, -1, samples[3][1], 1e-12)
	assert.Equal(t, 40.0, samples[3][2])
}

func TestFetch_Errors(t *testing.T) {
	srv := newSourceServer(t)
	c := newTestClient()
	ctx := context.Background()

	_, err := c.FetchGeometry(ctx, srv.URL+"/broken")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upstream down", se.Body)

	_, err = c.FetchGeometry(ctx, srv.URL+"/temps.json")
	assert.Error(t, err)

	_, err = c.FetchMeasurements(ctx, "ftp://example.test/x")
	assert.ErrorContains(t, err, "unsupported scheme")

	_, err = c.FetchMeasurements(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.FetchGeometry(cancelled, srv.URL+"/site.vtp")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsCSV(t *testing.T) {
	assert.True(t, isCSV("http://x.test/a.CSV?v=1", ""))
	assert.True(t, isCSV("http://x.test/a", "text/csv"))
	assert.False(t, isCSV("http://x.test/a.json", "application/json"))
	assert.False(t, isCSV("/data/readings", ""))
}
