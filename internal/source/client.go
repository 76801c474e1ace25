// Package source fetches site geometry and measurements and turns them into
// rendered layers.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	isogrid "github.com/flywave/go-isogrid"
	vec3d "github.com/flywave/go3d/float64/vec3"
)

// maxBody bounds a single download.
const maxBody = 64 << 20

// StatusError is returned when a source answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client downloads geometry and measurement documents. Locations may be
// http(s) URLs, file:// URLs or plain paths.
type Client struct {
	httpClient *http.Client
	rotation   isogrid.Rotator
	logger     *slog.Logger
}

// NewClient creates a client whose HTTP requests time out after timeout.
func NewClient(timeout time.Duration, rotation isogrid.Rotator, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		rotation:   rotation,
		logger:     logger,
	}
}

// FetchGeometry downloads a VTK XML document and returns its points.
func (c *Client) FetchGeometry(ctx context.Context, loc string) ([]vec3d.T, error) {
	body, _, err := c.open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	points, err := isogrid.ParseVTKPoints(io.LimitReader(body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("geometry %s: %w", loc, err)
	}
	c.logger.Debug("geometry fetched", "location", loc, "points", len(points))
	return points, nil
}

// FetchMeasurements downloads a measurement document, JSON or CSV, and
// returns its flattened values. CSV is chosen by a .csv suffix or a
// text/csv content type.
func (c *Client) FetchMeasurements(ctx context.Context, loc string) ([]float64, error) {
	body, contentType, err := c.open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	r := io.LimitReader(body, maxBody)
	var values []float64
	if isCSV(loc, contentType) {
		values, err = isogrid.ParseCSV(r)
	} else {
		var data []byte
		data, err = io.ReadAll(r)
		if err == nil {
			var p isogrid.Payload
			p, err = isogrid.DecodePayload(data)
			values = p.Flatten()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("measurements %s: %w", loc, err)
	}
	c.logger.Debug("measurements fetched", "location", loc, "values", len(values))
	return values, nil
}

// FetchSamples fetches both documents and joins them into samples. A
// length mismatch is logged and the surplus dropped.
func (c *Client) FetchSamples(ctx context.Context, geometryLoc, measurementLoc string) (isogrid.Samples, error) {
	points, err := c.FetchGeometry(ctx, geometryLoc)
	if err != nil {
		return nil, err
	}
	values, err := c.FetchMeasurements(ctx, measurementLoc)
	if err != nil {
		return nil, err
	}
	if len(points) != len(values) {
		c.logger.Warn("geometry and measurement lengths differ",
			"points", len(points),
			"values", len(values),
		)
	}
	return isogrid.Join(isogrid.ProjectTopDown(points, c.rotation), values), nil
}

func (c *Client) open(ctx context.Context, loc string) (io.ReadCloser, string, error) {
	u, err := url.Parse(loc)
	if err != nil {
		return nil, "", fmt.Errorf("parse location %q: %w", loc, err)
	}

	switch u.Scheme {
	case "http", "https":
	case "file":
		return openFile(u.Path)
	case "":
		return openFile(loc)
	default:
		return nil, "", fmt.Errorf("location %q: unsupported scheme %q", loc, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", loc, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", &StatusError{URL: loc, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func openFile(name string) (io.ReadCloser, string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", name, err)
	}
	return f, "", nil
}

func isCSV(loc, contentType string) bool {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "text/csv" {
			return true
		}
	}
	if u, err := url.Parse(loc); err == nil && u.Path != "" {
		loc = u.Path
	}
	return strings.EqualFold(path.Ext(loc), ".csv")
}

// IsStatus reports whether err carries a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
