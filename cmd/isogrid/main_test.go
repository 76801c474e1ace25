package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const siteVTK = `<VTKFile type="PolyData"><PolyData><Piece><Points>
<DataArray format="ascii">0 0 0 1 0 0 2 0 0 0 0 1 1 0 1 2 0 1 0 0 2 1 0 2 2 0 2</DataArray>
</Points></Piece></PolyData></VTKFile>`

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	geometry := filepath.Join(dir, "site.vtp")
	measurements := filepath.Join(dir, "temps.json")
	require.NoError(t, os.WriteFile(geometry, []byte(siteVTK), 0o644))
	require.NoError(t, os.WriteFile(measurements, []byte(`["1 2 3", "4 5 6", "7 8 9"]`), 0o644))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("RENDER_WIDTH", "90")
	t.Setenv("RENDER_HEIGHT", "60")

	out := filepath.Join(dir, "out")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"render", "--geometry", geometry, "--measurements", measurements, "--out", out, "--levels", "2.5,5.5"})
	require.NoError(t, cmd.Execute())

	for _, name := range []string{"heatmap.png", "colorbar.png", "isolines.geojson"} {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	data, err := os.ReadFile(filepath.Join(out, "isolines.geojson"))
	require.NoError(t, err)
	var doc struct {
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Features, 2)
}

func TestRenderCommand_RequiresSources(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"render", "--out", t.TempDir()})
	assert.ErrorContains(t, cmd.Execute(), "GEOMETRY_URL")
}
