package isogrid

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload_Kinds(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind PayloadKind
		want []float64
	}{
		{"string row", `"20.1 20.4  21"`, StringRow, []float64{20.1, 20.4, 21}},
		{"numeric array", `[1, 2.5, -3]`, NumericArray, []float64{1, 2.5, -3}},
		{"scalar", `42`, Scalar, []float64{42}},
		{"nested rows", `["1 2", "3 4"]`, Nested, []float64{1, 2, 3, 4}},
		{"nested arrays", `[[1, 2], [3], 4]`, Nested, []float64{1, 2, 3, 4}},
		{"index keyed object", `{"10": [5], "2": "3 4", "0": 1}`, Nested, []float64{1, 3, 4, 5}},
		{"empty array", `[]`, Nested, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodePayload([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.want, p.Flatten())
		})
	}
}

func TestDecodePayload_NotANumber(t *testing.T) {
	p, err := DecodePayload([]byte(`["1 n/a 3", null]`))
	require.NoError(t, err)

	values := p.Flatten()
	require.Len(t, values, 4)
	assert.Equal(t, 1.0, values[0])
	assert.True(t, math.IsNaN(values[1]))
	assert.Equal(t, 3.0, values[2])
	assert.True(t, math.IsNaN(values[3]))
}

func TestDecodePayload_Errors(t *testing.T) {
	for _, doc := range []string{`{`, `true`, `[1, [false]]`, ``} {
		_, err := DecodePayload([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestPayloadKind_String(t *testing.T) {
	assert.Equal(t, "string-row", StringRow.String())
	assert.Equal(t, "nested", Nested.String())
	assert.Equal(t, "unknown", PayloadKind(42).String())
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []float64
	}{
		{"one per line", "1\n2\n3\n", []float64{1, 2, 3}},
		{"header skipped", "temperature\n20.5\n21\n", []float64{20.5, 21}},
		{"mixed separators", "1,2;3 4\t5\n\n6", []float64{1, 2, 3, 4, 5, 6}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSV(strings.NewReader(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCSV_BadTokensBecomeNaN(t *testing.T) {
	got, err := ParseCSV(strings.NewReader("1,2\nx,4\n"))
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, math.IsNaN(got[2]))
	assert.Equal(t, 4.0, got[3])
}
