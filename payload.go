package isogrid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// PayloadKind tags the shape of a measurement payload node.
type PayloadKind int

const (
	// StringRow is a whitespace-delimited row of numbers, e.g. "20.1 20.4".
	StringRow PayloadKind = iota
	// NumericArray is a JSON array of numbers.
	NumericArray
	// Scalar is a single number. JSON null decodes to a NaN scalar.
	Scalar
	// Nested is an array of other nodes, or an object keyed by index.
	Nested
)

func (k PayloadKind) String() string {
	switch k {
	case StringRow:
		return "string-row"
	case NumericArray:
		return "numeric-array"
	case Scalar:
		return "scalar"
	case Nested:
		return "nested"
	default:
		return "unknown"
	}
}

// Payload is a measurement document resolved into a tagged union. Only the
// field matching Kind is set.
type Payload struct {
	Kind    PayloadKind
	Row     string
	Numbers []float64
	Scalar  float64
	Items   []Payload
}

// DecodePayload resolves a JSON measurement document.
func DecodePayload(data []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	return normalizePayload(raw)
}

func normalizePayload(raw interface{}) (Payload, error) {
	switch v := raw.(type) {
	case nil:
		return Payload{Kind: Scalar, Scalar: math.NaN()}, nil
	case json.Number:
		return Payload{Kind: Scalar, Scalar: parseNumber(string(v))}, nil
	case string:
		return Payload{Kind: StringRow, Row: v}, nil
	case []interface{}:
		if nums, ok := numericArray(v); ok {
			return Payload{Kind: NumericArray, Numbers: nums}, nil
		}
		return nestedPayload(v)
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sortIndexKeys(keys)
		items := make([]interface{}, len(keys))
		for i, k := range keys {
			items[i] = v[k]
		}
		return nestedPayload(items)
	default:
		return Payload{}, fmt.Errorf("decode payload: unsupported value of type %T", raw)
	}
}

func nestedPayload(items []interface{}) (Payload, error) {
	p := Payload{Kind: Nested, Items: make([]Payload, 0, len(items))}
	for i, item := range items {
		child, err := normalizePayload(item)
		if err != nil {
			return Payload{}, fmt.Errorf("item %d: %w", i, err)
		}
		p.Items = append(p.Items, child)
	}
	return p, nil
}

// numericArray succeeds only for non-empty arrays of numbers.
func numericArray(items []interface{}) ([]float64, bool) {
	if len(items) == 0 {
		return nil, false
	}
	nums := make([]float64, len(items))
	for i, item := range items {
		n, ok := item.(json.Number)
		if !ok {
			return nil, false
		}
		nums[i] = parseNumber(string(n))
	}
	return nums, true
}

// sortIndexKeys orders numeric keys by value, then any other keys
// lexicographically.
func sortIndexKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, errA := strconv.ParseFloat(keys[i], 64)
		b, errB := strconv.ParseFloat(keys[j], 64)
		switch {
		case errA == nil && errB == nil:
			if a != b {
				return a < b
			}
			return keys[i] < keys[j]
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Flatten returns the payload's numbers in document order. Tokens that are
// not numbers become NaN.
func (p Payload) Flatten() []float64 {
	var out []float64
	p.appendTo(&out)
	return out
}

func (p Payload) appendTo(out *[]float64) {
	switch p.Kind {
	case StringRow:
		for _, f := range strings.Fields(p.Row) {
			*out = append(*out, parseNumber(f))
		}
	case NumericArray:
		*out = append(*out, p.Numbers...)
	case Scalar:
		*out = append(*out, p.Scalar)
	case Nested:
		for _, item := range p.Items {
			item.appendTo(out)
		}
	}
}
