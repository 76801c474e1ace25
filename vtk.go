package isogrid

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	vec2d "github.com/flywave/go3d/float64/vec2"
	vec3d "github.com/flywave/go3d/float64/vec3"
)

var ErrUnsupportedFormat = errors.New("isogrid: unsupported data array format")

// ParseVTKPoints reads the point coordinates of the first piece of a VTK
// XML file (PolyData, UnstructuredGrid or StructuredGrid). Only ASCII data
// arrays are supported. A trailing partial triple is dropped.
func ParseVTKPoints(r io.Reader) ([]vec3d.T, error) {
	dec := xml.NewDecoder(r)

	var (
		inPoints bool
		inArray  bool
		text     strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse vtk: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "Points":
				inPoints = true
			case inPoints && t.Name.Local == "DataArray":
				if f := attr(t, "format"); f != "" && f != "ascii" {
					return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
				}
				inArray = true
			}
		case xml.CharData:
			if inArray {
				text.Write(t)
			}
		case xml.EndElement:
			switch {
			case inArray && t.Name.Local == "DataArray":
				return triples(text.String())
			case t.Name.Local == "Points":
				inPoints = false
			}
		}
	}
	return nil, errors.New("parse vtk: no Points data array")
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func triples(text string) ([]vec3d.T, error) {
	fields := strings.Fields(text)
	points := make([]vec3d.T, 0, len(fields)/3)
	for i := 0; i+2 < len(fields); i += 3 {
		var p vec3d.T
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[i+k], 64)
			if err != nil {
				return nil, fmt.Errorf("parse vtk: point %d: %w", i/3, err)
			}
			p[k] = v
		}
		points = append(points, p)
	}
	return points, nil
}

// ProjectTopDown drops the vertical (y) component of each point, keeping
// (x, z), after turning the plane by rot.
func ProjectTopDown(points []vec3d.T, rot Rotator) []vec2d.T {
	out := make([]vec2d.T, len(points))
	for i, p := range points {
		out[i] = rot.RotateVector(vec2d.T{p[0], p[2]})
	}
	return out
}

// Join pairs point i with value i, up to the shorter of the two.
func Join(points []vec2d.T, values []float64) Samples {
	n := min(len(points), len(values))
	out := make(Samples, n)
	for i := 0; i < n; i++ {
		out[i] = vec3d.T{points[i][0], points[i][1], values[i]}
	}
	return out
}
