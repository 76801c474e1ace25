package isogrid

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// IsolinesGeoJSON converts isolines to a feature collection in world
// coordinates, one MultiLineString feature per level with a "level"
// property. Levels without segments are omitted. The collection's bbox is
// the grid extent.
func IsolinesGeoJSON(g *Grid, isolines []Isoline) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if !g.Empty() {
		r := g.GetRect()
		fc.BBox = geojson.NewBBox(orb.Bound{
			Min: orb.Point{r.Min[0], r.Min[1]},
			Max: orb.Point{r.Max[0], r.Max[1]},
		})
	}
	for _, iso := range isolines {
		if len(iso.Segments) == 0 {
			continue
		}
		world := iso.World(g)
		lines := make(orb.MultiLineString, len(world.Segments))
		for i, s := range world.Segments {
			lines[i] = orb.LineString{
				orb.Point{s[0][0], s[0][1]},
				orb.Point{s[1][0], s[1][1]},
			}
		}
		f := geojson.NewFeature(lines)
		f.Properties["level"] = iso.Level
		f.Properties["segments"] = len(lines)
		fc.Append(f)
	}
	return fc
}
