package mvt

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"

	"github.com/maptoolkit/maplibre-contour/internal/terrain"
)

// TerrainTypeKey is the feature attribute carrying the terrain
// classification of a contour segment.
const TerrainTypeKey = "terrain_type"

// EncodeOptions names the produced layer and its feature keys.
type EncodeOptions struct {
	Layer        string
	Extent       int
	ElevationKey string
	LevelKey     string
	Thresholds   []float64
}

// Encode serializes classified contour segments into a Mapbox vector
// tile holding a single LINESTRING layer. Coordinates are rounded to
// integers of the destination extent.
func Encode(classified map[float64][]terrain.Segment, opts EncodeOptions) ([]byte, error) {
	layer := &mvt.Layer{
		Name:    opts.Layer,
		Version: 2,
		Extent:  uint32(opts.Extent),
	}

	elevations := make([]float64, 0, len(classified))
	for ele := range classified {
		elevations = append(elevations, ele)
	}
	sort.Float64s(elevations)

	for _, ele := range elevations {
		for _, seg := range classified[ele] {
			if len(seg.Line) < 2 {
				continue
			}
			line := make(orb.LineString, len(seg.Line))
			for i, p := range seg.Line {
				line[i] = orb.Point{math.Round(p[0]), math.Round(p[1])}
			}
			f := geojson.NewFeature(line)
			f.Properties = geojson.Properties{
				opts.ElevationKey: int(math.Round(ele)),
				opts.LevelKey:     Level(ele, opts.Thresholds),
				TerrainTypeKey:    string(seg.Type),
			}
			layer.Features = append(layer.Features, f)
		}
	}

	return mvt.Marshal(mvt.Layers{layer})
}

// Level returns the index of the most important threshold dividing the
// elevation, or 0 when only the minor interval applies.
func Level(elevation float64, thresholds []float64) int {
	level := 0
	for i, t := range thresholds {
		if t > 0 && math.Mod(elevation, t) == 0 {
			level = i
		}
	}
	return level
}
