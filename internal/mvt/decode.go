package mvt

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"

	"github.com/maptoolkit/maplibre-contour/internal/terrain"
)

// TerrainLayerConfig describes where terrain polygons live in a
// companion vector tile and how the feature type attribute maps onto
// terrain types.
type TerrainLayerConfig struct {
	SourceLayer   string
	TypeKey       string
	GlacierValues []string
	RockValues    []string
}

// DefaultTerrainLayerConfig fills the conventional attribute mapping
// for a source layer.
func DefaultTerrainLayerConfig(sourceLayer string) TerrainLayerConfig {
	return TerrainLayerConfig{
		SourceLayer:   sourceLayer,
		TypeKey:       "type",
		GlacierValues: []string{"ice", "glacier"},
		RockValues:    []string{"rock", "bare_rock", "scree"},
	}
}

// DecodeTerrainPolygons parses glacier and rock polygons out of vector
// tile bytes. Coordinates come back normalized to [0,1] of the layer
// extent. A missing source layer yields no polygons; rock polygons sort
// ahead of glacier ones so rock wins where both cover a vertex.
func DecodeTerrainPolygons(data []byte, cfg TerrainLayerConfig) ([]terrain.Polygon, error) {
	layers, err := mvt.Unmarshal(data)
	if err != nil {
		layers, err = mvt.UnmarshalGzipped(data)
		if err != nil {
			return nil, fmt.Errorf("parse vector tile: %w", err)
		}
	}

	var layer *mvt.Layer
	for _, l := range layers {
		if l.Name == cfg.SourceLayer {
			layer = l
			break
		}
	}
	if layer == nil {
		return nil, nil
	}
	extent := float64(layer.Extent)
	if extent <= 0 {
		extent = float64(mvt.DefaultExtent)
	}

	var rock, glacier []terrain.Polygon
	for _, f := range layer.Features {
		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			continue
		}

		val, _ := f.Properties[cfg.TypeKey].(string)
		var typ terrain.Type
		switch {
		case slices.Contains(cfg.RockValues, val):
			typ = terrain.TypeRock
		case slices.Contains(cfg.GlacierValues, val):
			typ = terrain.TypeGlacier
		default:
			continue
		}

		mp = mp.Clone()
		for _, poly := range mp {
			for _, ring := range poly {
				for i, p := range ring {
					ring[i] = orb.Point{p[0] / extent, p[1] / extent}
				}
			}
		}

		p := terrain.Polygon{Geom: mp, Type: typ}
		if typ == terrain.TypeRock {
			rock = append(rock, p)
		} else {
			glacier = append(glacier, p)
		}
	}
	return append(rock, glacier...), nil
}
