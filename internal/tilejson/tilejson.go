package tilejson

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
)

// VectorLayer represents a vector layer of a tile.json
type VectorLayer struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// TileJSON represents a tile.json
type TileJSON struct {
	TileJSON     string        `json:"tilejson"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Scheme       string        `json:"scheme"`
	Tiles        []string      `json:"tiles,omitempty"`
	Minzoom      uint8         `json:"minzoom"`
	Maxzoom      uint8         `json:"maxzoom"`
	VectorLayers []VectorLayer `json:"vector_layers,omitempty"`
}

// ForContours builds the tile.json document describing a contour
// tileset whose single layer carries the given attribute keys.
func ForContours(name, layerName, elevationKey, levelKey string, minZoom, maxZoom uint8, tiles []string) TileJSON {
	return TileJSON{
		TileJSON:    "2.2.0",
		Name:        fmt.Sprintf("%s Contour Tiles", name),
		Description: fmt.Sprintf("Elevation contour lines of %s as Mapbox Vector Tiles", name),
		Scheme:      "xyz",
		Tiles:       tiles,
		Minzoom:     minZoom,
		Maxzoom:     maxZoom,
		VectorLayers: []VectorLayer{
			{
				ID: layerName,
				Fields: map[string]string{
					elevationKey:   "Number",
					levelKey:       "Number",
					"terrain_type": "String",
				},
			},
		},
	}
}

// JSON marshals the document.
func (t TileJSON) JSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "    ")
}

// Write a tile.json into given directory
func Write(outputDirectory string, t TileJSON) error {
	bytes, err := t.JSON()
	if err != nil {
		return err
	}

	f, err := os.Create(path.Join(outputDirectory, "tile.json"))
	if err != nil {
		return err
	}

	if _, err = f.Write(bytes); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
