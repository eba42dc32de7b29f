package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/maptoolkit/maplibre-contour/internal/contour"
	"github.com/maptoolkit/maplibre-contour/internal/dem"
	"github.com/maptoolkit/maplibre-contour/internal/terrain"
)

// Config is the JSON document consumed by the serve, render and preview
// subcommands.
type Config struct {
	DemURL      string `json:"demUrl"`
	DemEncoding string `json:"demEncoding"`
	DemMaxZoom  int    `json:"demMaxZoom"`
	TimeoutMs   int    `json:"timeoutMs"`
	CacheSize   int    `json:"cacheSize"`

	// Thresholds uses the "z*minor*major~z*minor*major" grammar.
	Thresholds   string   `json:"thresholds"`
	ContourLayer string   `json:"contourLayer"`
	ElevationKey string   `json:"elevationKey"`
	LevelKey     string   `json:"levelKey"`
	Multiplier   float64  `json:"multiplier"`
	Overzoom     int      `json:"overzoom"`
	Buffer       *int     `json:"buffer"`
	Extent       int      `json:"extent"`
	Simplify     *float64 `json:"simplify"`
	SplitMode    string   `json:"splitMode"`

	Terrain *Terrain `json:"terrain"`
}

// Terrain configures the optional companion vector-tile source.
type Terrain struct {
	URL            string   `json:"url"`
	SourceLayer    string   `json:"sourceLayer"`
	TypeKey        string   `json:"typeKey"`
	GlacierValues  []string `json:"glacierValues"`
	RockValues     []string `json:"rockValues"`
	SimplifyMethod string   `json:"simplifyMethod"`
}

// Read parses the config file at given path.
func Read(configPath string) (Config, error) {
	var cfg Config

	f, err := os.Open(configPath)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return cfg, nil
}

// EngineConfig validates the document and converts it into an engine
// configuration plus the default request options.
func (c Config) EngineConfig() (contour.Config, contour.Options, error) {
	var ec contour.Config

	if c.DemURL == "" {
		return ec, contour.Options{}, fmt.Errorf("demUrl is required")
	}
	encoding := dem.Encoding(c.DemEncoding)
	if c.DemEncoding == "" {
		encoding = dem.EncodingTerrarium
	}
	if !encoding.Valid() {
		return ec, contour.Options{}, fmt.Errorf("unknown demEncoding %q", c.DemEncoding)
	}
	maxZoom := c.DemMaxZoom
	if maxZoom == 0 {
		maxZoom = 12
	}

	ec = contour.Config{
		Dem: contour.DemSource{
			URL:      c.DemURL,
			Encoding: encoding,
			MaxZoom:  maxZoom,
		},
		Timeout:   time.Duration(c.TimeoutMs) * time.Millisecond,
		CacheSize: c.CacheSize,
	}

	if c.Terrain != nil {
		if c.Terrain.URL == "" || c.Terrain.SourceLayer == "" {
			return ec, contour.Options{}, fmt.Errorf("terrain needs url and sourceLayer")
		}
		ts := contour.TerrainSource{
			URL:            c.Terrain.URL,
			SourceLayer:    c.Terrain.SourceLayer,
			TypeKey:        c.Terrain.TypeKey,
			GlacierValues:  c.Terrain.GlacierValues,
			RockValues:     c.Terrain.RockValues,
			SimplifyMethod: terrain.SimplifyMethod(c.Terrain.SimplifyMethod),
		}
		if ts.TypeKey == "" {
			ts.TypeKey = "type"
		}
		if ts.GlacierValues == nil {
			ts.GlacierValues = []string{"ice", "glacier"}
		}
		if ts.RockValues == nil {
			ts.RockValues = []string{"rock", "bare_rock", "scree"}
		}
		switch ts.SimplifyMethod {
		case "", terrain.SimplifyConvexHull, terrain.SimplifyDouglasPeucker, terrain.SimplifyNone:
		default:
			return ec, contour.Options{}, fmt.Errorf("unknown terrain simplifyMethod %q", c.Terrain.SimplifyMethod)
		}
		ec.Terrain = &ts
	}

	opts := contour.DefaultOptions()
	thresholds, err := contour.ParseThresholds(c.Thresholds)
	if err != nil {
		return ec, opts, err
	}
	opts.Thresholds = thresholds
	if c.ContourLayer != "" {
		opts.ContourLayer = c.ContourLayer
	}
	if c.ElevationKey != "" {
		opts.ElevationKey = c.ElevationKey
	}
	if c.LevelKey != "" {
		opts.LevelKey = c.LevelKey
	}
	if c.Multiplier != 0 {
		opts.Multiplier = c.Multiplier
	}
	if c.Overzoom != 0 {
		opts.Overzoom = c.Overzoom
	}
	if c.Buffer != nil {
		opts.Buffer = *c.Buffer
	}
	if c.Extent != 0 {
		opts.Extent = c.Extent
	}
	if c.Simplify != nil {
		opts.Simplify = *c.Simplify
	}
	if c.SplitMode != "" {
		opts.SplitMode = contour.SplitMode(c.SplitMode)
	}
	if err := opts.Validate(); err != nil {
		return ec, opts, err
	}
	return ec, opts, nil
}
