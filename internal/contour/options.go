package contour

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitMode controls whether contours are reclassified against terrain
// polygons.
type SplitMode string

const (
	SplitClassic SplitMode = "classic"
	SplitNone    SplitMode = "no-split"
)

// Options configure one contour-tile request.
type Options struct {
	// Thresholds maps zoom levels to contour intervals; the entry with
	// the largest zoom at or below the requested one applies.
	Thresholds Thresholds
	// Multiplier scales elevations before contouring.
	Multiplier float64
	// Overzoom is how many levels coarser than the request the DEM is
	// fetched.
	Overzoom int
	// Buffer is the tile-border halo in destination units.
	Buffer int
	// Extent is the integer resolution of the produced tile.
	Extent int
	// SubsampleBelow keeps resampling the virtual tile until its width
	// reaches this value.
	SubsampleBelow int
	ContourLayer   string
	ElevationKey   string
	LevelKey       string
	// Simplify is the Douglas-Peucker tolerance in destination units;
	// zero disables simplification.
	Simplify  float64
	SplitMode SplitMode
}

// DefaultOptions returns the baseline request configuration.
func DefaultOptions() Options {
	return Options{
		Multiplier:     1,
		Buffer:         1,
		Extent:         4096,
		SubsampleBelow: 100,
		ContourLayer:   "contours",
		ElevationKey:   "ele",
		LevelKey:       "level",
		Simplify:       1,
		SplitMode:      SplitClassic,
	}
}

// Validate checks the option combination before a request runs.
func (o Options) Validate() error {
	if o.Extent <= 0 {
		return fmt.Errorf("extent must be positive, got %d", o.Extent)
	}
	if o.Buffer < 0 {
		return fmt.Errorf("buffer must not be negative, got %d", o.Buffer)
	}
	if o.SubsampleBelow < 2 {
		return fmt.Errorf("subsampleBelow must be at least 2, got %d", o.SubsampleBelow)
	}
	if o.Overzoom < 0 {
		return fmt.Errorf("overzoom must not be negative, got %d", o.Overzoom)
	}
	if o.SplitMode != SplitClassic && o.SplitMode != SplitNone {
		return fmt.Errorf("unknown splitMode %q", o.SplitMode)
	}
	if o.ContourLayer == "" || o.ElevationKey == "" || o.LevelKey == "" {
		return fmt.Errorf("contourLayer, elevationKey and levelKey must not be empty")
	}
	return nil
}

// CacheKey serializes the options canonically, keys sorted, so any two
// equivalent option sets share one cache entry.
func (o Options) CacheKey() string {
	pairs := []string{
		"buffer=" + strconv.Itoa(o.Buffer),
		"contourLayer=" + o.ContourLayer,
		"elevationKey=" + o.ElevationKey,
		"extent=" + strconv.Itoa(o.Extent),
		"levelKey=" + o.LevelKey,
		"multiplier=" + formatFloat(o.Multiplier),
		"overzoom=" + strconv.Itoa(o.Overzoom),
		"simplify=" + formatFloat(o.Simplify),
		"splitMode=" + string(o.SplitMode),
		"subsampleBelow=" + strconv.Itoa(o.SubsampleBelow),
		"thresholds=" + o.Thresholds.String(),
	}
	return strings.Join(pairs, "&")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
