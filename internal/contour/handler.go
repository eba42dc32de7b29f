package contour

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the custom protocol understood by Handler.
const Scheme = "dem-contour"

// Handler adapts the engine to the dem-contour://{z}/{x}/{y}?... request
// grammar used by host-renderer protocol hooks.
func (e *Engine) Handler(defaults Options) func(ctx context.Context, rawURL string) ([]byte, error) {
	return func(ctx context.Context, rawURL string) ([]byte, error) {
		z, x, y, opts, err := ParseRequestURL(rawURL, defaults)
		if err != nil {
			return nil, err
		}
		return e.FetchContourTile(ctx, z, x, y, opts)
	}
}

// ParseRequestURL parses "dem-contour://{z}/{x}/{y}?key=value..." into
// tile coordinates and request options layered over defaults.
func ParseRequestURL(raw string, defaults Options) (z, x, y int, opts Options, err error) {
	opts = defaults
	u, err := url.Parse(raw)
	if err != nil {
		return
	}
	if u.Scheme != Scheme {
		err = fmt.Errorf("unsupported scheme %q, want %s://{z}/{x}/{y}", u.Scheme, Scheme)
		return
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if u.Host == "" || len(parts) != 2 {
		err = fmt.Errorf("malformed tile url %q, want %s://{z}/{x}/{y}", raw, Scheme)
		return
	}
	if z, err = strconv.Atoi(u.Host); err != nil {
		return
	}
	if x, err = strconv.Atoi(parts[0]); err != nil {
		return
	}
	if y, err = strconv.Atoi(parts[1]); err != nil {
		return
	}
	opts, err = ParseOptionValues(u.Query(), defaults)
	return
}

// ParseOptionValues applies the recognized query keys over defaults.
// Numeric keys parse as floats; unknown keys are rejected.
func ParseOptionValues(values url.Values, defaults Options) (Options, error) {
	opts := defaults
	for key := range values {
		v := values.Get(key)
		var err error
		switch key {
		case "contourLayer":
			opts.ContourLayer = v
		case "elevationKey":
			opts.ElevationKey = v
		case "levelKey":
			opts.LevelKey = v
		case "multiplier":
			opts.Multiplier, err = strconv.ParseFloat(v, 64)
		case "simplify":
			opts.Simplify, err = strconv.ParseFloat(v, 64)
		case "extent":
			opts.Extent, err = parseIntValue(v)
		case "buffer":
			opts.Buffer, err = parseIntValue(v)
		case "subsampleBelow":
			opts.SubsampleBelow, err = parseIntValue(v)
		case "overzoom":
			opts.Overzoom, err = parseIntValue(v)
		case "splitMode":
			opts.SplitMode = SplitMode(v)
			if opts.SplitMode != SplitClassic && opts.SplitMode != SplitNone {
				err = fmt.Errorf("want %s or %s", SplitClassic, SplitNone)
			}
		case "thresholds":
			opts.Thresholds, err = ParseThresholds(v)
		default:
			return opts, fmt.Errorf("unknown option %q", key)
		}
		if err != nil {
			return opts, fmt.Errorf("option %s=%q: %v", key, v, err)
		}
	}
	return opts, opts.Validate()
}

func parseIntValue(v string) (int, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
