package isoline

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// Simplify runs Douglas-Peucker over each polyline with tolerance given
// in destination units, operating on coordinates normalized by extent.
// A tolerance of zero or less returns the input unchanged; a polyline
// that fails to simplify is kept as-is, and results collapsing below
// two points are dropped.
func Simplify(lines []orb.LineString, tolerance float64, extent int) []orb.LineString {
	if tolerance <= 0 {
		return lines
	}
	out := make([]orb.LineString, 0, len(lines))
	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		simplified, ok := simplifyOne(line, tolerance, float64(extent))
		if !ok {
			out = append(out, line)
			continue
		}
		if len(simplified) >= 2 {
			out = append(out, simplified)
		}
	}
	return out
}

func simplifyOne(line orb.LineString, tolerance, extent float64) (simplified orb.LineString, ok bool) {
	defer func() {
		if recover() != nil {
			simplified, ok = nil, false
		}
	}()

	scaled := make(orb.LineString, len(line))
	for i, p := range line {
		scaled[i] = orb.Point{p[0] / extent, p[1] / extent}
	}
	simplified = simplify.DouglasPeucker(tolerance / extent).LineString(scaled)
	for i, p := range simplified {
		simplified[i] = orb.Point{math.Round(p[0] * extent), math.Round(p[1] * extent)}
	}
	return simplified, true
}
