package terrain

import "github.com/paulmach/orb"

// Type classifies a contour segment by the terrain it crosses.
type Type string

const (
	TypeNormal  Type = "normal"
	TypeGlacier Type = "glacier"
	TypeRock    Type = "rock"
)

// Polygon is a glacier or rock outline in coordinates normalized to
// [0,1] relative to the tile. Immutable.
type Polygon struct {
	Geom orb.MultiPolygon
	Type Type
}

// Segment is a run of contour vertices sharing one terrain type.
type Segment struct {
	Line orb.LineString
	Type Type
}

// AllNormal wraps plain polylines as normal segments, the shape the
// encoder consumes when no splitting ran.
func AllNormal(isolines map[float64][]orb.LineString) map[float64][]Segment {
	out := make(map[float64][]Segment, len(isolines))
	for ele, lines := range isolines {
		segs := make([]Segment, len(lines))
		for i, line := range lines {
			segs[i] = Segment{Line: line, Type: TypeNormal}
		}
		out[ele] = segs
	}
	return out
}
