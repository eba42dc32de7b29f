package terrain

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// SimplifyMethod selects how candidate polygons are approximated before
// point-in-polygon testing.
type SimplifyMethod string

const (
	SimplifyConvexHull     SimplifyMethod = "convex-hull"
	SimplifyDouglasPeucker SimplifyMethod = "douglas-peucker"
	SimplifyNone           SimplifyMethod = "none"
)

// minArea is the approximate-area cutoff below which polygons are too
// small to matter at the given zoom.
func minArea(zoom int) float64 {
	switch {
	case zoom <= 11:
		return 5e-5
	case zoom == 12:
		return 2e-5
	case zoom == 13:
		return 1e-5
	default:
		return 5e-6
	}
}

func dpTolerance(zoom int) float64 {
	switch {
	case zoom <= 11:
		return 0.01
	case zoom == 12:
		return 0.005
	case zoom == 13:
		return 0.002
	default:
		return 0.001
	}
}

type indexedPolygon struct {
	geom  orb.MultiPolygon
	bound orb.Bound
	typ   Type
	ord   int
}

// preparePolygons drops polygons below the zoom's area threshold,
// approximates the survivors, and computes their bounding boxes. Input
// order is preserved so earlier polygons keep classification precedence.
func preparePolygons(polys []Polygon, zoom int, method SimplifyMethod) []*indexedPolygon {
	if method == SimplifyConvexHull && zoom >= 13 {
		// hulls are too coarse once individual polygons span whole tiles
		method = SimplifyNone
	}
	out := make([]*indexedPolygon, 0, len(polys))
	for i, p := range polys {
		if math.Abs(planar.Area(p.Geom)) < minArea(zoom) {
			continue
		}
		geom := approximate(p.Geom, zoom, method)
		if len(geom) == 0 {
			continue
		}
		out = append(out, &indexedPolygon{
			geom:  geom,
			bound: geom.Bound(),
			typ:   p.Type,
			ord:   i,
		})
	}
	return out
}

func approximate(mp orb.MultiPolygon, zoom int, method SimplifyMethod) orb.MultiPolygon {
	switch method {
	case SimplifyConvexHull:
		hull := convexHull(mp)
		if len(hull) < 4 {
			return nil
		}
		return orb.MultiPolygon{{hull}}
	case SimplifyDouglasPeucker:
		simplified := simplify.DouglasPeucker(dpTolerance(zoom)).MultiPolygon(mp.Clone())
		return dropDegenerate(simplified)
	default:
		return dropDegenerate(mp)
	}
}

// dropDegenerate removes rings that collapsed below four points and
// polygons that lost their outer ring.
func dropDegenerate(mp orb.MultiPolygon) orb.MultiPolygon {
	out := make(orb.MultiPolygon, 0, len(mp))
	for _, poly := range mp {
		kept := make(orb.Polygon, 0, len(poly))
		for i, ring := range poly {
			if len(ring) < 4 {
				if i == 0 {
					break
				}
				continue
			}
			kept = append(kept, ring)
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

// convexHull builds the closed hull ring over every vertex of mp using
// Andrew's monotone chain.
func convexHull(mp orb.MultiPolygon) orb.Ring {
	var pts []orb.Point
	for _, poly := range mp {
		for _, ring := range poly {
			pts = append(pts, ring...)
		}
	}
	if len(pts) < 3 {
		return nil
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	var lower []orb.Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	var upper []orb.Point
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) < 3 {
		return nil
	}
	hull = append(hull, hull[0])
	return orb.Ring(hull)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
