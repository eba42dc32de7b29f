package terrain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	// maxClassifySamples bounds the coarse inside/outside scan of a
	// polyline before the per-vertex walk.
	maxClassifySamples = 20
	// minRunLength suppresses classification flip-flops caused by
	// polygon slivers.
	minRunLength = 10
)

// Splitter reclassifies contour polylines against terrain polygons.
type Splitter struct {
	method SimplifyMethod
}

// NewSplitter creates a splitter using the given polygon approximation
// method; an empty method selects the convex hull.
func NewSplitter(method SimplifyMethod) *Splitter {
	if method == "" {
		method = SimplifyConvexHull
	}
	return &Splitter{method: method}
}

// Split replaces every polyline with one or more typed segments that
// cover it end to end; consecutive segments share their transition
// vertex. Polygons apply in input order, so a vertex covered by several
// polygons takes the type of the first. An empty polygon set marks
// everything normal.
func (s *Splitter) Split(isolines map[float64][]orb.LineString, polys []Polygon, extent, zoom int) map[float64][]Segment {
	prepared := preparePolygons(polys, zoom, s.method)
	index := newGridIndex(prepared, zoom)
	scale := 1 / float64(extent)

	out := make(map[float64][]Segment, len(isolines))
	for ele, lines := range isolines {
		segs := make([]Segment, 0, len(lines))
		for _, line := range lines {
			segs = append(segs, splitLine(line, index, scale)...)
		}
		out[ele] = segs
	}
	return out
}

// span is a vertex index range (both ends inclusive) of one segment.
type span struct {
	start, end int
	typ        Type
}

func splitLine(line orb.LineString, index *gridIndex, scale float64) []Segment {
	norm := make(orb.LineString, len(line))
	for i, p := range line {
		norm[i] = orb.Point{p[0] * scale, p[1] * scale}
	}

	spans := []span{{start: 0, end: len(line) - 1, typ: TypeNormal}}
	if cands := index.candidates(norm); len(cands) > 0 {
		bound := norm.Bound()
		for _, cand := range cands {
			if !bound.Intersects(cand.bound) {
				continue
			}
			next := make([]span, 0, len(spans))
			for _, sp := range spans {
				if sp.typ != TypeNormal {
					// already claimed by an earlier polygon
					next = append(next, sp)
					continue
				}
				next = append(next, splitSpan(norm, sp, cand)...)
			}
			spans = next
		}
	}

	segs := make([]Segment, len(spans))
	for i, sp := range spans {
		segs[i] = Segment{Line: line[sp.start : sp.end+1], Type: sp.typ}
	}
	return segs
}

// splitSpan classifies one normal span against one polygon. A panic in
// the geometric predicates leaves the span unchanged.
func splitSpan(norm orb.LineString, sp span, cand *indexedPolygon) (out []span) {
	defer func() {
		if recover() != nil {
			out = []span{sp}
		}
	}()

	n := sp.end - sp.start + 1

	// coarse pass: sample a handful of vertices plus the last one to
	// decide all-inside / all-outside / crossing
	step := (n + maxClassifySamples - 1) / maxClassifySamples
	anyIn, anyOut := false, false
	for i := sp.start; i <= sp.end; i += step {
		if contains(cand, norm[i]) {
			anyIn = true
		} else {
			anyOut = true
		}
		if anyIn && anyOut {
			break
		}
	}
	if !(anyIn && anyOut) {
		if contains(cand, norm[sp.end]) {
			anyIn = true
		} else {
			anyOut = true
		}
	}
	switch {
	case anyIn && !anyOut:
		return []span{{start: sp.start, end: sp.end, typ: cand.typ}}
	case anyOut && !anyIn:
		return []span{sp}
	}

	// crossing: walk every vertex
	inside := make([]bool, n)
	for i := range inside {
		inside[i] = contains(cand, norm[sp.start+i])
	}

	out = make([]span, 0, 4)
	pos := sp.start
	for _, r := range foldRuns(inside) {
		last := pos + r.len - 1
		segEnd := last
		if segEnd < sp.end {
			// include the transition vertex; the next span starts there too
			segEnd++
		}
		typ := TypeNormal
		if r.inside {
			typ = cand.typ
		}
		out = append(out, span{start: pos, end: segEnd, typ: typ})
		pos = last + 1
	}
	return out
}

type run struct {
	inside bool
	len    int
}

// foldRuns collapses per-vertex classifications into runs, folding any
// run shorter than minRunLength into its predecessor.
func foldRuns(inside []bool) []run {
	var runs []run
	for i := 0; i < len(inside); {
		j := i
		for j < len(inside) && inside[j] == inside[i] {
			j++
		}
		runs = append(runs, run{inside: inside[i], len: j - i})
		i = j
	}

	folded := []run{runs[0]}
	for _, r := range runs[1:] {
		last := &folded[len(folded)-1]
		if r.len < minRunLength || r.inside == last.inside {
			last.len += r.len
		} else {
			folded = append(folded, r)
		}
	}
	return folded
}

func contains(p *indexedPolygon, pt orb.Point) bool {
	if !p.bound.Contains(pt) {
		return false
	}
	return planar.MultiPolygonContains(p.geom, pt)
}
