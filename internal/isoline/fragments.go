package isoline

import "github.com/paulmach/orb"

// fragments incrementally merges directed cell segments into polylines.
// Segments from adjacent cells share bit-identical edge points, so open
// ends can be matched by exact point lookup: a segment either starts a
// new fragment, extends one, joins two, or closes a ring.
type fragments struct {
	byStart map[orb.Point]*fragment
	byEnd   map[orb.Point]*fragment
	closed  []orb.LineString
}

type fragment struct {
	pts []orb.Point
}

func newFragments() *fragments {
	return &fragments{
		byStart: map[orb.Point]*fragment{},
		byEnd:   map[orb.Point]*fragment{},
	}
}

// add appends the directed segment from -> to.
func (f *fragments) add(from, to orb.Point) {
	if from == to {
		return
	}
	prev := f.byEnd[from]
	next := f.byStart[to]
	switch {
	case prev == nil && next == nil:
		fr := &fragment{pts: []orb.Point{from, to}}
		f.byStart[from] = fr
		f.byEnd[to] = fr
	case prev != nil && next == nil:
		delete(f.byEnd, from)
		prev.pts = append(prev.pts, to)
		f.byEnd[to] = prev
	case prev == nil && next != nil:
		delete(f.byStart, to)
		next.pts = append([]orb.Point{from}, next.pts...)
		f.byStart[from] = next
	case prev == next:
		// the segment closes the ring
		delete(f.byEnd, from)
		delete(f.byStart, to)
		prev.pts = append(prev.pts, to)
		f.closed = append(f.closed, orb.LineString(prev.pts))
	default:
		delete(f.byEnd, from)
		delete(f.byStart, to)
		prev.pts = append(prev.pts, next.pts...)
		f.byEnd[prev.pts[len(prev.pts)-1]] = prev
	}
}

// lines returns every closed ring plus the remaining open fragments.
func (f *fragments) lines() []orb.LineString {
	out := f.closed
	for _, fr := range f.byStart {
		out = append(out, orb.LineString(fr.pts))
	}
	return out
}
