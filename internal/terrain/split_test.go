package terrain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testExtent = 4096

// square returns the closed ring over [x0,x1] x [y0,y1] in normalized
// coordinates.
func square(x0, y0, x1, y1 float64) orb.MultiPolygon {
	return orb.MultiPolygon{{orb.Ring{
		{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0},
	}}}
}

// horizontal builds a polyline at y with n evenly spaced vertices from
// x=0 to x=extent, in tile coordinates.
func horizontal(y float64, n int) orb.LineString {
	line := make(orb.LineString, n)
	step := float64(testExtent) / float64(n-1)
	for i := range line {
		line[i] = orb.Point{float64(i) * step, y}
	}
	return line
}

func flatten(segs []Segment) orb.LineString {
	var out orb.LineString
	for i, seg := range segs {
		pts := seg.Line
		if i > 0 {
			pts = pts[1:] // consecutive segments share the transition vertex
		}
		out = append(out, pts...)
	}
	return out
}

func TestSplitEmptyPolygonsIsIdentity(t *testing.T) {
	line := horizontal(2048, 50)
	isolines := map[float64][]orb.LineString{100: {line}}

	out := NewSplitter(SimplifyNone).Split(isolines, nil, testExtent, 12)
	require.Len(t, out[100], 1)
	assert.Equal(t, TypeNormal, out[100][0].Type)
	assert.Equal(t, line, out[100][0].Line)
}

func TestSplitCentralSquare(t *testing.T) {
	line := horizontal(2048, 100)
	isolines := map[float64][]orb.LineString{300: {line}}
	polys := []Polygon{{Geom: square(0.25, 0.25, 0.75, 0.75), Type: TypeGlacier}}

	out := NewSplitter(SimplifyNone).Split(isolines, polys, testExtent, 12)
	segs := out[300]
	require.Len(t, segs, 3)

	assert.Equal(t, TypeNormal, segs[0].Type)
	assert.Equal(t, TypeGlacier, segs[1].Type)
	assert.Equal(t, TypeNormal, segs[2].Type)

	// transitions sit near x = extent/4 and x = extent*3/4
	firstGlacier := segs[1].Line[0]
	lastGlacier := segs[1].Line[len(segs[1].Line)-1]
	assert.InDelta(t, testExtent*0.25, firstGlacier[0], testExtent*0.03)
	assert.InDelta(t, testExtent*0.75, lastGlacier[0], testExtent*0.03)

	// segments share their transition vertices and cover the input
	assert.Equal(t, segs[0].Line[len(segs[0].Line)-1], segs[1].Line[0])
	assert.Equal(t, segs[1].Line[len(segs[1].Line)-1], segs[2].Line[0])
	assert.Equal(t, line, flatten(segs))
}

func TestSplitSliverIsSuppressed(t *testing.T) {
	line := horizontal(2048, 200)
	isolines := map[float64][]orb.LineString{100: {line}}
	// the band covers roughly 5 of the 200 vertices, below the minimum run
	polys := []Polygon{{Geom: square(0.49, 0.0, 0.51, 1.0), Type: TypeGlacier}}

	out := NewSplitter(SimplifyNone).Split(isolines, polys, testExtent, 12)
	segs := out[100]
	require.Len(t, segs, 1)
	assert.Equal(t, TypeNormal, segs[0].Type)
	assert.Equal(t, line, segs[0].Line)
}

func TestSplitAllInside(t *testing.T) {
	line := horizontal(2048, 30)
	isolines := map[float64][]orb.LineString{100: {line}}
	polys := []Polygon{{Geom: square(-0.5, -0.5, 1.5, 1.5), Type: TypeRock}}

	out := NewSplitter(SimplifyNone).Split(isolines, polys, testExtent, 12)
	segs := out[100]
	require.Len(t, segs, 1)
	assert.Equal(t, TypeRock, segs[0].Type)
	assert.Equal(t, line, segs[0].Line)
}

func TestSplitFirstPolygonWins(t *testing.T) {
	line := horizontal(2048, 30)
	isolines := map[float64][]orb.LineString{100: {line}}
	covering := square(-0.5, -0.5, 1.5, 1.5)
	polys := []Polygon{
		{Geom: covering, Type: TypeRock},
		{Geom: covering, Type: TypeGlacier},
	}

	out := NewSplitter(SimplifyNone).Split(isolines, polys, testExtent, 12)
	segs := out[100]
	require.Len(t, segs, 1)
	assert.Equal(t, TypeRock, segs[0].Type)
}

func TestSplitWithoutGridIndex(t *testing.T) {
	// z >= 14 scans every polygon directly
	line := horizontal(2048, 100)
	isolines := map[float64][]orb.LineString{100: {line}}
	polys := []Polygon{{Geom: square(0.25, 0.25, 0.75, 0.75), Type: TypeGlacier}}

	out := NewSplitter(SimplifyNone).Split(isolines, polys, testExtent, 14)
	require.Len(t, out[100], 3)
	assert.Equal(t, TypeGlacier, out[100][1].Type)
}

func TestSplitDropsTinyPolygons(t *testing.T) {
	line := horizontal(2048, 100)
	isolines := map[float64][]orb.LineString{100: {line}}
	// area 1e-6 is below every zoom's cutoff
	polys := []Polygon{{Geom: square(0.4995, 0.4995, 0.5005, 0.5005), Type: TypeGlacier}}

	out := NewSplitter(SimplifyNone).Split(isolines, polys, testExtent, 12)
	segs := out[100]
	require.Len(t, segs, 1)
	assert.Equal(t, TypeNormal, segs[0].Type)
}

func TestGridCandidates(t *testing.T) {
	inside := &indexedPolygon{
		geom:  square(0.1, 0.1, 0.2, 0.2),
		bound: square(0.1, 0.1, 0.2, 0.2).Bound(),
		typ:   TypeGlacier,
		ord:   0,
	}
	farAway := &indexedPolygon{
		geom:  square(0.8, 0.8, 0.9, 0.9),
		bound: square(0.8, 0.8, 0.9, 0.9).Bound(),
		typ:   TypeRock,
		ord:   1,
	}

	g := newGridIndex([]*indexedPolygon{inside, farAway}, 10)
	require.Equal(t, 8, g.n)

	line := orb.LineString{{0.15, 0.15}, {0.18, 0.12}}
	cands := g.candidates(line)
	require.Len(t, cands, 1)
	assert.Same(t, inside, cands[0])

	// without an index every polygon is a candidate
	flat := newGridIndex([]*indexedPolygon{inside, farAway}, 14)
	assert.Len(t, flat.candidates(line), 2)
}

func TestConvexHullDowngradedAtHighZoom(t *testing.T) {
	// an L-shaped polygon; its hull would cover the notch
	l := orb.MultiPolygon{{orb.Ring{
		{0, 0}, {0.6, 0}, {0.6, 0.1}, {0.1, 0.1}, {0.1, 0.6}, {0, 0.6}, {0, 0},
	}}}
	notch := orb.Point{0.3, 0.3}

	hulled := preparePolygons([]Polygon{{Geom: l, Type: TypeRock}}, 11, SimplifyConvexHull)
	require.Len(t, hulled, 1)
	assert.True(t, contains(hulled[0], notch))

	exact := preparePolygons([]Polygon{{Geom: l, Type: TypeRock}}, 13, SimplifyConvexHull)
	require.Len(t, exact, 1)
	assert.False(t, contains(exact[0], notch))
}

func TestFoldRuns(t *testing.T) {
	long := func(v bool, n int) []bool {
		out := make([]bool, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	seq := append(append(long(false, 20), long(true, 4)...), long(false, 20)...)
	runs := foldRuns(seq)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].inside)
	assert.Equal(t, 44, runs[0].len)

	seq = append(append(long(false, 20), long(true, 15)...), long(false, 20)...)
	runs = foldRuns(seq)
	require.Len(t, runs, 3)
	assert.True(t, runs[1].inside)
	assert.Equal(t, 15, runs[1].len)
}
