package isoline

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/maptoolkit/maplibre-contour/internal/dem"
)

// Generate extracts contour polylines from tile for every multiple of
// interval present in the sampled range, using marching squares.
//
// Coordinates are in destination units: [0, extent] spans the tile,
// with up to buffer units of overlap into the neighboring tiles. The
// region above each threshold lies on the left of the direction of
// travel; a sample exactly on a threshold counts as below it. Every
// polyline is either a closed ring or terminates on the sampling-window
// boundary.
//
// The tile must have been materialized with a border of at least one
// sample. Cells touching a NaN sample produce no lines.
func Generate(tile dem.HeightTile, interval float64, extent, buffer int) map[float64][]orb.LineString {
	out := map[float64][]orb.LineString{}
	if interval <= 0 || tile.Width < 2 || tile.Height < 2 {
		return out
	}

	g := &generator{
		tile:     tile,
		interval: interval,
		byLevel:  map[int]*fragments{},
	}
	for y := -1; y < tile.Height; y++ {
		for x := -1; x < tile.Width; x++ {
			g.cell(x, y)
		}
	}

	multiplier := float64(extent) / float64(tile.Width-1)
	lo := -float64(buffer)
	hi := float64(extent + buffer)
	for level, frags := range g.byLevel {
		lines := frags.lines()
		if len(lines) == 0 {
			continue
		}
		for _, line := range lines {
			for i, p := range line {
				line[i] = orb.Point{
					clamp(p[0]*multiplier, lo, hi),
					clamp(p[1]*multiplier, lo, hi),
				}
			}
		}
		out[float64(level)*g.interval] = lines
	}
	return out
}

type generator struct {
	tile     dem.HeightTile
	interval float64
	byLevel  map[int]*fragments
}

// cell runs one marching-squares cell whose top-left sample is (x, y).
func (g *generator) cell(x, y int) {
	tl := float64(g.tile.Get(x, y))
	tr := float64(g.tile.Get(x+1, y))
	bl := float64(g.tile.Get(x, y+1))
	br := float64(g.tile.Get(x+1, y+1))
	if math.IsNaN(tl) || math.IsNaN(tr) || math.IsNaN(bl) || math.IsNaN(br) {
		return
	}

	min := math.Min(math.Min(tl, tr), math.Min(bl, br))
	max := math.Max(math.Max(tl, tr), math.Max(bl, br))

	// a level is crossed iff some corner is strictly above it and some
	// corner is at or below it
	kmin := int(math.Ceil(min / g.interval))
	kmax := int(math.Ceil(max/g.interval)) - 1
	for k := kmin; k <= kmax; k++ {
		g.cellLevel(x, y, k, tl, tr, bl, br)
	}
}

func (g *generator) cellLevel(x, y, k int, tl, tr, bl, br float64) {
	t := float64(k) * g.interval

	idx := 0
	if tl > t {
		idx |= 8
	}
	if tr > t {
		idx |= 4
	}
	if br > t {
		idx |= 2
	}
	if bl > t {
		idx |= 1
	}
	if idx == 0 || idx == 15 {
		return
	}

	fx, fy := float64(x), float64(y)
	top := func() orb.Point { return orb.Point{fx + frac(tl, tr, t), fy} }
	bottom := func() orb.Point { return orb.Point{fx + frac(bl, br, t), fy + 1} }
	left := func() orb.Point { return orb.Point{fx, fy + frac(tl, bl, t)} }
	right := func() orb.Point { return orb.Point{fx + 1, fy + frac(tr, br, t)} }

	frags := g.byLevel[k]
	if frags == nil {
		frags = newFragments()
		g.byLevel[k] = frags
	}

	switch idx {
	case 1:
		frags.add(bottom(), left())
	case 14:
		frags.add(left(), bottom())
	case 2:
		frags.add(right(), bottom())
	case 13:
		frags.add(bottom(), right())
	case 3:
		frags.add(right(), left())
	case 12:
		frags.add(left(), right())
	case 4:
		frags.add(top(), right())
	case 11:
		frags.add(right(), top())
	case 6:
		frags.add(top(), bottom())
	case 9:
		frags.add(bottom(), top())
	case 7:
		frags.add(top(), left())
	case 8:
		frags.add(left(), top())
	case 5:
		// saddle: tr and bl are above; connect so that the side the
		// interpolated center falls on stays on the left
		if (tl+tr+bl+br)/4 > t {
			frags.add(top(), left())
			frags.add(bottom(), right())
		} else {
			frags.add(top(), right())
			frags.add(bottom(), left())
		}
	case 10:
		// saddle: tl and br are above
		if (tl+tr+bl+br)/4 > t {
			frags.add(right(), top())
			frags.add(left(), bottom())
		} else {
			frags.add(left(), top())
			frags.add(right(), bottom())
		}
	}
}

// frac returns the position of threshold t between the samples a and b.
func frac(a, b, t float64) float64 {
	return (t - a) / (b - a)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
