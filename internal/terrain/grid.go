package terrain

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// gridSize returns the spatial-index resolution for a zoom; 0 disables
// the index and every polygon becomes a candidate.
func gridSize(zoom int) int {
	switch {
	case zoom <= 12:
		return 8
	case zoom == 13:
		return 4
	default:
		return 0
	}
}

// gridIndex is a uniform n x n grid over the normalized [0,1]^2 tile
// mapping cells to the polygons whose bounding box covers them.
type gridIndex struct {
	n     int
	cells map[[2]int][]*indexedPolygon
	all   []*indexedPolygon
}

func newGridIndex(polys []*indexedPolygon, zoom int) *gridIndex {
	g := &gridIndex{n: gridSize(zoom), all: polys}
	if g.n == 0 {
		return g
	}
	g.cells = make(map[[2]int][]*indexedPolygon)
	for _, p := range polys {
		x0 := g.cellIndex(p.bound.Min[0])
		x1 := g.cellIndex(p.bound.Max[0])
		y0 := g.cellIndex(p.bound.Min[1])
		y1 := g.cellIndex(p.bound.Max[1])
		for cy := y0; cy <= y1; cy++ {
			for cx := x0; cx <= x1; cx++ {
				key := [2]int{cx, cy}
				g.cells[key] = append(g.cells[key], p)
			}
		}
	}
	return g
}

func (g *gridIndex) cellIndex(v float64) int {
	i := int(math.Floor(v * float64(g.n)))
	if i < 0 {
		i = 0
	}
	if i >= g.n {
		i = g.n - 1
	}
	return i
}

// candidates returns the polygons that may touch a polyline in
// normalized coordinates: the union over the grid cells any of its
// vertices falls in, in original polygon order.
func (g *gridIndex) candidates(line orb.LineString) []*indexedPolygon {
	if g.n == 0 {
		return g.all
	}
	seenCells := map[[2]int]bool{}
	seen := map[*indexedPolygon]bool{}
	var out []*indexedPolygon
	for _, p := range line {
		key := [2]int{g.cellIndex(p[0]), g.cellIndex(p[1])}
		if seenCells[key] {
			continue
		}
		seenCells[key] = true
		for _, cand := range g.cells[key] {
			if !seen[cand] {
				seen[cand] = true
				out = append(out, cand)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ord < out[j].ord })
	return out
}
