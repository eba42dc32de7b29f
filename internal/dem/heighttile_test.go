package dem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridTile builds a W x H tile whose elevation is f(x, y).
func gridTile(w, h int, f func(x, y int) float64) *Tile {
	tile := &Tile{Width: w, Height: h, Elevations: make([]float32, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tile.Elevations[y*w+x] = float32(f(x, y))
		}
	}
	return tile
}

func isNaN32(v float32) bool {
	return math.IsNaN(float64(v))
}

func TestFromRawBounds(t *testing.T) {
	ht := FromRaw(gridTile(4, 4, func(x, y int) float64 { return float64(x + 10*y) }))

	assert.Equal(t, float32(0), ht.Get(0, 0))
	assert.Equal(t, float32(3), ht.Get(3, 0))
	assert.Equal(t, float32(31), ht.Get(1, 3))
	assert.True(t, isNaN32(ht.Get(-1, 0)))
	assert.True(t, isNaN32(ht.Get(0, 4)))
}

func TestCombineNeighborsRequiresCenter(t *testing.T) {
	_, ok := CombineNeighbors(make([]*HeightTile, 9))
	assert.False(t, ok)
}

func TestCombineNeighborsSamplesHalo(t *testing.T) {
	neighbors := make([]*HeightTile, 9)
	for i := 0; i < 9; i++ {
		if i == 3 {
			continue // leave the west neighbor missing
		}
		v := float64(i)
		ht := FromRaw(gridTile(4, 4, func(x, y int) float64 { return v }))
		neighbors[i] = &ht
	}

	combined, ok := CombineNeighbors(neighbors)
	require.True(t, ok)
	assert.Equal(t, 4, combined.Width)

	assert.Equal(t, float32(4), combined.Get(0, 0))
	assert.Equal(t, float32(4), combined.Get(3, 3))
	assert.Equal(t, float32(0), combined.Get(-1, -1))  // north-west
	assert.Equal(t, float32(1), combined.Get(2, -1))   // north
	assert.Equal(t, float32(5), combined.Get(4, 0))    // east
	assert.Equal(t, float32(8), combined.Get(5, 7))    // south-east
	assert.True(t, isNaN32(combined.Get(-1, 0)))       // missing west
}

func TestSplitSelectsQuadrant(t *testing.T) {
	ht := FromRaw(gridTile(8, 8, func(x, y int) float64 { return float64(10*y + x) }))

	sub := ht.Split(1, 1, 0)
	assert.Equal(t, 4, sub.Width)
	assert.Equal(t, 4, sub.Height)
	assert.Equal(t, float32(4), sub.Get(0, 0))
	assert.Equal(t, float32(37), sub.Get(3, 3))
}

func TestSubsamplePixelCenters(t *testing.T) {
	ht := FromRaw(gridTile(2, 2, func(x, y int) float64 { return float64(x + 2*y) }))

	up := ht.SubsamplePixelCenters(2)
	assert.Equal(t, 4, up.Width)
	assert.Equal(t, float32(0), up.Get(0, 0))
	assert.Equal(t, float32(0), up.Get(1, 1))
	assert.Equal(t, float32(1), up.Get(2, 0))
	assert.Equal(t, float32(3), up.Get(3, 3))
}

func TestAveragePixelCentersToGrid(t *testing.T) {
	ht := FromRaw(gridTile(3, 3, func(x, y int) float64 { return float64(x) })).Materialize(1)

	grid := ht.AveragePixelCentersToGrid()
	assert.Equal(t, 4, grid.Width)
	// interior corner between columns 0 and 1
	assert.InDelta(t, 0.5, float64(grid.Get(1, 1)), 1e-6)
	// the border average touches NaN halo samples
	assert.True(t, isNaN32(grid.Get(0, 0)))
}

func TestScaleElevation(t *testing.T) {
	ht := FromRaw(gridTile(2, 2, func(x, y int) float64 { return 10 }))
	assert.Equal(t, float32(25), ht.ScaleElevation(2.5).Get(0, 0))
}

func TestMaterializeBorder(t *testing.T) {
	ht := FromRaw(gridTile(3, 3, func(x, y int) float64 { return float64(x + y) })).Materialize(2)

	assert.Equal(t, float32(0), ht.Get(0, 0))
	assert.Equal(t, float32(4), ht.Get(2, 2))
	assert.True(t, isNaN32(ht.Get(-1, 0)))  // inside the border, NaN from the source
	assert.True(t, isNaN32(ht.Get(-3, 0)))  // past the materialized border
	assert.True(t, isNaN32(ht.Get(0, 5)))
}

func TestMaterializeKeepsLazyChain(t *testing.T) {
	base := FromRaw(gridTile(4, 4, func(x, y int) float64 { return 100 }))
	tile := base.SubsamplePixelCenters(2).Materialize(2).
		AveragePixelCentersToGrid().ScaleElevation(2).Materialize(1)

	assert.Equal(t, 9, tile.Width)
	assert.Equal(t, float32(200), tile.Get(4, 4))
}
