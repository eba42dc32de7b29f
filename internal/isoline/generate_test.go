package isoline

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maptoolkit/maplibre-contour/internal/dem"
)

// sampler builds a materialized height tile whose elevation is f(x, y).
func sampler(w, h int, f func(x, y int) float64) dem.HeightTile {
	tile := &dem.Tile{Width: w, Height: h, Elevations: make([]float32, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tile.Elevations[y*w+x] = float32(f(x, y))
		}
	}
	return dem.FromRaw(tile).Materialize(1)
}

func TestGenerateRamp(t *testing.T) {
	// columns at 0, 100, ..., 500 m; constant in y
	tile := sampler(6, 6, func(x, y int) float64 { return float64(x) * 100 })

	extent := 4000
	isolines := Generate(tile, 100, extent, 1)

	// 500 never has a sample above it, 0..400 do (the samples at 0 count
	// as below the 0 m level, so it is crossed too)
	require.Len(t, isolines, 5)
	for _, ele := range []float64{100, 200, 300, 400} {
		lines, ok := isolines[ele]
		require.True(t, ok, "missing level %v", ele)
		require.Len(t, lines, 1, "level %v", ele)

		line := lines[0]
		require.GreaterOrEqual(t, len(line), 2)
		wantX := ele / 100 * 800 // multiplier is extent/(width-1) = 800
		for _, p := range line {
			assert.InDelta(t, wantX, p[0], 1e-6)
		}
		// interior (east, the higher side) stays on the left: travel south
		assert.Less(t, line[0][1], line[len(line)-1][1])
		// open lines terminate on the sampling boundary
		assert.Equal(t, 0.0, line[0][1])
		assert.Equal(t, float64(extent), line[len(line)-1][1])
	}
}

func TestGeneratePeakIsClosedRing(t *testing.T) {
	tile := sampler(5, 5, func(x, y int) float64 {
		if x == 2 && y == 2 {
			return 100
		}
		return 10
	})

	isolines := Generate(tile, 50, 4096, 1)
	require.Len(t, isolines, 1)
	lines := isolines[50]
	require.Len(t, lines, 1)

	ring := lines[0]
	require.GreaterOrEqual(t, len(ring), 4)
	assert.Equal(t, ring[0], ring[len(ring)-1], "a contour around a peak must close")
}

func TestGenerateValueOnThresholdCountsAsBelow(t *testing.T) {
	tile := sampler(4, 4, func(x, y int) float64 { return 100 })

	isolines := Generate(tile, 100, 4096, 1)
	assert.Empty(t, isolines)
}

func TestGenerateClosureInvariant(t *testing.T) {
	// a bumpy surface: every emitted line is closed or ends on the
	// sampling-window boundary
	tile := sampler(9, 9, func(x, y int) float64 {
		return 100*math.Sin(float64(x)*1.3) + 80*math.Cos(float64(y)*0.7)
	})

	extent := 4096
	isolines := Generate(tile, 25, extent, 1)
	require.NotEmpty(t, isolines)

	onBoundary := func(p orb.Point) bool {
		return p[0] == 0 || p[0] == float64(extent) || p[1] == 0 || p[1] == float64(extent)
	}
	for ele, lines := range isolines {
		for _, line := range lines {
			require.GreaterOrEqual(t, len(line), 2)
			if line[0] == line[len(line)-1] {
				continue
			}
			assert.True(t, onBoundary(line[0]), "level %v: open start %v not on boundary", ele, line[0])
			assert.True(t, onBoundary(line[len(line)-1]), "level %v: open end %v not on boundary", ele, line[len(line)-1])
		}
	}
}

func TestGenerateInterpolatesCrossings(t *testing.T) {
	// threshold 75 sits a quarter of the way from the column at 50 to the one at 150
	tile := sampler(4, 4, func(x, y int) float64 { return 50 + float64(x)*100 })

	isolines := Generate(tile, 75, 300, 1)
	lines, ok := isolines[75]
	require.True(t, ok)
	require.Len(t, lines, 1)
	for _, p := range lines[0] {
		assert.InDelta(t, 25, p[0], 1e-6) // sample x 0.25, multiplier 100
	}
}

func TestGenerateEmptyInputs(t *testing.T) {
	assert.Empty(t, Generate(dem.HeightTile{}, 100, 4096, 1))

	tile := sampler(4, 4, func(x, y int) float64 { return 10 })
	assert.Empty(t, Generate(tile, 0, 4096, 1))
}
