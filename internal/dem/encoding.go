package dem

import (
	"image/color"
	"math"
)

// Encoding identifies how a DEM image packs elevations into its RGB
// channels.
type Encoding string

const (
	// EncodingTerrarium is the Mapzen terrarium scheme:
	//     elevation = (R * 256 + G + B / 256) - 32768
	EncodingTerrarium Encoding = "terrarium"
	// EncodingMapbox is the Mapbox Terrain-RGB scheme:
	//     elevation = -10000 + (R * 256 * 256 + G * 256 + B) * 0.1
	EncodingMapbox Encoding = "mapbox"
)

// Valid reports whether e is a known encoding.
func (e Encoding) Valid() bool {
	return e == EncodingTerrarium || e == EncodingMapbox
}

// Elevation decodes one pixel into meters.
func (e Encoding) Elevation(r, g, b uint8) float32 {
	switch e {
	case EncodingTerrarium:
		return float32(float64(r)*256 + float64(g) + float64(b)/256 - 32768)
	case EncodingMapbox:
		return float32(-10000 + (float64(r)*256*256+float64(g)*256+float64(b))*0.1)
	}
	return float32(math.NaN())
}

// RGB encodes an elevation back into a pixel. The preview tooling and
// tests use it to synthesize DEM tiles.
func (e Encoding) RGB(elevation float64) color.RGBA {
	var x int64
	switch e {
	case EncodingTerrarium:
		x = int64(math.Round((elevation + 32768) * 256))
	case EncodingMapbox:
		x = int64(math.Round(10*elevation + 100000))
	default:
		return color.RGBA{A: 255}
	}

	// x is a Base256 number: position 2 is r, position 1 is g, position 0 is b
	b := uint8(x % 256)
	x /= 256
	g := uint8(x % 256)
	x /= 256
	r := uint8(x % 256)

	return color.RGBA{R: r, G: g, B: b, A: 255}
}
