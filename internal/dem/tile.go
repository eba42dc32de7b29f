package dem

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ErrDecode reports a DEM image that could not be decoded.
var ErrDecode = errors.New("dem decode failed")

// Tile is a decoded DEM: a dense row-major grid of elevations in meters.
// Immutable after creation.
type Tile struct {
	Width, Height int
	Elevations    []float32
}

// DecodeImage decodes PNG, WebP or JPEG bytes into a Tile using the
// given encoding.
func DecodeImage(data []byte, encoding Encoding) (*Tile, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return FromImage(img, encoding), nil
}

// FromImage converts a decoded image into a Tile.
func FromImage(img image.Image, encoding Encoding) *Tile {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tile := &Tile{Width: w, Height: h, Elevations: make([]float32, w*h)}

	if rgba, ok := img.(*image.RGBA); ok {
		i := 0
		for y := 0; y < h; y++ {
			o := rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			for x := 0; x < w; x++ {
				tile.Elevations[i] = encoding.Elevation(rgba.Pix[o], rgba.Pix[o+1], rgba.Pix[o+2])
				i++
				o += 4
			}
		}
		return tile
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			tile.Elevations[i] = encoding.Elevation(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			i++
		}
	}
	return tile
}
