package dem

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, EncodingTerrarium.RGB(float64(100*x+y)))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	tile, err := DecodeImage(buf.Bytes(), EncodingTerrarium)
	require.NoError(t, err)
	assert.Equal(t, 4, tile.Width)
	assert.Equal(t, 2, tile.Height)
	assert.InDelta(t, 0, float64(tile.Elevations[0]), 1e-3)
	assert.InDelta(t, 300, float64(tile.Elevations[3]), 1e-3)
	assert.InDelta(t, 101, float64(tile.Elevations[4+1]), 1e-3)
}

func TestDecodeImageGarbage(t *testing.T) {
	_, err := DecodeImage([]byte("not an image"), EncodingTerrarium)
	assert.ErrorIs(t, err, ErrDecode)
}
