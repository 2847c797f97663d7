package onnx

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputBlobIsRGB(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 255, A: 255}), image.Point{}, draw.Src)

	blob, err := inputBlob(img, 4)
	require.NoError(t, err)
	defer blob.Close()

	data, err := blob.DataPtrFloat32()
	require.NoError(t, err)
	require.Len(t, data, 3*4*4)

	plane := 4 * 4
	assert.InDelta(t, 1.0, data[0], 1e-3, "first channel is red")
	assert.InDelta(t, -1.0, data[plane], 1e-3, "second channel is green")
	assert.InDelta(t, -1.0, data[2*plane], 1e-3, "third channel is blue")
}
