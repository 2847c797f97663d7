package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

// twoTone is red on the left column, blue elsewhere.
func twoTone(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := blue
			if x == 0 {
				c = red
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFromVideoFrameKeepsNativeSize(t *testing.T) {
	frame := twoTone(5, 3)

	captured := FromVideoFrame(frame, false)
	assert.Equal(t, image.Rect(0, 0, 5, 3), captured.Bounds())

	err := captured.Use(func(img image.Image) error {
		assert.Equal(t, red, img.(*image.RGBA).RGBAAt(0, 1))
		assert.Equal(t, blue, img.(*image.RGBA).RGBAAt(4, 1))
		return nil
	})
	require.NoError(t, err)
}

func TestFromVideoFrameFlipped(t *testing.T) {
	frame := twoTone(5, 3)

	captured := FromVideoFrame(frame, true)
	err := captured.Use(func(img image.Image) error {
		rgba := img.(*image.RGBA)
		assert.Equal(t, blue, rgba.RGBAAt(0, 2))
		assert.Equal(t, red, rgba.RGBAAt(4, 2))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, red, frame.RGBAAt(0, 2), "source frame must not change")
}

func TestFromVideoFrameOffsetBounds(t *testing.T) {
	frame := twoTone(6, 4).SubImage(image.Rect(1, 1, 4, 3))

	captured := FromVideoFrame(frame, false)
	assert.Equal(t, image.Rect(0, 0, 3, 2), captured.Bounds())
	captured.Discard()
}

func TestUseConsumesOnce(t *testing.T) {
	released := 0
	captured := newImage(SourceCamera, twoTone(2, 2), func() { released++ })

	calls := 0
	require.NoError(t, captured.Use(func(image.Image) error { calls++; return nil }))
	assert.ErrorIs(t, captured.Use(func(image.Image) error { calls++; return nil }), ErrConsumed)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, released)
	assert.Equal(t, image.Rectangle{}, captured.Bounds())
}

func TestUseReleasesOnError(t *testing.T) {
	released := false
	captured := newImage(SourceCamera, twoTone(2, 2), func() { released = true })

	err := captured.Use(func(image.Image) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, released)
}

func TestMirrorTwiceRestores(t *testing.T) {
	frame := twoTone(4, 2)
	back := Mirror(Mirror(frame))
	assert.Equal(t, frame.Pix, back.Pix)
}

func TestFromUploadPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, twoTone(7, 5)))

	captured, err := FromUpload(&buf)
	require.NoError(t, err)
	assert.Equal(t, SourceUpload, captured.Source)
	assert.Equal(t, image.Rect(0, 0, 7, 5), captured.Bounds())
}

func TestFromUploadRejectsText(t *testing.T) {
	_, err := FromUpload(strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)
}
