// Package capture turns a video frame or an uploaded file into a single still
// image for inference.
package capture

import (
	"errors"
	"image"
	"sync"
)

var (
	ErrConsumed = errors.New("captured image already consumed")
	ErrNotImage = errors.New("file is not an image")
)

type Source string

const (
	SourceUpload Source = "upload"
	SourceCamera Source = "camera"
)

// Image is a captured still. It can be used exactly once; its backing buffer
// is released as soon as that use returns.
type Image struct {
	Source Source

	mu      sync.Mutex
	img     image.Image
	release func()
}

func newImage(src Source, img image.Image, release func()) *Image {
	return &Image{Source: src, img: img, release: release}
}

// Bounds reports the image size, or an empty rectangle once consumed.
func (i *Image) Bounds() image.Rectangle {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.img == nil {
		return image.Rectangle{}
	}
	return i.img.Bounds()
}

// Use hands the image to fn and releases it afterwards. fn must not retain
// the image.
func (i *Image) Use(fn func(image.Image) error) error {
	i.mu.Lock()
	img, release := i.img, i.release
	i.img, i.release = nil, nil
	i.mu.Unlock()

	if img == nil {
		return ErrConsumed
	}
	if release != nil {
		defer release()
	}

	return fn(img)
}

// Discard releases the image without using it.
func (i *Image) Discard() {
	_ = i.Use(func(image.Image) error { return nil })
}
