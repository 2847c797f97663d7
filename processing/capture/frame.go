package capture

import (
	"image"
	"image/draw"
	"sync"
)

var surfaces sync.Pool

func acquireSurface(r image.Rectangle) *image.RGBA {
	size := r.Dx() * r.Dy() * 4
	if v, ok := surfaces.Get().(*image.RGBA); ok && cap(v.Pix) >= size {
		v.Pix = v.Pix[:size]
		v.Stride = r.Dx() * 4
		v.Rect = r
		return v
	}
	return image.NewRGBA(r)
}

// FromVideoFrame renders frame onto an off-screen surface of the frame's
// native size, mirrored horizontally when flipped.
func FromVideoFrame(frame image.Image, flipped bool) *Image {
	b := frame.Bounds()
	r := image.Rect(0, 0, b.Dx(), b.Dy())

	surface := acquireSurface(r)
	draw.Draw(surface, r, frame, b.Min, draw.Src)

	if flipped {
		mirrorInPlace(surface)
	}

	return newImage(SourceCamera, surface, func() {
		surfaces.Put(surface)
	})
}

// Mirror returns a horizontally mirrored copy of img.
func Mirror(img image.Image) *image.RGBA {
	out := Clone(img)
	mirrorInPlace(out)
	return out
}

func mirrorInPlace(img *image.RGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for l, r := 0, w-1; l < r; l, r = l+1, r-1 {
			lp, rp := row[l*4:l*4+4], row[r*4:r*4+4]
			for k := 0; k < 4; k++ {
				lp[k], rp[k] = rp[k], lp[k]
			}
		}
	}
}

// Clone copies img into a new RGBA image anchored at the origin.
func Clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}
