package inference

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"camclassify/internal/models"

	"github.com/nfnt/resize"
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Prepare center-crops img to a square and scales it to size x size.
func Prepare(img image.Image, size int) image.Image {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())

	if b.Dx() != b.Dy() {
		x0 := b.Min.X + (b.Dx()-side)/2
		y0 := b.Min.Y + (b.Dy()-side)/2
		crop := image.Rect(x0, y0, x0+side, y0+side)

		if si, ok := img.(subImager); ok {
			img = si.SubImage(crop)
		} else {
			dst := image.NewRGBA(image.Rect(0, 0, side, side))
			draw.Draw(dst, dst.Bounds(), img, crop.Min, draw.Src)
			img = dst
		}
	}

	if side == size && b.Dx() == b.Dy() {
		return img
	}

	return resize.Resize(uint(size), uint(size), img, resize.Bilinear)
}

// BuildResult pairs scores with labels, turning raw scores into a probability
// distribution when they are not one already.
func BuildResult(labels []string, scores []float64) (models.Result, error) {
	if len(scores) != len(labels) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrClassCount, len(scores), len(labels))
	}

	probs := normalize(scores)

	result := make(models.Result, len(labels))
	for i, label := range labels {
		result[i] = models.Prediction{Label: label, Probability: probs[i]}
	}

	return result, nil
}

func normalize(scores []float64) []float64 {
	sum := 0.0
	distribution := true
	for _, s := range scores {
		if s < 0 || s > 1 || math.IsNaN(s) {
			distribution = false
		}
		sum += s
	}

	out := make([]float64, len(scores))

	if distribution && math.Abs(sum-1) < 1e-3 {
		copy(out, scores)
		return out
	}

	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}

	total := 0.0
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}

	return out
}
