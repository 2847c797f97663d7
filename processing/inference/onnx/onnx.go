// Package onnx runs a classification model locally through OpenCV's DNN
// module.
package onnx

import (
	"context"
	"fmt"
	"image"
	"sync"

	"camclassify/internal/models"
	"camclassify/processing/inference"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Classifier expects an NCHW float input in [-1, 1] and one score per label.
type Classifier struct {
	net    gocv.Net
	meta   inference.Metadata
	logger *zap.Logger
	mu     sync.Mutex
}

// Open loads the ONNX model from a path or http(s) URL.
func Open(ctx context.Context, modelURL string, meta inference.Metadata, logger *zap.Logger) (inference.Model, error) {
	data, err := inference.Fetch(ctx, nil, modelURL)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	net, err := gocv.ReadNetFromONNXBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", modelURL)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Classifier{net: net, meta: meta, logger: logger}, nil
}

func (c *Classifier) Labels() []string {
	return append([]string(nil), c.meta.Labels...)
}

func (c *Classifier) Predict(ctx context.Context, img image.Image) (models.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, err := inputBlob(img, c.meta.ImageSize)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.net.SetInput(blob, "")
	out := c.net.Forward("")
	defer out.Close()

	raw, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	scores := make([]float64, len(raw))
	for i, v := range raw {
		scores[i] = float64(v)
	}

	c.logger.Debug("onnx forward", zap.Float64s("scores", scores))

	return inference.BuildResult(c.meta.Labels, scores)
}

// inputBlob builds the NCHW input in RGB channel order. ImageToMatRGB yields a
// BGR Mat, so the blob swaps red and blue back.
func inputBlob(img image.Image, size int) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(inference.Prepare(img, size))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	return gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(size, size), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false), nil
}

func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.net.Close()
}
