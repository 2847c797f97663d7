// Package inference wraps the external image classification model.
package inference

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"

	"camclassify/internal/models"

	"go.uber.org/zap"
)

var (
	ErrClassCount = errors.New("prediction class count does not match model labels")
	ErrNoBackend  = errors.New("no inference backend for model")
)

// Model classifies one image. Results are in the model's class order.
type Model interface {
	Predict(ctx context.Context, img image.Image) (models.Result, error)
	Labels() []string
	Close() error
}

// Backend opens a model located at modelURL.
type Backend func(ctx context.Context, modelURL string, meta Metadata, logger *zap.Logger) (Model, error)

const (
	BackendRemote = "remote"
	BackendONNX   = "onnx"
)

// Loader picks a backend from the model location: ws:// and wss:// go to the
// remote classifier, everything else to the onnx backend.
type Loader struct {
	client   *http.Client
	logger   *zap.Logger
	backends map[string]Backend
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Loader{
		client:   http.DefaultClient,
		logger:   logger,
		backends: map[string]Backend{},
	}
	l.Register(BackendRemote, OpenRemote)

	return l
}

func (l *Loader) Register(name string, b Backend) {
	l.backends[name] = b
}

func (l *Loader) backendFor(modelURL string) string {
	if u, err := url.Parse(modelURL); err == nil {
		switch strings.ToLower(u.Scheme) {
		case "ws", "wss":
			return BackendRemote
		}
	}
	return BackendONNX
}

// Load reads the metadata and opens the model. It is meant to run once at
// startup.
func (l *Loader) Load(ctx context.Context, modelURL, metadataURL string) (Model, error) {
	meta, err := LoadMetadata(ctx, l.client, metadataURL)
	if err != nil {
		return nil, err
	}

	name := l.backendFor(modelURL)
	backend, ok := l.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoBackend, modelURL, name)
	}

	model, err := backend(ctx, modelURL, meta, l.logger.With(zap.String("backend", name)))
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelURL, err)
	}

	l.logger.Info("model loaded",
		zap.String("model_url", modelURL),
		zap.String("backend", name),
		zap.Strings("labels", meta.Labels),
	)

	return model, nil
}
