package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"camclassify/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const metadataJSON = `{"modelName":"tm-my-image-model","labels":["Class 1","Class 2"],"imageSize":224}`

func writeMetadata(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(metadataJSON), 0o644))
	return path
}

func TestBuildResultKeepsDistribution(t *testing.T) {
	result, err := BuildResult([]string{"a", "b"}, []float64{0.3, 0.7})
	require.NoError(t, err)

	assert.Equal(t, models.Result{{Label: "a", Probability: 0.3}, {Label: "b", Probability: 0.7}}, result)
}

func TestBuildResultSoftmaxesLogits(t *testing.T) {
	result, err := BuildResult([]string{"a", "b"}, []float64{2, 2})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, result[0].Probability, 1e-9)
	assert.InDelta(t, 1.0, result[0].Probability+result[1].Probability, 1e-9)
}

func TestBuildResultClassCount(t *testing.T) {
	_, err := BuildResult([]string{"a", "b"}, []float64{1})
	assert.ErrorIs(t, err, ErrClassCount)
}

func TestPrepareCropsAndScales(t *testing.T) {
	out := Prepare(image.NewRGBA(image.Rect(0, 0, 640, 480)), 224)
	assert.Equal(t, 224, out.Bounds().Dx())
	assert.Equal(t, 224, out.Bounds().Dy())

	same := image.NewRGBA(image.Rect(0, 0, 224, 224))
	assert.Same(t, same, Prepare(same, 224))
}

// plainImage hides the SubImage method of the wrapped image.
type plainImage struct{ image.Image }

func TestPrepareCropsImagesWithoutSubImage(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	src := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if x >= 2 && x < 6 {
				src.Set(x, y, blue)
			} else {
				src.Set(x, y, red)
			}
		}
	}

	out := Prepare(plainImage{src}, 4)
	require.Equal(t, image.Rect(0, 0, 4, 4), out.Bounds())

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			r, _, b, _ := out.At(x, y).RGBA()
			assert.Less(t, r, uint32(0x100), "pixel %d,%d", x, y)
			assert.Greater(t, b, uint32(0xff00), "pixel %d,%d", x, y)
		}
	}
}

func TestLoadMetadataFromFile(t *testing.T) {
	meta, err := LoadMetadata(context.Background(), nil, writeMetadata(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Class 1", "Class 2"}, meta.Labels)
	assert.Equal(t, 224, meta.ImageSize)
}

func TestLoadMetadataOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/model/metadata.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"labels":["yes","no"]}`))
	}))
	defer srv.Close()

	meta, err := LoadMetadata(context.Background(), srv.Client(), srv.URL+"/model/metadata.json")
	require.NoError(t, err)
	assert.Equal(t, defaultImageSize, meta.ImageSize)

	_, err = LoadMetadata(context.Background(), srv.Client(), srv.URL+"/missing.json")
	assert.Error(t, err)
}

func TestLoadMetadataRequiresLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"labels":[]}`), 0o644))

	_, err := LoadMetadata(context.Background(), nil, path)
	assert.Error(t, err)
}

func TestLoaderWithoutONNXBackend(t *testing.T) {
	l := NewLoader(zap.NewNop())

	_, err := l.Load(context.Background(), "model/model.onnx", writeMetadata(t))
	assert.ErrorIs(t, err, ErrNoBackend)
}

type staticModel struct{ labels []string }

func (m *staticModel) Predict(context.Context, image.Image) (models.Result, error) {
	return BuildResult(m.labels, []float64{1, 0})
}
func (m *staticModel) Labels() []string { return m.labels }
func (m *staticModel) Close() error     { return nil }

func TestLoaderDispatchesToRegisteredBackend(t *testing.T) {
	l := NewLoader(zap.NewNop())

	var gotURL string
	l.Register(BackendONNX, func(ctx context.Context, modelURL string, meta Metadata, logger *zap.Logger) (Model, error) {
		gotURL = modelURL
		return &staticModel{labels: meta.Labels}, nil
	})

	model, err := l.Load(context.Background(), "https://example.com/model.onnx", writeMetadata(t))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/model.onnx", gotURL)
	assert.Equal(t, []string{"Class 1", "Class 2"}, model.Labels())
}

// classificationServer answers every frame with the given predictions after
// checking the frame is a JPEG of the expected size.
func classificationServer(t *testing.T, reply []models.Prediction) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				return
			}
			img, err := jpeg.Decode(bytes.NewReader(data))
			if err != nil || img.Bounds().Dx() != 224 {
				conn.WriteMessage(websocket.TextMessage, []byte(`[]`))
				continue
			}
			body, _ := json.Marshal(reply)
			conn.WriteMessage(websocket.TextMessage, body)
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestRemoteClassifierOrdersByLabels(t *testing.T) {
	srv := classificationServer(t, []models.Prediction{
		{Label: "Class 2", Probability: 0.8},
		{Label: "Class 1", Probability: 0.2},
	})
	defer srv.Close()

	l := NewLoader(zap.NewNop())
	model, err := l.Load(context.Background(), wsURL(srv), writeMetadata(t))
	require.NoError(t, err)
	defer model.Close()

	result, err := model.Predict(context.Background(), image.NewRGBA(image.Rect(0, 0, 320, 240)))
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Class 1", result[0].Label)
	assert.InDelta(t, 0.2, result[0].Probability, 1e-9)

	_, err = model.Predict(context.Background(), image.NewRGBA(image.Rect(0, 0, 32, 32)))
	require.NoError(t, err)
}

func TestRemoteClassifierWrongClassCount(t *testing.T) {
	srv := classificationServer(t, []models.Prediction{{Label: "Class 1", Probability: 1}})
	defer srv.Close()

	meta, err := LoadMetadata(context.Background(), nil, writeMetadata(t))
	require.NoError(t, err)

	model, err := OpenRemote(context.Background(), wsURL(srv), meta, zap.NewNop())
	require.NoError(t, err)
	defer model.Close()

	_, err = model.Predict(context.Background(), image.NewRGBA(image.Rect(0, 0, 10, 10)))
	assert.ErrorIs(t, err, ErrClassCount)
}

func TestOpenRemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	_, err := OpenRemote(context.Background(), url, Metadata{Labels: []string{"a", "b"}, ImageSize: 224}, zap.NewNop())
	assert.Error(t, err)
}

func TestRemoteClassifierCancelUnblocksRead(t *testing.T) {
	received := make(chan struct{}, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}))
	defer srv.Close()

	meta := Metadata{Labels: []string{"Class 1", "Class 2"}, ImageSize: 224}
	model, err := OpenRemote(context.Background(), wsURL(srv), meta, zap.NewNop())
	require.NoError(t, err)
	defer model.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := model.Predict(ctx, image.NewRGBA(image.Rect(0, 0, 32, 32)))
		done <- err
	}()

	<-received
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Predict still blocked after cancel")
	}

	require.NoError(t, model.Close())
}
