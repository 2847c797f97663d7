package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"camclassify/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RemoteClassifier sends JPEG frames over a websocket and reads back one JSON
// array of predictions per frame.
type RemoteClassifier struct {
	serverURL string
	meta      Metadata
	logger    *zap.Logger
	dialer    *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// OpenRemote connects to the classification server at modelURL.
func OpenRemote(ctx context.Context, modelURL string, meta Metadata, logger *zap.Logger) (Model, error) {
	d := &RemoteClassifier{
		serverURL: modelURL,
		meta:      meta,
		logger:    logger,
		dialer:    websocket.DefaultDialer,
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connectLocked(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *RemoteClassifier) connectLocked(ctx context.Context) error {
	d.logger.Info("connecting to classification server...", zap.String("url", d.serverURL))

	conn, _, err := d.dialer.DialContext(ctx, d.serverURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", d.serverURL, err)
	}

	d.logger.Info("connected to classification server")
	d.conn = conn

	return nil
}

func (d *RemoteClassifier) Labels() []string {
	return append([]string(nil), d.meta.Labels...)
}

// Predict makes one request. A broken connection is dropped and redialed on
// the next call; the failed call is not retried.
func (d *RemoteClassifier) Predict(ctx context.Context, img image.Image) (models.Result, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Prepare(img, d.meta.ImageSize), &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("JPEG encode: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		if err := d.connectLocked(ctx); err != nil {
			return nil, err
		}
	}

	deadline, _ := ctx.Deadline()
	d.conn.SetWriteDeadline(deadline)
	d.conn.SetReadDeadline(deadline)

	// Cancellation has no deadline to map to; closing the socket unblocks I/O.
	conn := d.conn
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		if !stop() && d.conn == conn {
			d.dropLocked(ctx.Err())
		}
	}()

	if err := d.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
		d.dropLocked(err)
		return nil, fmt.Errorf("send frame: %w", ctxErr(ctx, err))
	}

	_, message, err := d.conn.ReadMessage()
	if err != nil {
		d.dropLocked(err)
		return nil, fmt.Errorf("read result: %w", ctxErr(ctx, err))
	}

	var predictions []models.Prediction
	if err := json.Unmarshal(message, &predictions); err != nil {
		return nil, fmt.Errorf("JSON decode error: %w", err)
	}

	return d.order(predictions)
}

// order arranges server predictions in metadata label order.
func (d *RemoteClassifier) order(predictions []models.Prediction) (models.Result, error) {
	byLabel := make(map[string]float64, len(predictions))
	for _, p := range predictions {
		byLabel[p.Label] = p.Probability
	}

	if len(predictions) != len(d.meta.Labels) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrClassCount, len(predictions), len(d.meta.Labels))
	}

	scores := make([]float64, len(d.meta.Labels))
	for i, label := range d.meta.Labels {
		p, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("%w: missing label %q", ErrClassCount, label)
		}
		scores[i] = p
	}

	return BuildResult(d.meta.Labels, scores)
}

// ctxErr prefers the context's error when ctx ended the request.
func ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (d *RemoteClassifier) dropLocked(err error) {
	d.logger.Warn("connection lost", zap.Error(err))
	d.conn.Close()
	d.conn = nil
}

func (d *RemoteClassifier) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	d.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	err := d.conn.Close()
	d.conn = nil
	return err
}
