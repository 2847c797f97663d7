// Package camera owns the single active camera stream.
package camera

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"camclassify/processing/media"

	"go.uber.org/zap"
)

var ErrNoFrame = errors.New("no video frame available")

type State int

const (
	StateIdle State = iota
	StateStreaming
)

// Controller binds at most one stream to the video sink.
type Controller struct {
	platform media.Platform
	sink     func(image.Image)
	logger   *zap.Logger

	flipped atomic.Bool
	onError func(deviceID string, err error)

	mu       sync.Mutex
	stream   media.Stream
	player   *Player
	deviceID string
}

// NewController creates an idle controller. sink receives every frame of the
// active stream; it must not call back into the controller's locking methods.
func NewController(platform media.Platform, sink func(image.Image), logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{platform: platform, sink: sink, logger: logger}
}

// SetErrorHandler registers fn for streams that fail after Start returned.
// The failed stream is already detached when fn runs. Set it before the
// first Start.
func (c *Controller) SetErrorHandler(fn func(deviceID string, err error)) {
	c.onError = fn
}

// Start opens deviceID and makes it the active stream, stopping the previous
// one. An empty id is a no-op.
func (c *Controller) Start(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return nil
	}

	stream, err := c.platform.Open(ctx, deviceID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	c.stream = stream
	c.deviceID = deviceID
	var player *Player
	player = newPlayer(stream, c.sink, func(err error) {
		go c.streamFailed(player, err)
	}, c.logger.With(zap.String("device_id", deviceID)))
	c.player = player
	c.player.Start()

	c.logger.Info("camera streaming", zap.String("device_id", deviceID))

	return nil
}

// Stop stops every track of the active stream. The bound device id is kept.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Release stops the stream and forgets the bound device id.
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.deviceID = ""
}

func (c *Controller) stopLocked() {
	if c.stream == nil {
		return
	}

	media.StopTracks(c.stream)
	c.player.Stop()

	c.stream = nil
	c.player = nil
}

// streamFailed detaches a stream whose source died. The device id stays bound,
// so a later Start of the same id opens it again.
func (c *Controller) streamFailed(player *Player, err error) {
	c.mu.Lock()
	if c.player != player {
		c.mu.Unlock()
		return
	}
	media.StopTracks(c.stream)
	c.stream = nil
	c.player = nil
	deviceID := c.deviceID
	c.mu.Unlock()

	player.Stop()

	if c.onError != nil {
		c.onError(deviceID, err)
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return StateIdle
	}
	return StateStreaming
}

func (c *Controller) DeviceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceID
}

// ToggleFlip flips the display mirror flag and returns the new value.
func (c *Controller) ToggleFlip() bool {
	for {
		old := c.flipped.Load()
		if c.flipped.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (c *Controller) SetFlipped(flipped bool) {
	c.flipped.Store(flipped)
}

func (c *Controller) Flipped() bool {
	return c.flipped.Load()
}

// Snapshot returns the latest frame of the active stream.
func (c *Controller) Snapshot() (image.Image, error) {
	c.mu.Lock()
	player := c.player
	c.mu.Unlock()

	if player == nil {
		return nil, ErrNoFrame
	}

	frame := player.LastFrame()
	if frame == nil {
		return nil, ErrNoFrame
	}
	return frame, nil
}

func (c *Controller) FPS() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player == nil {
		return 0
	}
	return c.player.FPS()
}
