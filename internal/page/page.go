// Package page coordinates the classifier window: input mode, camera devices,
// countdown capture, inference and result display. Each user action runs as
// one sequence with a single error boundary.
package page

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"time"

	"camclassify/internal/clock"
	"camclassify/internal/config"
	"camclassify/internal/i18n"
	"camclassify/internal/logging"
	"camclassify/internal/models"
	"camclassify/processing/camera"
	"camclassify/processing/capture"
	"camclassify/processing/inference"
	"camclassify/processing/media"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

const (
	previewWidth  = 480
	previewHeight = 360
)

type Options struct {
	Platform   media.Platform
	Model      inference.Model
	View       View
	Translator *i18n.Translator
	Logger     *zap.Logger

	Clock         clock.Clock
	CountdownStep time.Duration
	Mode          config.Mode
	Flipped       bool
}

// Page holds all per-window state. It is built once at startup.
type Page struct {
	view      View
	platform  media.Platform
	model     inference.Model
	tr        *i18n.Translator
	logger    *zap.Logger
	camera    *camera.Controller
	enum      *Enumerator
	presenter *Presenter
	countdown *Countdown

	// ctx outlives single actions; countdown captures run under it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	mode config.Mode
}

func New(opts Options) *Page {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	step := opts.CountdownStep
	if step <= 0 {
		step = time.Second
	}
	mode := opts.Mode
	if mode != config.ModeCamera {
		mode = config.ModeUpload
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Page{
		view:     opts.View,
		platform: opts.Platform,
		model:    opts.Model,
		tr:       opts.Translator,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		mode:     mode,
	}

	p.camera = camera.NewController(opts.Platform, p.showFrame, logger.Named("camera"))
	p.camera.SetFlipped(opts.Flipped)
	p.camera.SetErrorHandler(p.streamFailed)
	p.enum = NewEnumerator(opts.Platform, logger.Named("enumerator"))
	p.presenter = NewPresenter(opts.View)
	p.countdown = NewCountdown(clk, step, opts.View, p.captureFrame)

	opts.View.SetFlipped(opts.Flipped)

	return p
}

func (p *Page) showFrame(frame image.Image) {
	if p.camera.Flipped() {
		frame = capture.Mirror(frame)
	}
	p.view.ShowFrame(frame)
}

// Start brings the initial mode up. In camera mode that is a device refresh.
func (p *Page) Start(ctx context.Context) {
	if p.Mode() == config.ModeCamera {
		p.Refresh(ctx)
	}
}

func (p *Page) Mode() config.Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *Page) Camera() *camera.Controller { return p.camera }

func (p *Page) Countdown() *Countdown { return p.countdown }

// Refresh re-reads the device list and keeps the stream on a present device.
// Failures end up in the status area.
func (p *Page) Refresh(ctx context.Context) {
	err := p.refresh(ctx)
	if err == nil {
		return
	}

	p.logger.Warn("device refresh failed", zap.Error(logging.NewOperationError("page.refresh", "", err)))
	p.view.SetStatus(p.statusFor(err))
}

func (p *Page) refresh(ctx context.Context) error {
	if err := p.enum.EnsurePermission(ctx); err != nil {
		return err
	}

	p.view.SetDevices(nil, "")

	devices, err := p.enum.ListDevices(ctx)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		p.camera.Release()
		p.view.SetNoCamera(true)
		p.view.SetStatus(p.tr.T(i18n.CameraNotFound))
		return nil
	}

	bound := p.camera.DeviceID()
	present := false
	for _, d := range devices {
		if bound != "" && d.ID == bound {
			present = true
			break
		}
	}

	selected := bound
	if !present {
		selected = devices[0].ID
	}
	p.view.SetDevices(devices, selected)

	if !present || p.camera.State() == camera.StateIdle {
		if err := p.startCamera(ctx, selected); err != nil {
			return err
		}
	}

	p.view.SetNoCamera(false)
	p.view.SetStatus("")

	return nil
}

func (p *Page) statusFor(err error) string {
	if errors.Is(err, media.ErrPermissionDenied) {
		return p.tr.T(i18n.CameraPermission)
	}
	return err.Error()
}

// startCamera opens deviceID and drops it again when the user left camera
// mode while the stream was opening.
func (p *Page) startCamera(ctx context.Context, deviceID string) error {
	if err := p.camera.Start(ctx, deviceID); err != nil {
		return err
	}
	if p.Mode() != config.ModeCamera {
		p.camera.Release()
	}
	return nil
}

// streamFailed reports a stream that died after it started. The next refresh
// reopens the bound device.
func (p *Page) streamFailed(deviceID string, err error) {
	p.logger.Warn("camera stream failed", zap.String("device_id", deviceID),
		zap.Error(logging.NewOperationError("page.stream", "", err)))

	if p.Mode() != config.ModeCamera {
		return
	}
	p.view.SetStatus(p.statusFor(err))
}

// SelectDevice streams the device picked in the selector.
func (p *Page) SelectDevice(ctx context.Context, deviceID string) {
	if deviceID == "" {
		return
	}
	if deviceID == p.camera.DeviceID() && p.camera.State() == camera.StateStreaming {
		return
	}
	if err := p.startCamera(ctx, deviceID); err != nil {
		p.logger.Warn("select device failed", zap.String("device_id", deviceID), zap.Error(err))
		p.view.SetStatus(p.statusFor(err))
	}
}

// SwitchMode changes between upload and camera input. Re-selecting the
// active mode does nothing.
func (p *Page) SwitchMode(ctx context.Context, mode config.Mode) {
	p.mu.Lock()
	if p.mode == mode {
		p.mu.Unlock()
		return
	}
	p.mode = mode
	p.mu.Unlock()

	switch mode {
	case config.ModeUpload:
		p.camera.Release()
	case config.ModeCamera:
		p.Refresh(ctx)
	}
}

// DeviceChanged handles a hardware change notification.
func (p *Page) DeviceChanged(ctx context.Context) {
	if p.Mode() != config.ModeCamera {
		return
	}
	p.Refresh(ctx)
}

// Watch forwards platform hotplug notifications until ctx ends.
func (p *Page) Watch(ctx context.Context) {
	changes := p.platform.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			p.DeviceChanged(ctx)
		}
	}
}

// ToggleFlip mirrors the live view and later captures.
func (p *Page) ToggleFlip() bool {
	flipped := p.camera.ToggleFlip()
	p.view.SetFlipped(flipped)
	return flipped
}

// TakePhoto starts the countdown capture.
func (p *Page) TakePhoto() bool {
	return p.countdown.Trigger()
}

func (p *Page) captureFrame() {
	frame, err := p.camera.Snapshot()
	if err != nil {
		p.logger.Error("capture failed", zap.Error(logging.NewOperationError("page.capture", "", err)))
		return
	}

	captured := capture.FromVideoFrame(frame, p.camera.Flipped())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Predict(p.ctx, captured)
	}()
}

// PredictUpload classifies an uploaded file.
func (p *Page) PredictUpload(ctx context.Context, r io.Reader) (models.Verdict, error) {
	captured, err := capture.FromUpload(r)
	if err != nil {
		wrapped := logging.NewOperationError("page.predict_upload", "", err)
		p.logger.Error("upload rejected", zap.Error(wrapped))
		return "", wrapped
	}
	return p.Predict(ctx, captured)
}

// Predict runs one captured image through the model and presents the verdict.
// Errors are logged and returned; nothing is shown to the user.
func (p *Page) Predict(ctx context.Context, captured *capture.Image) (models.Verdict, error) {
	requestID := uuid.NewString()
	logger := logging.WithOperation(p.logger, "page.predict", requestID)

	var result models.Result
	err := captured.Use(func(img image.Image) error {
		p.view.SetPreview(resize.Thumbnail(previewWidth, previewHeight, capture.Clone(img), resize.Bilinear))

		start := time.Now()
		r, err := p.model.Predict(ctx, img)
		if err != nil {
			return err
		}

		logger.Info("prediction",
			zap.String("source", string(captured.Source)),
			zap.Any("result", r),
			zap.Duration("latency", time.Since(start)),
		)
		result = r.Clone()
		return nil
	})
	if err != nil {
		wrapped := logging.NewOperationError("page.predict", requestID, err)
		logger.Error("prediction failed", zap.Error(wrapped))
		return "", wrapped
	}

	verdict, err := p.presenter.Present(result)
	if err != nil {
		wrapped := logging.NewOperationError("page.present", requestID, err)
		logger.Error("present failed", zap.Error(wrapped))
		return "", wrapped
	}

	return verdict, nil
}

// Close stops the countdown and camera and waits for in-flight captures.
func (p *Page) Close() error {
	p.countdown.Cancel()
	p.camera.Release()
	p.cancel()
	p.wg.Wait()

	if p.model == nil {
		return nil
	}
	return p.model.Close()
}
