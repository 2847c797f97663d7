// Package mediatest provides an in-memory media.Platform for tests.
package mediatest

import (
	"context"
	"image"
	"sync"

	"camclassify/processing/media"
)

type Track struct {
	mu      sync.Mutex
	stopped bool
	onStop  func()
}

func (t *Track) Kind() string { return media.KindVideoInput }

func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	if t.onStop != nil {
		t.onStop()
	}
}

func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Stream is a single-track stream whose frames are pushed by the test.
type Stream struct {
	DeviceID string
	Track    *Track

	frames    chan image.Image
	errs      chan error
	closeOnce sync.Once
}

func NewStream(deviceID string) *Stream {
	s := &Stream{
		DeviceID: deviceID,
		frames:   make(chan image.Image, 16),
		errs:     make(chan error, 1),
	}
	s.Track = &Track{onStop: s.close}
	return s
}

func (s *Stream) close() {
	s.closeOnce.Do(func() {
		close(s.frames)
	})
}

// Push queues a frame. It is a no-op on a stopped stream.
func (s *Stream) Push(img image.Image) {
	if s.Track.Stopped() {
		return
	}
	s.frames <- img
}

// Fail reports err on the error channel, as a source that died would.
func (s *Stream) Fail(err error) {
	s.errs <- err
}

func (s *Stream) Tracks() []media.Track         { return []media.Track{s.Track} }
func (s *Stream) FrameChan() <-chan image.Image { return s.frames }
func (s *Stream) ErrorChan() <-chan error       { return s.errs }

// Platform records every call and serves canned answers.
type Platform struct {
	mu sync.Mutex

	Permission    media.Permission
	PermissionErr error
	ProbeErr      error
	DeviceList    []media.Device
	DevicesErr    error
	OpenErr       map[string]error

	// BeforeOpen, when set, runs at the start of Open without the lock held.
	BeforeOpen func(deviceID string)

	Probes  []*Stream
	Opened  []*Stream
	changes chan struct{}
}

func NewPlatform(devices ...media.Device) *Platform {
	return &Platform{
		Permission: media.PermissionGranted,
		DeviceList: devices,
		OpenErr:    map[string]error{},
		changes:    make(chan struct{}, 1),
	}
}

func (p *Platform) PermissionState(ctx context.Context) (media.Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Permission, p.PermissionErr
}

func (p *Platform) OpenProbe(ctx context.Context) (media.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ProbeErr != nil {
		return nil, p.ProbeErr
	}
	s := NewStream("probe")
	p.Probes = append(p.Probes, s)
	return s, nil
}

func (p *Platform) Devices(ctx context.Context) ([]media.Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.DevicesErr != nil {
		return nil, p.DevicesErr
	}
	return append([]media.Device(nil), p.DeviceList...), nil
}

func (p *Platform) Open(ctx context.Context, deviceID string) (media.Stream, error) {
	p.mu.Lock()
	before := p.BeforeOpen
	p.mu.Unlock()
	if before != nil {
		before(deviceID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.OpenErr[deviceID]; err != nil {
		return nil, err
	}
	s := NewStream(deviceID)
	p.Opened = append(p.Opened, s)
	return s, nil
}

func (p *Platform) Changes() <-chan struct{} { return p.changes }

// SetDevices replaces the device list and raises a change notification.
func (p *Platform) SetDevices(devices ...media.Device) {
	p.mu.Lock()
	p.DeviceList = devices
	p.mu.Unlock()

	select {
	case p.changes <- struct{}{}:
	default:
	}
}

func (p *Platform) OpenedStreams() []*Stream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Stream(nil), p.Opened...)
}

// Active returns the opened streams whose track is still running.
func (p *Platform) Active() []*Stream {
	var active []*Stream
	for _, s := range p.OpenedStreams() {
		if !s.Track.Stopped() {
			active = append(active, s)
		}
	}
	return active
}
