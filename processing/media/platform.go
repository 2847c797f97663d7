package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// Platform is the camera surface the application consumes: permission,
// enumeration with hotplug notifications, and stream acquisition by exact id.
type Platform interface {
	PermissionState(ctx context.Context) (Permission, error)
	OpenProbe(ctx context.Context) (Stream, error)
	Devices(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, deviceID string) (Stream, error)
	Changes() <-chan struct{}
}

type Options struct {
	DevDir      string
	SysDir      string
	FileSources []string

	FPS    uint
	Width  int
	Height int

	Logger *zap.Logger
}

// System is the Platform backed by V4L2 nodes (or DirectShow on Windows),
// ffmpeg, and video files.
type System struct {
	opts    Options
	logger  *zap.Logger
	watcher *Watcher
}

// NewSystem builds the platform. Hotplug is best effort: a watcher that cannot
// start is logged and Changes never fires.
func NewSystem(opts Options) *System {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &System{opts: opts, logger: logger}

	dirs, match := s.watchTargets()
	if len(dirs) > 0 {
		w, err := NewWatcher(dirs, match, logger)
		if err != nil {
			logger.Warn("device hotplug disabled", zap.Error(err))
		} else {
			s.watcher = w
		}
	}

	return s
}

func (s *System) watchTargets() ([]string, func(string) bool) {
	var dirs []string
	seen := map[string]bool{}

	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		if _, err := os.Stat(dir); err != nil {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	if runtime.GOOS != "windows" {
		add(s.opts.DevDir)
	}

	sources := map[string]bool{}
	for _, p := range s.opts.FileSources {
		add(filepath.Dir(p))
		sources[filepath.Clean(p)] = true
	}

	match := func(path string) bool {
		if strings.HasPrefix(filepath.Base(path), "video") && filepath.Dir(path) == filepath.Clean(s.opts.DevDir) {
			return true
		}
		return sources[filepath.Clean(path)]
	}

	return dirs, match
}

func (s *System) Devices(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var devices []Device

	if runtime.GOOS == "windows" {
		devices = listDshowCameras()
	} else {
		v4l2, err := listV4L2Devices(s.opts.DevDir, s.opts.SysDir)
		if err != nil {
			return nil, fmt.Errorf("list video devices: %w", err)
		}
		devices = v4l2
	}

	return append(devices, fileDevices(s.opts.FileSources)...), nil
}

func (s *System) PermissionState(ctx context.Context) (Permission, error) {
	devices, err := s.Devices(ctx)
	if err != nil {
		return PermissionPrompt, err
	}
	return permissionState(devices), nil
}

func (s *System) OpenProbe(ctx context.Context) (Stream, error) {
	devices, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}
	return openProbe(devices)
}

// Open starts a stream on exactly deviceID.
func (s *System) Open(ctx context.Context, deviceID string) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.HasPrefix(deviceID, "/") {
		if _, err := os.Stat(deviceID); err != nil {
			return nil, fmt.Errorf("%s: %w", deviceID, ErrDeviceNotFound)
		}
	}

	streamer, err := NewStreamer(deviceID, s.opts.FPS, s.opts.Width, s.opts.Height)
	if err != nil {
		return nil, err
	}

	if err := streamer.Start(); err != nil {
		return nil, err
	}

	s.logger.Info("stream opened", zap.String("device_id", deviceID))

	return streamer, nil
}

func (s *System) Changes() <-chan struct{} {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Changes()
}

func (s *System) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
