package media

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"sync"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
)

// permissionState reports denied when any capture node refuses to open.
func permissionState(devices []Device) Permission {
	for _, d := range FilterKind(devices, KindVideoInput) {
		if !isDeviceNode(d) {
			continue
		}
		f, err := os.OpenFile(d.ID, os.O_RDONLY, 0)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return PermissionDenied
			}
			continue
		}
		f.Close()
	}
	return PermissionGranted
}

func isDeviceNode(d Device) bool {
	return d.Kind == KindVideoInput && len(d.ID) > 0 && d.ID[0] == '/'
}

// deviceHandle holds a capture node open without streaming from it.
type deviceHandle struct {
	once sync.Once
	f    *os.File
}

func (h *deviceHandle) Kind() string { return KindVideoInput }

func (h *deviceHandle) Stop() {
	h.once.Do(func() {
		h.f.Close()
	})
}

type probeStream struct {
	tracks []Track
	frames chan image.Image
	errs   chan error
}

func (p *probeStream) Tracks() []Track               { return p.tracks }
func (p *probeStream) FrameChan() <-chan image.Image { return p.frames }
func (p *probeStream) ErrorChan() <-chan error       { return p.errs }

// openProbe opens the first capture node read-write so the OS access check
// runs.
func openProbe(devices []Device) (Stream, error) {
	for _, d := range devices {
		if !isDeviceNode(d) {
			continue
		}

		f, err := os.OpenFile(d.ID, os.O_RDWR, 0)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil, fmt.Errorf("%s: %w", d.ID, ErrPermissionDenied)
			}
			return nil, fmt.Errorf("open %s: %w", d.ID, err)
		}

		frames := make(chan image.Image)
		errs := make(chan error)
		close(frames)
		close(errs)

		return &probeStream{tracks: []Track{&deviceHandle{f: f}}, frames: frames, errs: errs}, nil
	}

	return nil, ErrDeviceNotFound
}
