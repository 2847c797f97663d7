package media

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os/exec"
	"regexp"
	"runtime"
	"sync"
)

type FFmpegWebcamStreamer struct {
	stopOnce sync.Once
	waitOnce sync.Once

	// command builds the capture process from ffmpeg arguments.
	command func(args ...string) *exec.Cmd

	deviceID  string
	width     int
	height    int
	targetFPS uint

	cmd       *exec.Cmd
	stderr    bytes.Buffer
	frameChan chan image.Image
	errChan   chan error

	stopChan chan struct{}
}

func NewFFmpegWebcam(deviceID string, targetFps uint, scaledWidth int, scaledHeight int) *FFmpegWebcamStreamer {
	return &FFmpegWebcamStreamer{
		deviceID:  deviceID,
		width:     scaledWidth,
		height:    scaledHeight,
		targetFPS: targetFps,

		command: func(args ...string) *exec.Cmd {
			return exec.Command("ffmpeg", args...)
		},

		frameChan: make(chan image.Image),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}
}

func (ws *FFmpegWebcamStreamer) args() []string {
	input := []string{"-f", "v4l2", "-i", ws.deviceID}
	if runtime.GOOS == "windows" {
		input = []string{"-f", "dshow", "-i", fmt.Sprintf("video=%s", ws.deviceID)}
	}

	return append(input,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d", ws.targetFPS, ws.width, ws.height),
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	)
}

func (ws *FFmpegWebcamStreamer) Start() error {
	ws.cmd = ws.command(ws.args()...)
	ws.cmd.Stderr = &ws.stderr

	stdout, err := ws.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := ws.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w. Details: %s", err, ws.stderr.String())
	}

	go ws.readLoop(stdout)

	return nil
}

func (ws *FFmpegWebcamStreamer) readLoop(stdout io.ReadCloser) {
	defer close(ws.frameChan)
	defer close(ws.errChan)
	defer stdout.Close()
	defer ws.stopCmdOut()

	frameSize := ws.width * ws.height * 4
	buffer := make([]byte, frameSize)

	for {
		select {
		case <-ws.stopChan:
			return

		default:
			_, err := io.ReadFull(stdout, buffer)
			if err != nil {
				select {
				case <-ws.stopChan:
					return
				default:
					// stderr is only complete once the process has been waited for.
					ws.stopCmdOut()
					ws.errChan <- classifyFFmpegError(ws.deviceID, ws.stderr.String(), err)
					return
				}
			}

			pixelData := make([]byte, len(buffer))
			copy(pixelData, buffer)

			img := &image.RGBA{
				Pix:    pixelData,
				Stride: ws.width * 4,
				Rect:   image.Rect(0, 0, ws.width, ws.height),
			}

			select {
			case ws.frameChan <- img:
			case <-ws.stopChan:
				return
			}
		}
	}
}

func (ws *FFmpegWebcamStreamer) stopCmdOut() {
	if ws.cmd != nil && ws.cmd.Process != nil {
		ws.cmd.Process.Kill()
		ws.waitOnce.Do(func() {
			ws.cmd.Wait()
		})
	}
}

func (ws *FFmpegWebcamStreamer) Stop() {
	ws.stopOnce.Do(func() {
		close(ws.stopChan)
		ws.stopCmdOut()
	})
}

func (ws *FFmpegWebcamStreamer) Kind() string                  { return KindVideoInput }
func (ws *FFmpegWebcamStreamer) Tracks() []Track               { return []Track{ws} }
func (ws *FFmpegWebcamStreamer) FrameChan() <-chan image.Image { return ws.frameChan }
func (ws *FFmpegWebcamStreamer) ErrorChan() <-chan error       { return ws.errChan }

var (
	permissionDeniedRe = regexp.MustCompile(`(?i)permission denied`)
	busyRe             = regexp.MustCompile(`(?i)device or resource busy`)
	missingRe          = regexp.MustCompile(`(?i)no such file or directory|could not find video device`)
)

func classifyFFmpegError(deviceID, stderr string, err error) error {
	switch {
	case permissionDeniedRe.MatchString(stderr):
		return fmt.Errorf("%s: %w", deviceID, ErrPermissionDenied)
	case busyRe.MatchString(stderr):
		return fmt.Errorf("%s: %w", deviceID, ErrDeviceBusy)
	case missingRe.MatchString(stderr):
		return fmt.Errorf("%s: %w", deviceID, ErrDeviceNotFound)
	default:
		return fmt.Errorf("read error: %v", err)
	}
}

var dshowVideoRe = regexp.MustCompile(`"([^"]+)"\s+\(video\)`)

func listDshowCameras() []Device {
	cmd := exec.Command("ffmpeg", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Run()

	return parseDshowDevices(stderr.String())
}

func parseDshowDevices(output string) []Device {
	var devices []Device

	seen := make(map[string]bool)
	for _, m := range dshowVideoRe.FindAllStringSubmatch(output, -1) {
		name := m[1]
		if name != "dummy" && !seen[name] {
			devices = append(devices, Device{ID: name, Label: name, Kind: KindVideoInput})
			seen[name] = true
		}
	}

	return devices
}
