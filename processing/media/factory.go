package media

import (
	"strings"
)

const fileDevicePrefix = "file:"

// NewStreamer returns the streamer backing deviceID. File devices play a
// video file; everything else is opened through ffmpeg as a webcam.
func NewStreamer(deviceID string, fps uint, width, height int) (VideoStreamer, error) {
	if path, ok := strings.CutPrefix(deviceID, fileDevicePrefix); ok {
		return NewLocalStreamer(path, fps, width, height)
	}
	return NewFFmpegWebcam(deviceID, fps, width, height), nil
}
