package media

import (
	"image"
)

const KindVideoInput = "videoinput"

// Track is one constituent of a Stream.
type Track interface {
	Kind() string
	Stop()
}

// Stream is a live source of frames bound to one device.
type Stream interface {
	Tracks() []Track
	FrameChan() <-chan image.Image
	ErrorChan() <-chan error
}

// VideoStreamer is a Stream driven by an external process.
type VideoStreamer interface {
	Stream
	Track
	Start() error
}

// StopTracks stops every track of s.
func StopTracks(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
