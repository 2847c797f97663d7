package page

import (
	"image"

	"camclassify/internal/models"
	"camclassify/processing/media"
)

// View is the rendering surface the page drives. Implementations must be safe
// to call from any goroutine and must not call back into the Page.
type View interface {
	SetDevices(devices []media.Device, selectedID string)
	SetNoCamera(noCamera bool)
	SetStatus(text string)
	SetFlipped(flipped bool)
	ShowFrame(frame image.Image)

	SetCaptureEnabled(enabled bool)
	SetCountdown(text string)

	SetPreview(img image.Image)
	SetVerdict(v models.Verdict)
	RevealResult()
}
