package ui

import (
	"fmt"
	"image"

	"camclassify/internal/models"
	"camclassify/processing/media"

	"fyne.io/fyne/v2"
)

// view applies page updates on the Fyne thread.
type view struct {
	a *ClassifierApp
}

// deviceOptions builds selector labels, disambiguating cameras that report
// the same name.
func deviceOptions(devices []media.Device) ([]string, map[string]string) {
	counts := map[string]int{}
	for _, d := range devices {
		counts[d.Label]++
	}

	labels := make([]string, 0, len(devices))
	ids := make(map[string]string, len(devices))
	for _, d := range devices {
		label := d.Label
		if label == "" || counts[d.Label] > 1 {
			label = fmt.Sprintf("%s (%s)", d.Label, d.ID)
		}
		labels = append(labels, label)
		ids[label] = d.ID
	}

	return labels, ids
}

func (v *view) SetDevices(devices []media.Device, selectedID string) {
	labels, ids := deviceOptions(devices)

	selected := ""
	for label, id := range ids {
		if id == selectedID {
			selected = label
		}
	}

	v.a.mu.Lock()
	v.a.deviceIDs = ids
	v.a.mu.Unlock()

	fyne.Do(func() {
		s := v.a.deviceSelect
		onChanged := s.OnChanged
		s.OnChanged = nil

		s.Options = labels
		if selected != "" {
			s.SetSelected(selected)
		} else {
			s.ClearSelected()
		}

		s.OnChanged = onChanged
		s.Refresh()
	})
}

func (v *view) SetNoCamera(noCamera bool) {
	fyne.Do(func() {
		if noCamera {
			v.a.cameraControls.Hide()
		} else {
			v.a.cameraControls.Show()
		}
	})
}

func (v *view) SetStatus(text string) {
	fyne.Do(func() {
		v.a.statusLabel.SetText(text)
		if text == "" {
			v.a.statusLabel.Hide()
		} else {
			v.a.statusLabel.Show()
		}
	})
}

func (v *view) SetFlipped(flipped bool) {
	fyne.Do(func() {
		c := v.a.flipCheck
		onChanged := c.OnChanged
		c.OnChanged = nil
		c.SetChecked(flipped)
		c.OnChanged = onChanged
	})
}

func (v *view) ShowFrame(frame image.Image) {
	v.a.mu.Lock()
	v.a.lastFrame = frame
	v.a.mu.Unlock()
}

func (v *view) SetCaptureEnabled(enabled bool) {
	fyne.Do(func() {
		if enabled {
			v.a.captureButton.Enable()
		} else {
			v.a.captureButton.Disable()
		}
	})
}

func (v *view) SetCountdown(text string) {
	fyne.Do(func() {
		v.a.countdownText.Text = text
		v.a.countdownText.Refresh()
	})
}

func (v *view) SetPreview(img image.Image) {
	fyne.Do(func() {
		v.a.previewCanvas.Image = img
		v.a.previewCanvas.Refresh()
	})
}

func (v *view) SetVerdict(verdict models.Verdict) {
	fyne.Do(func() {
		v.a.indicator.SetVerdict(verdict)
	})
}

func (v *view) RevealResult() {
	fyne.Do(func() {
		v.a.resultBox.Show()
		v.a.scroll.ScrollToBottom()
	})
}
