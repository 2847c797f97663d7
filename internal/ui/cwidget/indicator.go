package cwidget

import (
	"image/color"

	"camclassify/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Indicator is the result badge. Its look follows the current verdict.
type Indicator struct {
	widget.BaseWidget

	background *canvas.Rectangle
	label      *canvas.Text

	PositiveText string
	NegativeText string

	verdict models.Verdict
}

func NewIndicator(positiveText, negativeText string) *Indicator {
	item := &Indicator{
		PositiveText: positiveText,
		NegativeText: negativeText,
	}

	item.background = canvas.NewRectangle(color.Transparent)
	item.background.CornerRadius = theme.InputRadiusSize()
	item.background.SetMinSize(fyne.NewSize(200, 64))

	item.label = canvas.NewText("", color.White)
	item.label.TextSize = theme.TextHeadingSize()
	item.label.TextStyle = fyne.TextStyle{Bold: true}
	item.label.Alignment = fyne.TextAlignCenter

	item.ExtendBaseWidget(item)

	return item
}

func (item *Indicator) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewStack(
		item.background,
		container.NewCenter(item.label),
	)

	return widget.NewSimpleRenderer(c)
}

// SetVerdict switches the state class of the badge.
func (item *Indicator) SetVerdict(v models.Verdict) {
	item.verdict = v

	switch v {
	case models.VerdictPositive:
		item.background.FillColor = theme.Color(theme.ColorNameSuccess)
		item.label.Text = item.PositiveText
	case models.VerdictNegative:
		item.background.FillColor = theme.Color(theme.ColorNameError)
		item.label.Text = item.NegativeText
	default:
		item.background.FillColor = color.Transparent
		item.label.Text = ""
	}

	item.background.Refresh()
	item.label.Refresh()
	item.Refresh()
}

func (item *Indicator) Verdict() models.Verdict { return item.verdict }

func (item *Indicator) Text() string { return item.label.Text }
