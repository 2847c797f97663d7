package ui

import (
	"context"
	"image"
	"sync"
	"time"

	"camclassify/internal/config"
	"camclassify/internal/i18n"
	"camclassify/internal/page"
	"camclassify/internal/ui/cwidget"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

type ClassifierApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	config *config.Config
	tr     *i18n.Translator
	logger *zap.Logger
	page   *page.Page

	ctx    context.Context
	cancel context.CancelFunc

	tabs      *container.AppTabs
	uploadTab *container.TabItem
	cameraTab *container.TabItem

	deviceSelect   *widget.Select
	flipCheck      *widget.Check
	videoCanvas    *canvas.Image
	fpsLabel       *widget.Label
	statusLabel    *widget.Label
	captureButton  *widget.Button
	countdownText  *canvas.Text
	cameraControls *fyne.Container

	resultBox     *fyne.Container
	previewCanvas *canvas.Image
	indicator     *cwidget.Indicator
	scroll        *container.Scroll

	mu        sync.Mutex
	deviceIDs map[string]string
	lastFrame image.Image
}

func CreateApp(cfg *config.Config, tr *i18n.Translator, logger *zap.Logger) *ClassifierApp {
	return newClassifierApp(app.New(), cfg, tr, logger)
}

func newClassifierApp(a fyne.App, cfg *config.Config, tr *i18n.Translator, logger *zap.Logger) *ClassifierApp {
	w := a.NewWindow(tr.T(i18n.AppTitle))
	w.Resize(fyne.NewSize(900, 760))

	ctx, cancel := context.WithCancel(context.Background())

	ca := &ClassifierApp{
		fyneApp:   a,
		mainWin:   w,
		config:    cfg,
		tr:        tr,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		deviceIDs: map[string]string{},
	}
	ca.buildWidgets()

	return ca
}

// View is the rendering surface handed to the page.
func (a *ClassifierApp) View() page.View { return &view{a: a} }

func (a *ClassifierApp) buildWidgets() {
	a.deviceSelect = widget.NewSelect(nil, a.onDeviceSelected)
	a.deviceSelect.PlaceHolder = a.tr.T(i18n.SelectCamera)

	a.flipCheck = widget.NewCheck(a.tr.T(i18n.MirrorCamera), a.onFlipChanged)

	a.videoCanvas = canvas.NewImageFromImage(nil)
	a.videoCanvas.FillMode = canvas.ImageFillContain
	a.videoCanvas.SetMinSize(fyne.NewSize(640, 480))

	a.fpsLabel = widget.NewLabel("")
	a.statusLabel = widget.NewLabel("")
	a.statusLabel.Wrapping = fyne.TextWrapWord
	a.statusLabel.Importance = widget.WarningImportance

	a.captureButton = widget.NewButtonWithIcon(a.tr.T(i18n.TakePhoto), theme.MediaRecordIcon(), func() {
		a.page.TakePhoto()
	})

	a.countdownText = canvas.NewText("", theme.Color(theme.ColorNameForeground))
	a.countdownText.TextSize = 96
	a.countdownText.TextStyle = fyne.TextStyle{Bold: true}
	a.countdownText.Alignment = fyne.TextAlignCenter

	a.cameraControls = container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel(a.tr.T(i18n.SelectCamera)+":"), a.flipCheck, a.deviceSelect),
		container.NewStack(a.videoCanvas, container.NewCenter(a.countdownText)),
		container.NewHBox(a.captureButton, widget.NewSeparator(), a.fpsLabel),
	)

	uploadButton := widget.NewButtonWithIcon(a.tr.T(i18n.ChooseImage), theme.FolderOpenIcon(), a.openUpload)

	a.uploadTab = container.NewTabItem(a.tr.T(i18n.TabUpload), container.NewPadded(container.NewCenter(uploadButton)))
	a.cameraTab = container.NewTabItem(a.tr.T(i18n.TabCamera), container.NewVBox(a.statusLabel, a.cameraControls))
	a.tabs = container.NewAppTabs(a.uploadTab, a.cameraTab)

	a.previewCanvas = canvas.NewImageFromImage(nil)
	a.previewCanvas.FillMode = canvas.ImageFillContain
	a.previewCanvas.SetMinSize(fyne.NewSize(480, 360))

	a.indicator = cwidget.NewIndicator(a.tr.T(i18n.ResultPositive), a.tr.T(i18n.ResultNegative))

	a.resultBox = container.NewVBox(
		widget.NewSeparator(),
		a.previewCanvas,
		container.NewCenter(a.indicator),
	)
	a.resultBox.Hide()

	a.scroll = container.NewVScroll(container.NewVBox(a.tabs, a.resultBox))
}

// Run wires the page into the window and blocks until the window closes.
func (a *ClassifierApp) Run(p *page.Page) {
	a.page = p

	if a.config.StartMode == config.ModeCamera {
		a.tabs.Select(a.cameraTab)
	}
	a.tabs.OnSelected = a.onTabSelected

	a.mainWin.SetContent(a.scroll)

	a.mainWin.SetCloseIntercept(func() {
		a.cancel()
		if err := a.page.Close(); err != nil {
			a.logger.Warn("close page", zap.Error(err))
		}
		if err := a.config.SaveByDefault(); err != nil {
			a.logger.Warn("save config", zap.Error(err))
		}
		a.mainWin.Close()
	})

	go a.page.Watch(a.ctx)
	go a.page.Start(a.ctx)
	go a.runPlayerLoop()
	go a.runStatLoop()

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

func (a *ClassifierApp) onTabSelected(item *container.TabItem) {
	mode := config.ModeUpload
	if item == a.cameraTab {
		mode = config.ModeCamera
	}
	go a.page.SwitchMode(a.ctx, mode)
}

func (a *ClassifierApp) onDeviceSelected(label string) {
	a.mu.Lock()
	id := a.deviceIDs[label]
	a.mu.Unlock()

	go a.page.SelectDevice(a.ctx, id)
}

func (a *ClassifierApp) onFlipChanged(checked bool) {
	if checked != a.page.Camera().Flipped() {
		a.page.ToggleFlip()
	}
	a.config.SetFlipped(checked)
}

func (a *ClassifierApp) openUpload() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		if reader == nil {
			return
		}

		go func() {
			defer reader.Close()
			if _, err := a.page.PredictUpload(a.ctx, reader); err != nil {
				a.logger.Debug("upload not classified", zap.String("uri", reader.URI().String()), zap.Error(err))
			}
		}()
	}, a.mainWin)

	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	fd.Show()
}

func (a *ClassifierApp) runStatLoop() {
	uiTicker := time.NewTicker(time.Millisecond * 500)
	defer uiTicker.Stop()

	for {
		select {
		case <-uiTicker.C:
			fps := a.page.Camera().FPS()
			fyne.Do(func() {
				a.fpsLabel.SetText(a.tr.Tf(i18n.FPS, map[string]any{"FPS": fps}))
			})
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *ClassifierApp) runPlayerLoop() {
	displayFPS := time.Duration(a.config.GetFPS())
	if displayFPS == 0 {
		displayFPS = 24
	}
	displayTicker := time.NewTicker(time.Second / displayFPS)
	defer displayTicker.Stop()

	var shown image.Image

	for {
		select {
		case <-displayTicker.C:
			a.mu.Lock()
			frame := a.lastFrame
			a.mu.Unlock()

			if frame != nil && frame != shown {
				shown = frame
				fyne.Do(func() {
					a.videoCanvas.Image = frame
					a.videoCanvas.Refresh()
				})
			}

		case <-a.ctx.Done():
			return
		}
	}
}
