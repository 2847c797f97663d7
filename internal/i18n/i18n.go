// Package i18n provides the localized user-facing strings.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Message ids.
const (
	AppTitle         = "AppTitle"
	TabUpload        = "TabUpload"
	TabCamera        = "TabCamera"
	ChooseImage      = "ChooseImage"
	TakePhoto        = "TakePhoto"
	MirrorCamera     = "MirrorCamera"
	SelectCamera     = "SelectCamera"
	CameraNotFound   = "CameraNotFound"
	CameraPermission = "CameraPermission"
	ResultPositive   = "ResultPositive"
	ResultNegative   = "ResultNegative"
	FPS              = "FPS"
)

//go:embed locales/*.toml
var locales embed.FS

// Translator resolves message ids for one language, falling back to English.
type Translator struct {
	localizer *goi18n.Localizer
}

// New loads the embedded message files and returns a Translator for lang.
func New(lang string) (*Translator, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	paths, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		if _, err := bundle.LoadMessageFileFS(locales, p); err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	return &Translator{localizer: goi18n.NewLocalizer(bundle, lang, language.English.String())}, nil
}

// T returns the localized message, or id itself when no translation exists.
func (t *Translator) T(id string) string {
	return t.Tf(id, nil)
}

// Tf is T with template data.
func (t *Translator) Tf(id string, data map[string]any) string {
	if t == nil || t.localizer == nil {
		return id
	}

	msg, err := t.localizer.Localize(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil || msg == "" {
		return id
	}

	return msg
}
