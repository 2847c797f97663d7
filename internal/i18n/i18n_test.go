package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraditionalChinese(t *testing.T) {
	tr, err := New("zh-TW")
	require.NoError(t, err)

	assert.Equal(t, "找不到攝影機", tr.T(CameraNotFound))
	assert.Equal(t, "請允許本程式存取攝影機", tr.T(CameraPermission))
}

func TestEnglish(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "Camera not found", tr.T(CameraNotFound))
	assert.Equal(t, "FPS: 24", tr.Tf(FPS, map[string]any{"FPS": 24}))
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	tr, err := New("fr")
	require.NoError(t, err)

	assert.Equal(t, "Take photo", tr.T(TakePhoto))
}

func TestUnknownMessageReturnsID(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "NoSuchMessage", tr.T("NoSuchMessage"))

	var nilTr *Translator
	assert.Equal(t, CameraNotFound, nilTr.T(CameraNotFound))
}
