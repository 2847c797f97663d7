package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileMissingReturnsDefaults(t *testing.T) {
	cfg := LoadConfigFile(filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, DefaultModelURL, cfg.ModelURL)
	assert.Equal(t, ModeUpload, cfg.StartMode)
	assert.Equal(t, time.Second, cfg.GetCountdownStep())
	assert.Equal(t, uint(24), cfg.GetFPS())
}

func TestLoadConfigFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"model_url":"ws://localhost:9000/ws","countdown_step":"250ms","camera":{"flipped":true,"file_sources":["a.mp4"]}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg := LoadConfigFile(path)

	assert.Equal(t, "ws://localhost:9000/ws", cfg.ModelURL)
	assert.Equal(t, DefaultMetadataURL, cfg.MetadataURL)
	assert.Equal(t, 250*time.Millisecond, cfg.GetCountdownStep())
	assert.True(t, cfg.GetFlipped())
	assert.Equal(t, []string{"a.mp4"}, cfg.GetFileSources())
	assert.Equal(t, 640, cfg.GetWidth())
}

func TestLoadConfigFileMalformedReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg := LoadConfigFile(path)

	assert.Equal(t, DefaultLanguage, cfg.Language)
	assert.False(t, cfg.GetFlipped())
}

func TestSavePersistsFlip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := NewDefaultConfig()
	cfg.SetFlipped(true)
	require.NoError(t, cfg.Save(path))

	loaded := LoadConfigFile(path)
	assert.True(t, loaded.GetFlipped())
	assert.Equal(t, cfg.GetCountdownStep(), loaded.GetCountdownStep())
}

func TestSaveByDefaultWritesLoadedPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	cfg := LoadConfigFile(path)
	assert.Equal(t, path, cfg.Path())

	cfg.SetFlipped(true)
	require.NoError(t, cfg.SaveByDefault())

	loaded := LoadConfigFile(path)
	assert.True(t, loaded.GetFlipped())
	assert.Equal(t, path, loaded.Path())
}

func TestMalformedConfigKeepsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Equal(t, path, LoadConfigFile(path).Path())
	assert.Equal(t, DefaultConfigPath, NewDefaultConfig().Path())
}
