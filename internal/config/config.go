package config

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

type Mode string

const (
	ModeUpload Mode = "upload"
	ModeCamera Mode = "camera"

	DefaultConfigPath    string = "config.json"
	DefaultModelURL      string = "model/model.onnx"
	DefaultMetadataURL   string = "model/metadata.json"
	DefaultLanguage      string = "zh-TW"
	DefaultCountdownStep        = Duration(time.Second)
)

// Duration is a time.Duration that reads and writes as "1s" style strings.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(v)
	return nil
}

type CameraConfig struct {
	TargetFPS    uint `json:"target_fps"`
	ScaledWidth  int  `json:"scaled_width"`
	ScaledHeight int  `json:"scaled_height"`
	Flipped      bool `json:"flipped"`

	// FileSources are video files exposed as extra camera devices.
	FileSources []string `json:"file_sources"`
}

type Config struct {
	mu sync.RWMutex

	// path is the file the config was loaded from.
	path string

	ModelURL      string   `json:"model_url"`
	MetadataURL   string   `json:"metadata_url"`
	Language      string   `json:"language"`
	Debug         bool     `json:"debug"`
	StartMode     Mode     `json:"start_mode"`
	CountdownStep Duration `json:"countdown_step"`

	DevDir string `json:"dev_dir"`
	SysDir string `json:"sys_dir"`

	Camera CameraConfig `json:"camera"`
}

func (c *Config) GetFPS() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Camera.TargetFPS
}

func (c *Config) GetWidth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Camera.ScaledWidth
}

func (c *Config) GetHeight() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Camera.ScaledHeight
}

func (c *Config) GetFlipped() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Camera.Flipped
}

func (c *Config) SetFlipped(flipped bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Camera.Flipped = flipped
}

func (c *Config) GetCountdownStep() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.CountdownStep)
}

func (c *Config) GetFileSources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.Camera.FileSources...)
}

func (c *Config) Save(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	defer f.Close()

	c.mu.RLock()
	defer c.mu.RUnlock()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	return enc.Encode(c)
}

// Path returns the file the config was loaded from, or DefaultConfigPath.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.path == "" {
		return DefaultConfigPath
	}
	return c.path
}

// SaveByDefault writes the config back to the file it was loaded from.
func (c *Config) SaveByDefault() error {
	return c.Save(c.Path())
}

// LoadConfigFile returns defaults overlaid with the file at path. A missing or
// malformed file yields the defaults.
func LoadConfigFile(path string) *Config {
	var cfg *Config = NewDefaultConfig()
	cfg.path = path

	if _, err := os.Stat(path); err == nil {
		f, err := os.Open(path)

		if err != nil {
			return cfg
		}

		defer f.Close()

		dec := json.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			cfg = NewDefaultConfig()
			cfg.path = path
			return cfg
		}
	}

	cfg.normalize()

	return cfg
}

func (c *Config) normalize() {
	if c.Camera.TargetFPS == 0 {
		c.Camera.TargetFPS = 24
	}
	if c.Camera.ScaledWidth <= 0 || c.Camera.ScaledHeight <= 0 {
		c.Camera.ScaledWidth = 640
		c.Camera.ScaledHeight = 480
	}
	if c.CountdownStep <= 0 {
		c.CountdownStep = DefaultCountdownStep
	}
	if c.StartMode != ModeCamera {
		c.StartMode = ModeUpload
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
}

func NewDefaultConfig() *Config {
	return &Config{
		ModelURL:      DefaultModelURL,
		MetadataURL:   DefaultMetadataURL,
		Language:      DefaultLanguage,
		StartMode:     ModeUpload,
		CountdownStep: DefaultCountdownStep,
		DevDir:        "/dev",
		SysDir:        "/sys/class/video4linux",
		Camera: CameraConfig{
			TargetFPS:    24,
			ScaledWidth:  640,
			ScaledHeight: 480,
		},
	}
}
