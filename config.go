package vkframe

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/andewx/vkframe/driver"
)

// Config holds the tunables of a Graphics. Zero values are not valid;
// start from DefaultConfig.
type Config struct {
	AppName string `yaml:"app_name" toml:"app_name"`
	Width   int    `yaml:"width" toml:"width"`
	Height  int    `yaml:"height" toml:"height"`

	// FramesInFlight is the number of frame slots, i.e. how many frames
	// the CPU may record ahead of the GPU.
	FramesInFlight int `yaml:"frames_in_flight" toml:"frames_in_flight"`
	// ImageCount is the requested swapchain length. It is clamped to the
	// surface limits.
	ImageCount int `yaml:"image_count" toml:"image_count"`
	// Format and PresentMode are preferences; the surface may not
	// support them.
	Format      string     `yaml:"format" toml:"format"`
	PresentMode string     `yaml:"present_mode" toml:"present_mode"`
	ClearColor  [4]float32 `yaml:"clear_color" toml:"clear_color"`

	VertexShader   string `yaml:"vertex_shader" toml:"vertex_shader"`
	FragmentShader string `yaml:"fragment_shader" toml:"fragment_shader"`
	WatchShaders   bool   `yaml:"watch_shaders" toml:"watch_shaders"`

	Validation       bool     `yaml:"validation" toml:"validation"`
	Layers           []string `yaml:"layers" toml:"layers"`
	DeviceExtensions []string `yaml:"device_extensions" toml:"device_extensions"`
}

func DefaultConfig() Config {
	return Config{
		AppName:          "vkframe",
		Width:            800,
		Height:           600,
		FramesInFlight:   2,
		ImageCount:       3,
		Format:           driver.FormatB8g8r8a8Srgb.String(),
		PresentMode:      driver.PresentModeFifo.String(),
		ClearColor:       [4]float32{0, 0, 0, 1},
		VertexShader:     "shaders/vert.spv",
		FragmentShader:   "shaders/frag.spv",
		DeviceExtensions: []string{"VK_KHR_swapchain"},
	}
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file over the
// defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return cfg, errors.Wrapf(ErrInvalidConfig, "unknown config extension %q", ext)
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch {
	case c.FramesInFlight < 1:
		return errors.Wrapf(ErrInvalidConfig, "frames_in_flight %d < 1", c.FramesInFlight)
	case c.ImageCount < 1:
		return errors.Wrapf(ErrInvalidConfig, "image_count %d < 1", c.ImageCount)
	case c.Width <= 0 || c.Height <= 0:
		return errors.Wrapf(ErrInvalidConfig, "window size %dx%d", c.Width, c.Height)
	}
	if _, ok := driver.ParseFormat(c.Format); !ok {
		return errors.Wrapf(ErrInvalidConfig, "unknown format %q", c.Format)
	}
	if _, ok := driver.ParsePresentMode(c.PresentMode); !ok {
		return errors.Wrapf(ErrInvalidConfig, "unknown present mode %q", c.PresentMode)
	}
	return nil
}

// SwapchainOptions derives the swapchain preferences from c.
// Unparsable values fall back to B8G8R8A8_SRGB and FIFO.
func (c *Config) SwapchainOptions() SwapchainOptions {
	format, ok := driver.ParseFormat(c.Format)
	if !ok {
		format = driver.FormatB8g8r8a8Srgb
	}
	mode, _ := driver.ParsePresentMode(c.PresentMode)
	return SwapchainOptions{
		ImageCount:  uint32(c.ImageCount),
		Format:      format,
		PresentMode: mode,
	}
}
