package vkframe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/vkframe/driver"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, SwapchainOptions{
		ImageCount:  3,
		Format:      driver.FormatB8g8r8a8Srgb,
		PresentMode: driver.PresentModeFifo,
	}, cfg.SwapchainOptions())
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "vkframe.yaml",
			content: `
frames_in_flight: 3
image_count: 4
present_mode: mailbox
clear_color: [0.1, 0.2, 0.3, 1]
vertex_shader: a.spv
watch_shaders: true
`,
		},
		{
			name: "toml",
			file: "vkframe.toml",
			content: `
frames_in_flight = 3
image_count = 4
present_mode = "mailbox"
clear_color = [0.1, 0.2, 0.3, 1.0]
vertex_shader = "a.spv"
watch_shaders = true
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, 3, cfg.FramesInFlight)
			assert.Equal(t, 4, cfg.ImageCount)
			assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, cfg.ClearColor)
			assert.Equal(t, "a.spv", cfg.VertexShader)
			assert.True(t, cfg.WatchShaders)
			// Unset keys keep their defaults.
			assert.Equal(t, DefaultConfig().FragmentShader, cfg.FragmentShader)
			assert.Equal(t, 800, cfg.Width)
			assert.Equal(t, driver.PresentModeMailbox, cfg.SwapchainOptions().PresentMode)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		invalid bool
	}{
		{name: "unknown extension", file: "vkframe.json", content: "{}", invalid: true},
		{name: "zero frames", file: "a.yaml", content: "frames_in_flight: 0", invalid: true},
		{name: "bad format", file: "a.yaml", content: "format: RGB565", invalid: true},
		{name: "bad present mode", file: "a.toml", content: `present_mode = "vsync"`, invalid: true},
		{name: "bad size", file: "a.toml", content: "width = -1", invalid: true},
		{name: "malformed yaml", file: "a.yaml", content: "frames_in_flight: [", invalid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NotErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
