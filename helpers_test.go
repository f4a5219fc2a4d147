package vkframe

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andewx/vkframe/driver"
	"github.com/andewx/vkframe/driver/drivertest"
)

type fakeWindow struct {
	width, height int
	waits         int
	onWait        func(w *fakeWindow)
}

func (w *fakeWindow) FramebufferSize() (int, int) { return w.width, w.height }

func (w *fakeWindow) WaitEvents() {
	w.waits++
	if w.onWait != nil {
		w.onWait(w)
	}
}

// spirv returns a minimal module: the magic word followed by n zero words.
func spirv(n int) []byte {
	code := make([]byte, 4*(n+1))
	binary.LittleEndian.PutUint32(code, spirvMagic)
	return code
}

func writeShaders(t *testing.T) (vert, frag string) {
	t.Helper()
	dir := t.TempDir()
	vert = filepath.Join(dir, "vert.spv")
	frag = filepath.Join(dir, "frag.spv")
	require.NoError(t, os.WriteFile(vert, spirv(4), 0o644))
	require.NoError(t, os.WriteFile(frag, spirv(4), 0o644))
	return vert, frag
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.VertexShader, cfg.FragmentShader = writeShaders(t)
	return cfg
}

func newGraphics(t *testing.T, gpu *drivertest.GPU, cfg Config) *Graphics {
	t.Helper()
	g, err := NewGraphics(gpu, gpu.NewSurface(), &fakeWindow{width: 800, height: 600}, cfg)
	require.NoError(t, err)
	return g
}

func newDevice(t *testing.T, gpu *drivertest.GPU) (*Device, driver.Surface) {
	t.Helper()
	surface := gpu.NewSurface()
	devices, err := EnumeratePhysicalDevices(gpu)
	require.NoError(t, err)
	p, err := SelectPhysicalDevice(devices, surface, nil)
	require.NoError(t, err)
	d, err := NewDevice(p, surface, nil, nil)
	require.NoError(t, err)
	return d, surface
}

// recoverErr runs fn and returns the error it panicked with, if any.
func recoverErr(fn func()) (err error) {
	defer checkErr(&err)
	fn()
	return nil
}
