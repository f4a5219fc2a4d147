package vkframe

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/vkframe/driver"
	"github.com/andewx/vkframe/driver/drivertest"
)

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	path := filepath.Join(t.TempDir(), "texture.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoadImage(t *testing.T) {
	gpu := drivertest.New()
	d, _ := newDevice(t, gpu)
	defer d.Destroy()

	img, err := LoadImage(d, writePNG(t, 16, 8))
	require.NoError(t, err)
	assert.Equal(t, driver.Extent2D{Width: 16, Height: 8}, img.Extent())
	assert.Equal(t, driver.ImageLayoutShaderReadOnlyOptimal, img.Layout())

	view, err := NewImageView(d, img)
	require.NoError(t, err)
	view.Destroy()
	img.Destroy()

	require.Len(t, gpu.Submits(), 1, "a single upload submission")
	assert.Zero(t, gpu.InFlight())
	assert.Empty(t, gpu.Violations())
	assert.Equal(t, []string{"device", "surface"}, gpu.LiveKinds(), "staging objects are released")
}

func TestLoadImageErrors(t *testing.T) {
	gpu := drivertest.New()
	d, _ := newDevice(t, gpu)
	defer d.Destroy()

	_, err := LoadImage(d, filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = LoadImage(d, bad)
	assert.ErrorIs(t, err, image.ErrFormat)
	assert.Equal(t, []string{"device", "surface"}, gpu.LiveKinds())
}

func TestToRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(2, 2, 6, 5))
	src.Set(2, 2, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	dst := toRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 4, 3), dst.Bounds())
	assert.Equal(t, []byte{1, 2, 3, 4}, dst.Pix[:4])

	packed := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, packed, toRGBA(packed))
}

func TestBufferUpload(t *testing.T) {
	gpu := drivertest.New()
	d, _ := newDevice(t, gpu)
	defer d.Destroy()

	buf, err := NewVertexBuffer(d, TriangleVertices)
	require.NoError(t, err)
	defer buf.Destroy()

	assert.Equal(t, uint64(len(TriangleVertices)*vertexSize), buf.Size())
	assert.Equal(t, VertexBytes(TriangleVertices), gpu.Memory(buf.memory))

	err = buf.Upload(make([]byte, buf.Size()+1))
	assert.Error(t, err)
}

func TestImageUploadShortBuffer(t *testing.T) {
	gpu := drivertest.New()
	d, _ := newDevice(t, gpu)
	defer d.Destroy()

	img, err := NewImage(d, 16, 16, driver.FormatR8g8b8a8Srgb)
	require.NoError(t, err)
	defer img.Destroy()
	buf, err := NewBuffer(d, 16*16*4-1, driver.BufferUsageTransferSrc)
	require.NoError(t, err)
	defer buf.Destroy()

	assert.Error(t, img.Upload(buf))
	assert.Equal(t, driver.ImageLayoutUndefined, img.Layout(), "nothing was recorded")
	assert.Empty(t, gpu.Submits())
}
