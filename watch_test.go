package vkframe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderWatcher(t *testing.T) {
	vert, frag := writeShaders(t)
	other := filepath.Join(filepath.Dir(vert), "notes.txt")

	w, err := NewShaderWatcher(vert, frag)
	require.NoError(t, err)
	defer w.Close()
	assert.False(t, w.Dirty())

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(vert, spirv(6), 0o644))

	select {
	case name := <-w.Changed():
		abs, err := filepath.Abs(vert)
		require.NoError(t, err)
		assert.Equal(t, abs, name, "unrelated files are not reported")
	case <-time.After(5 * time.Second):
		t.Fatal("change not reported")
	}
	assert.True(t, w.Dirty())
}

func TestShaderWatcherClose(t *testing.T) {
	vert, frag := writeShaders(t)
	w, err := NewShaderWatcher(vert, frag)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, ok := <-w.Changed()
	assert.False(t, ok, "Changed is closed once the watcher stops")
}

func TestShaderWatcherMissingDir(t *testing.T) {
	_, err := NewShaderWatcher(filepath.Join(t.TempDir(), "nope", "vert.spv"))
	assert.Error(t, err)
}
