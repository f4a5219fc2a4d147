package vulkan

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var ids atomic.Uint64
	a := newTable[*int](&ids)
	b := newTable[*int](&ids)
	x, y := new(int), new(int)

	hx := a.add(x)
	hy := b.add(y)
	assert.NotEqual(t, hx, hy, "handles are unique across tables")
	assert.Same(t, x, a.get(hx))
	assert.Nil(t, a.get(0))
	assert.Equal(t, hx, a.find(x))
	assert.Equal(t, 1, a.len())

	v, ok := a.remove(hx)
	require.True(t, ok)
	assert.Same(t, x, v)
	_, ok = a.remove(hx)
	assert.False(t, ok)
	assert.Nil(t, a.get(hx))
}

func TestExtensionSet(t *testing.T) {
	e := &extensionSet{
		required: []string{"VK_KHR_surface"},
		wanted:   []string{"VK_EXT_debug_report", "VK_KHR_surface", "VK_EXT_missing"},
		actual:   []string{"VK_KHR_surface", "VK_EXT_debug_report"},
	}
	assert.Empty(t, e.missing())
	assert.Equal(t, []string{"VK_KHR_surface", "VK_EXT_debug_report"}, e.enabled())

	e.required = append(e.required, "VK_KHR_xcb_surface")
	assert.Equal(t, []string{"VK_KHR_xcb_surface"}, e.missing())
}

func TestSafeString(t *testing.T) {
	assert.Equal(t, "main\x00", safeString("main"))
	assert.Equal(t, "main\x00", safeString("main\x00"))
	assert.Equal(t, []string{"a\x00", "b\x00"}, safeStrings([]string{"a", "b"}))
}
