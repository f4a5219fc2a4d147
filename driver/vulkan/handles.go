package vulkan

import (
	"sync"
	"sync/atomic"
)

// table maps opaque driver handles to native objects. Native handles are
// C pointers and cannot be handed out as integers directly.
type table[T comparable] struct {
	mu   sync.Mutex
	ids  *atomic.Uint64
	objs map[uint64]T
}

func newTable[T comparable](ids *atomic.Uint64) *table[T] {
	return &table[T]{ids: ids, objs: make(map[uint64]T)}
}

func (t *table[T]) add(v T) uint64 {
	h := t.ids.Add(1)
	t.mu.Lock()
	t.objs[h] = v
	t.mu.Unlock()
	return h
}

// get returns the zero value, which is the native null handle, for
// unknown or null handles.
func (t *table[T]) get(h uint64) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.objs[h]
}

func (t *table[T]) remove(h uint64) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.objs[h]
	delete(t.objs, h)
	return v, ok
}

// find returns the handle already assigned to v, adding it if needed.
func (t *table[T]) find(v T) uint64 {
	t.mu.Lock()
	for h, o := range t.objs {
		if o == v {
			t.mu.Unlock()
			return h
		}
	}
	t.mu.Unlock()
	return t.add(v)
}

func (t *table[T]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.objs)
}
