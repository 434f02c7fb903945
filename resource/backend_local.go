package resource

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("resource backend closed")

// LocalBackend is an in-memory backend. Freed slots are reused.
type LocalBackend struct {
	entries  []entry
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value  any
	typeID uint32
	valid  bool
}

// NewLocalBackend creates an empty backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 16),
		freeList: make([]Handle, 0, 8),
	}
}

// Create stores a value and returns its handle.
func (b *LocalBackend) Create(typeID uint32, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	e := entry{typeID: typeID, value: value, valid: true}

	if n := len(b.freeList); n > 0 {
		handle := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		b.entries[handle-1] = e
		return handle, nil
	}

	b.entries = append(b.entries, e)
	return Handle(len(b.entries)), nil
}

// lookup returns the entry for handle. Callers hold b.mu.
func (b *LocalBackend) lookup(handle Handle) *entry {
	if handle == 0 || int(handle-1) >= len(b.entries) {
		return nil
	}
	e := &b.entries[handle-1]
	if !e.valid {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// TypeID returns the type ID stored with handle.
func (b *LocalBackend) TypeID(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.typeID, true
}

// Drop removes a value and returns it. The handle may be reissued by a later
// Create.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}

	value := e.value
	*e = entry{}
	b.freeList = append(b.freeList, handle)
	return value, true
}

// Close drops every value, calling Drop on those implementing Dropper.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	entries := b.entries
	b.entries = nil
	b.freeList = nil
	b.mu.Unlock()

	for _, e := range entries {
		if !e.valid {
			continue
		}
		if d, ok := e.value.(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

// Len returns the number of live values.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries) - len(b.freeList)
}

// Each iterates over a snapshot of the live values, so fn may modify the
// backend.
func (b *LocalBackend) Each(fn func(Handle, uint32, any) bool) {
	type item struct {
		value  any
		handle Handle
		typeID uint32
	}

	b.mu.RLock()
	items := make([]item, 0, len(b.entries)-len(b.freeList))
	for i, e := range b.entries {
		if e.valid {
			items = append(items, item{value: e.value, handle: Handle(i + 1), typeID: e.typeID})
		}
	}
	b.mu.RUnlock()

	for _, it := range items {
		if !fn(it.handle, it.typeID, it.value) {
			return
		}
	}
}
