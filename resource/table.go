package resource

import "sync"

// UnifiedTable stores values of any type on a LocalBackend and notifies
// observers of lifecycle events.
type UnifiedTable struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *UnifiedTable {
	return &UnifiedTable{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its handle, or 0 when the table is closed.
func (t *UnifiedTable) Insert(typeID uint32, value any) Handle {
	handle, err := t.backend.Create(typeID, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
	return handle
}

// Get retrieves a value by handle.
func (t *UnifiedTable) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// GetTyped retrieves a value only if it was inserted with typeID.
func (t *UnifiedTable) GetTyped(handle Handle, typeID uint32) (any, bool) {
	actual, ok := t.backend.TypeID(handle)
	if !ok || actual != typeID {
		return nil, false
	}
	return t.backend.Get(handle)
}

// Remove drops a value, calls its Drop method if it has one, and returns it.
func (t *UnifiedTable) Remove(handle Handle) (any, bool) {
	typeID, _ := t.backend.TypeID(handle)
	value, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
	return value, true
}

// Subscribe adds an observer.
func (t *UnifiedTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Len returns the number of live values.
func (t *UnifiedTable) Len() int {
	return t.backend.Len()
}

// Each iterates over live values until fn returns false.
func (t *UnifiedTable) Each(fn func(Handle, uint32, any) bool) {
	t.backend.Each(fn)
}

// Close drops every value and stops accepting inserts.
func (t *UnifiedTable) Close() error {
	return t.backend.Close()
}

func (t *UnifiedTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

// Typed is a TypedTable view over a UnifiedTable for one type ID. Several
// views with different type IDs may share a table; each sees only its own
// values.
type Typed[T any] struct {
	table  *UnifiedTable
	typeID uint32
}

var _ TypedTable[int] = (*Typed[int])(nil)

// NewTyped creates a view of table for typeID.
func NewTyped[T any](table *UnifiedTable, typeID uint32) *Typed[T] {
	return &Typed[T]{table: table, typeID: typeID}
}

// Table returns the underlying table.
func (t *Typed[T]) Table() *UnifiedTable {
	return t.table
}

func (t *Typed[T]) Insert(value T) Handle {
	return t.table.Insert(t.typeID, value)
}

func (t *Typed[T]) Get(handle Handle) (T, bool) {
	var zero T
	v, ok := t.table.GetTyped(handle, t.typeID)
	if !ok {
		return zero, false
	}
	tv, ok := v.(T)
	if !ok {
		return zero, false
	}
	return tv, true
}

func (t *Typed[T]) Remove(handle Handle) (T, bool) {
	var zero T
	if actual, ok := t.table.backend.TypeID(handle); !ok || actual != t.typeID {
		return zero, false
	}
	v, ok := t.table.Remove(handle)
	if !ok {
		return zero, false
	}
	tv, _ := v.(T)
	return tv, true
}

func (t *Typed[T]) Len() int {
	n := 0
	t.table.backend.Each(func(_ Handle, typeID uint32, _ any) bool {
		if typeID == t.typeID {
			n++
		}
		return true
	})
	return n
}

func (t *Typed[T]) Each(fn func(Handle, T) bool) {
	t.table.backend.Each(func(h Handle, typeID uint32, v any) bool {
		if typeID != t.typeID {
			return true
		}
		tv, _ := v.(T)
		return fn(h, tv)
	})
}
