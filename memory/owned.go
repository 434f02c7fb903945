package memory

import "unsafe"

// Owned holds a value together with the Memory it was created with and the
// function that destroys it. Release runs the destructor exactly once, always
// with the same Memory, so construction and destruction use one allocator.
type Owned[T any] struct {
	value    T
	mem      Memory
	release  func(Memory, T)
	released bool
}

// Own takes ownership of v. release may be nil when v holds no host resources.
func Own[T any](m Memory, v T, release func(Memory, T)) *Owned[T] {
	return &Owned[T]{value: v, mem: m, release: release}
}

// Get returns the owned value. It returns the zero value after Release.
func (o *Owned[T]) Get() T {
	return o.value
}

// Memory returns the allocator bound to this value.
func (o *Owned[T]) Memory() Memory {
	return o.mem
}

// Released reports whether Release has run.
func (o *Owned[T]) Released() bool {
	return o.released
}

// Release destroys the value. Subsequent calls do nothing.
func (o *Owned[T]) Release() {
	if o == nil || o.released {
		return
	}
	o.released = true
	v := o.value
	var zero T
	o.value = zero
	if o.release != nil {
		o.release(o.mem, v)
	}
}

// Array is a fixed-length slice whose backing store lives in host memory.
// T must not contain Go pointers.
type Array[T any] struct {
	mem Memory
	ptr unsafe.Pointer
	s   []T
}

// NewArray allocates n zeroed elements of T through m.
func NewArray[T any](m Memory, n int) (*Array[T], error) {
	a := &Array[T]{mem: m}
	if n == 0 {
		return a, nil
	}
	var zero T
	p, err := m.Allocate(uintptr(n), unsafe.Sizeof(zero))
	if err != nil {
		return nil, err
	}
	a.ptr = p
	a.s = unsafe.Slice((*T)(p), n)
	clear(a.s)
	return a, nil
}

// Slice returns the elements. The slice is invalid after Free.
func (a *Array[T]) Slice() []T {
	return a.s
}

// Len returns the element count.
func (a *Array[T]) Len() int {
	return len(a.s)
}

// Free returns the backing store to the host.
func (a *Array[T]) Free() {
	if a == nil || a.ptr == nil {
		return
	}
	a.mem.Free(a.ptr)
	a.ptr = nil
	a.s = nil
}
