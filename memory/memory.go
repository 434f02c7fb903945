package memory

import (
	"unsafe"

	"github.com/wippyai/fmu-runtime/errors"
)

// AllocateFunc allocates count*size zeroed bytes and returns nil on failure.
// It mirrors the host's allocateMemory callback (calloc semantics).
type AllocateFunc func(count, size uintptr) unsafe.Pointer

// FreeFunc releases a block returned by the matching AllocateFunc.
type FreeFunc func(ptr unsafe.Pointer)

// Memory is the host allocator capability handed to model code.
// It is a value type; copies share the same underlying callbacks.
type Memory struct {
	alloc AllocateFunc
	free  FreeFunc
}

// New wraps a host allocate/free pair.
func New(alloc AllocateFunc, free FreeFunc) Memory {
	return Memory{alloc: alloc, free: free}
}

// Valid reports whether both callbacks are present.
func (m Memory) Valid() bool {
	return m.alloc != nil && m.free != nil
}

// Allocate returns count*size zeroed bytes from the host allocator.
// A zero-sized request returns nil without calling the host.
func (m Memory) Allocate(count, size uintptr) (unsafe.Pointer, error) {
	if count == 0 || size == 0 {
		return nil, nil
	}
	if m.alloc == nil {
		return nil, errors.AllocationFailed(errors.PhaseDispatch, count, size)
	}
	p := m.alloc(count, size)
	if p == nil {
		return nil, errors.AllocationFailed(errors.PhaseDispatch, count, size)
	}
	return p, nil
}

// Free returns a block to the host. Nil pointers are ignored.
func (m Memory) Free(p unsafe.Pointer) {
	if p == nil || m.free == nil {
		return
	}
	m.free(p)
}

// Bytes views n bytes at p as a byte slice.
func Bytes(p unsafe.Pointer, n int) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

// CopyString copies s into a NUL-terminated host buffer.
func (m Memory) CopyString(s string) (unsafe.Pointer, error) {
	p, err := m.Allocate(uintptr(len(s))+1, 1)
	if err != nil {
		return nil, err
	}
	buf := Bytes(p, len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return p, nil
}

// GoString reads a NUL-terminated string at p. A nil pointer yields "".
func GoString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}
