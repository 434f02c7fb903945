package memory

import "unsafe"

// Arena groups host allocations that share a lifetime, such as the C strings
// returned by GetString, which must stay valid until the next call on the
// same instance.
type Arena struct {
	mem    Memory
	blocks []unsafe.Pointer
}

// NewArena creates an empty arena allocating through m.
func NewArena(m Memory) *Arena {
	return &Arena{mem: m}
}

// Allocate returns count*size zeroed bytes owned by the arena.
func (a *Arena) Allocate(count, size uintptr) (unsafe.Pointer, error) {
	p, err := a.mem.Allocate(count, size)
	if err != nil {
		return nil, err
	}
	if p != nil {
		a.blocks = append(a.blocks, p)
	}
	return p, nil
}

// CopyString copies s into a NUL-terminated block owned by the arena.
func (a *Arena) CopyString(s string) (unsafe.Pointer, error) {
	p, err := a.mem.CopyString(s)
	if err != nil {
		return nil, err
	}
	a.blocks = append(a.blocks, p)
	return p, nil
}

// Len returns the number of live blocks.
func (a *Arena) Len() int {
	return len(a.blocks)
}

// Reset frees every block.
func (a *Arena) Reset() {
	for i, p := range a.blocks {
		a.mem.Free(p)
		a.blocks[i] = nil
	}
	a.blocks = a.blocks[:0]
}
