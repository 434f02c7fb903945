// Package memory adapts the host's allocateMemory/freeMemory callbacks.
//
// FMI hosts supply an allocator at instantiation and expect buffers that
// outlive a single call (returned strings, opaque handles, variable tables) to
// come from it. Memory is the value-type capability wrapping that pair:
//
//	mem := memory.New(allocFn, freeFn)
//	p, err := mem.Allocate(n, 8)
//	defer mem.Free(p)
//
// # Ownership
//
// Owned binds a value to the Memory that created it and to its destructor:
//
//	owned := memory.Own(mem, inst, func(m memory.Memory, i slave.Instance) { ... })
//	owned.Release() // destructor runs once, with mem
//
// Array places a pointer-free slice in host memory, Arena groups blocks that
// are freed together, and tokens give the host an opaque pointer that maps
// back to a handle without exposing Go pointers.
//
// # Testing
//
// Tracker is a Go-heap allocator that counts live blocks and invalid frees:
//
//	tr := memory.NewTracker()
//	mem := tr.Memory()
//	// ... run the instance lifecycle ...
//	if tr.Live() != 0 { t.Fatal("leak") }
package memory
