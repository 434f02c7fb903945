package memory

import (
	"sync"
	"unsafe"
)

// Tracker is a Go-heap allocator that records every block it hands out.
// Go hosts (cmd/fmusim) and tests use it in place of a C allocator to verify
// that every allocation made through Memory is released.
type Tracker struct {
	live         map[unsafe.Pointer][]uint64
	allocations  int
	frees        int
	invalidFrees int
	failAfter    int
	mu           sync.Mutex
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		live:      make(map[unsafe.Pointer][]uint64),
		failAfter: -1,
	}
}

// Memory returns a Memory that allocates from this tracker.
func (t *Tracker) Memory() Memory {
	return New(t.allocate, t.free)
}

// FailAfter makes every allocation after the next n fail. A negative n
// disables failure injection.
func (t *Tracker) FailAfter(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failAfter = n
}

func (t *Tracker) allocate(count, size uintptr) unsafe.Pointer {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failAfter == 0 {
		return nil
	}
	if t.failAfter > 0 {
		t.failAfter--
	}

	words := (count*size + 7) / 8
	if words == 0 {
		words = 1
	}
	buf := make([]uint64, words)
	p := unsafe.Pointer(&buf[0])
	t.live[p] = buf
	t.allocations++
	return p
}

func (t *Tracker) free(p unsafe.Pointer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.live[p]; !ok {
		t.invalidFrees++
		return
	}
	delete(t.live, p)
	t.frees++
}

// Live returns the number of blocks not yet freed.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Allocations returns the number of successful allocations.
func (t *Tracker) Allocations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocations
}

// Frees returns the number of successful frees.
func (t *Tracker) Frees() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frees
}

// InvalidFrees counts frees of pointers the tracker never handed out or had
// already released.
func (t *Tracker) InvalidFrees() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.invalidFrees
}
