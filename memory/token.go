package memory

import "unsafe"

const (
	tokenMagic uint32 = 0x464d5531 // "FMU1"
	tokenDead  uint32 = 0xdeaddead
)

type token struct {
	magic  uint32
	handle uint32
}

// NewToken stores handle in a small host block. The block's address is what
// the C layer hands to the host as an opaque fmi2Component or fmi2FMUstate,
// so no Go pointer ever crosses the ABI.
func NewToken(m Memory, handle uint32) (unsafe.Pointer, error) {
	var t token
	p, err := m.Allocate(1, unsafe.Sizeof(t))
	if err != nil {
		return nil, err
	}
	tp := (*token)(p)
	tp.magic = tokenMagic
	tp.handle = handle
	return p, nil
}

// ReadToken returns the handle stored at p. It reports false for nil or for
// blocks that were not produced by NewToken or were already freed; freed
// memory may have been reused by the host, so this is a best-effort check.
func ReadToken(p unsafe.Pointer) (uint32, bool) {
	if p == nil {
		return 0, false
	}
	tp := (*token)(p)
	if tp.magic != tokenMagic {
		return 0, false
	}
	return tp.handle, true
}

// FreeToken invalidates and releases a token block.
func FreeToken(m Memory, p unsafe.Pointer) {
	if p == nil {
		return
	}
	tp := (*token)(p)
	tp.magic = tokenDead
	tp.handle = 0
	m.Free(p)
}
