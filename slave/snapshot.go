package slave

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/fmu-runtime/errors"
)

const (
	snapshotMagic   = "FMUS"
	snapshotVersion = 1
	// magic, version, reserved, four table counts
	snapshotHeaderSize = 4 + 2 + 2 + 4*4
)

// Snapshot is the FMU state captured by Basic: a copy of every table.
type Snapshot struct {
	Reals    []float64
	Integers []int32
	Booleans []bool
	Strings  []string
}

func (s *Snapshot) fits(b *Basic) bool {
	r, i, bo, st := b.Counts()
	return len(s.Reals) == r && len(s.Integers) == i && len(s.Booleans) == bo && len(s.Strings) == st
}

func (b *Basic) snapshot(s *Snapshot) *Snapshot {
	if s == nil || !s.fits(b) {
		r, i, bo, st := b.Counts()
		s = &Snapshot{
			Reals:    make([]float64, r),
			Integers: make([]int32, i),
			Booleans: make([]bool, bo),
			Strings:  make([]string, st),
		}
	}
	copy(s.Reals, b.reals.Slice())
	copy(s.Integers, b.integers.Slice())
	copy(s.Booleans, b.booleans.Slice())
	copy(s.Strings, b.strings)
	return s
}

func (b *Basic) asSnapshot(s State) (*Snapshot, error) {
	snap, ok := s.(*Snapshot)
	if !ok || snap == nil {
		return nil, errors.TypeMismatch(errors.PhaseState, "state was not created by this model")
	}
	if !snap.fits(b) {
		return nil, errors.InvalidData(errors.PhaseState, "state table sizes do not match the model")
	}
	return snap, nil
}

// GetFMUState copies the tables into prev when it is a compatible snapshot,
// otherwise into a new one.
func (b *Basic) GetFMUState(prev State) (State, error) {
	snap, _ := prev.(*Snapshot)
	return b.snapshot(snap), nil
}

func (b *Basic) SetFMUState(s State) error {
	snap, err := b.asSnapshot(s)
	if err != nil {
		return err
	}
	copy(b.reals.Slice(), snap.Reals)
	copy(b.integers.Slice(), snap.Integers)
	copy(b.booleans.Slice(), snap.Booleans)
	copy(b.strings, snap.Strings)
	return nil
}

// FreeFMUState has nothing to release; snapshots live on the Go heap.
func (b *Basic) FreeFMUState(State) error {
	return nil
}

func (b *Basic) SerializedFMUStateSize(s State) (int, error) {
	snap, err := b.asSnapshot(s)
	if err != nil {
		return 0, err
	}
	return snap.encodedSize(), nil
}

func (b *Basic) SerializeFMUState(s State, data []byte) error {
	snap, err := b.asSnapshot(s)
	if err != nil {
		return err
	}
	if len(data) < snap.encodedSize() {
		return errors.New(errors.PhaseState, errors.KindInvalidInput).
			Detail("buffer holds %d bytes, state needs %d", len(data), snap.encodedSize()).
			Build()
	}
	snap.encode(data[:0])
	return nil
}

func (b *Basic) DeserializeFMUState(data []byte) (State, error) {
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	if !snap.fits(b) {
		return nil, errors.InvalidData(errors.PhaseState, "serialized state table sizes do not match the model")
	}
	return snap, nil
}

func (s *Snapshot) encodedSize() int {
	n := snapshotHeaderSize + 8*len(s.Reals) + 4*len(s.Integers) + len(s.Booleans)
	for _, str := range s.Strings {
		n += 4 + len(str)
	}
	return n
}

// encode appends the wire form to dst. Integers are little endian.
func (s *Snapshot) encode(dst []byte) []byte {
	le := binary.LittleEndian
	dst = append(dst, snapshotMagic...)
	dst = le.AppendUint16(dst, snapshotVersion)
	dst = le.AppendUint16(dst, 0)
	dst = le.AppendUint32(dst, uint32(len(s.Reals)))
	dst = le.AppendUint32(dst, uint32(len(s.Integers)))
	dst = le.AppendUint32(dst, uint32(len(s.Booleans)))
	dst = le.AppendUint32(dst, uint32(len(s.Strings)))
	for _, v := range s.Reals {
		dst = le.AppendUint64(dst, math.Float64bits(v))
	}
	for _, v := range s.Integers {
		dst = le.AppendUint32(dst, uint32(v))
	}
	for _, v := range s.Booleans {
		if v {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	}
	for _, str := range s.Strings {
		dst = le.AppendUint32(dst, uint32(len(str)))
		dst = append(dst, str...)
	}
	return dst
}

// DecodeSnapshot parses a blob written by SerializeFMUState. Trailing bytes
// are ignored so hosts may pass a larger buffer than needed.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	if len(data) < snapshotHeaderSize {
		return nil, errors.InvalidData(errors.PhaseState, "serialized state truncated")
	}
	if string(data[:4]) != snapshotMagic {
		return nil, errors.InvalidData(errors.PhaseState, "serialized state has bad magic")
	}
	le := binary.LittleEndian
	if v := le.Uint16(data[4:]); v != snapshotVersion {
		return nil, errors.New(errors.PhaseState, errors.KindInvalidData).
			Detail("unsupported serialized state version %d", v).
			Build()
	}
	nr := int(le.Uint32(data[8:]))
	ni := int(le.Uint32(data[12:]))
	nb := int(le.Uint32(data[16:]))
	ns := int(le.Uint32(data[20:]))

	r := reader{buf: data[snapshotHeaderSize:]}
	fixed := uint64(nr)*8 + uint64(ni)*4 + uint64(nb) + uint64(ns)*4
	if fixed > uint64(len(r.buf)) {
		return nil, errors.InvalidData(errors.PhaseState, "serialized state truncated")
	}

	s := &Snapshot{
		Reals:    make([]float64, nr),
		Integers: make([]int32, ni),
		Booleans: make([]bool, nb),
		Strings:  make([]string, ns),
	}
	for i := range s.Reals {
		s.Reals[i] = math.Float64frombits(le.Uint64(r.next(8)))
	}
	for i := range s.Integers {
		s.Integers[i] = int32(le.Uint32(r.next(4)))
	}
	for i := range s.Booleans {
		s.Booleans[i] = r.next(1)[0] != 0
	}
	for i := range s.Strings {
		hdr := r.next(4)
		if hdr == nil {
			return nil, errors.InvalidData(errors.PhaseState, "serialized state truncated")
		}
		body := r.next(int(le.Uint32(hdr)))
		if body == nil {
			return nil, errors.InvalidData(errors.PhaseState, "serialized state truncated")
		}
		s.Strings[i] = string(body)
	}
	return s, nil
}

type reader struct {
	buf []byte
}

// next returns the following n bytes, or nil when fewer remain.
func (r *reader) next(n int) []byte {
	if n < 0 || n > len(r.buf) {
		return nil
	}
	b := r.buf[:n:n]
	r.buf = r.buf[n:]
	return b
}
