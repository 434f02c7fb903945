package wasmslave

import (
	"bytes"
	"encoding/binary"

	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/slave"
)

const (
	pageSize = 65536

	stateMagic   = "FMUW"
	stateVersion = 1
	stateHeader  = 4 + 2 + 2 + 4 // magic, version, reserved, length
)

// memoryState is a copy of the guest's linear memory. Guest globals are not
// captured, so guests must keep their variables in memory.
type memoryState struct {
	data []byte
}

func (s *Slave) asState(st slave.State) (*memoryState, error) {
	ms, ok := st.(*memoryState)
	if !ok || ms == nil {
		return nil, errors.TypeMismatch(errors.PhaseState, "state was not produced by a wasm slave")
	}
	return ms, nil
}

// GetFMUState copies linear memory, reusing prev's buffer when possible.
func (s *Slave) GetFMUState(prev slave.State) (slave.State, error) {
	view, ok := s.memory.Read(0, s.memory.Size())
	if !ok {
		return nil, errors.NewFatal(errors.PhaseState, "read guest memory", nil)
	}
	if ms, ok := prev.(*memoryState); ok && ms != nil {
		ms.data = append(ms.data[:0], view...)
		return ms, nil
	}
	return &memoryState{data: bytes.Clone(view)}, nil
}

// SetFMUState restores linear memory, growing it when the snapshot is larger.
// Memory grown after the snapshot was taken is zeroed.
func (s *Slave) SetFMUState(st slave.State) error {
	ms, err := s.asState(st)
	if err != nil {
		return err
	}
	want := uint32(len(ms.data))
	if cur := s.memory.Size(); cur < want {
		if _, ok := s.memory.Grow((want - cur) / pageSize); !ok {
			return errors.New(errors.PhaseState, errors.KindAllocation).
				Value(want).
				Detail("cannot grow guest memory to %d bytes", want).
				Build()
		}
	}
	view, ok := s.memory.Read(0, s.memory.Size())
	if !ok {
		return errors.NewFatal(errors.PhaseState, "read guest memory", nil)
	}
	n := copy(view, ms.data)
	clear(view[n:])
	return nil
}

func (s *Slave) FreeFMUState(slave.State) error {
	return nil
}

func (s *Slave) SerializedFMUStateSize(st slave.State) (int, error) {
	ms, err := s.asState(st)
	if err != nil {
		return 0, err
	}
	return stateHeader + len(ms.data), nil
}

// SerializeFMUState writes magic "FMUW", a little-endian version and
// reserved u16 pair, the u32 memory length and the memory bytes.
func (s *Slave) SerializeFMUState(st slave.State, data []byte) error {
	ms, err := s.asState(st)
	if err != nil {
		return err
	}
	need := stateHeader + len(ms.data)
	if len(data) < need {
		return errors.New(errors.PhaseState, errors.KindInvalidInput).
			Value(len(data)).
			Detail("serialization buffer holds %d bytes, need %d", len(data), need).
			Build()
	}
	copy(data, stateMagic)
	binary.LittleEndian.PutUint16(data[4:], stateVersion)
	binary.LittleEndian.PutUint16(data[6:], 0)
	binary.LittleEndian.PutUint32(data[8:], uint32(len(ms.data)))
	copy(data[stateHeader:], ms.data)
	return nil
}

func (s *Slave) DeserializeFMUState(data []byte) (slave.State, error) {
	if len(data) < stateHeader || string(data[:4]) != stateMagic {
		return nil, errors.InvalidData(errors.PhaseState, "not a serialized wasm slave state")
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != stateVersion {
		return nil, errors.InvalidData(errors.PhaseState, "unsupported wasm slave state version")
	}
	n := binary.LittleEndian.Uint32(data[8:])
	if uint64(len(data)-stateHeader) < uint64(n) {
		return nil, errors.InvalidData(errors.PhaseState, "truncated wasm slave state")
	}
	if n%pageSize != 0 {
		return nil, errors.InvalidData(errors.PhaseState, "wasm slave state is not a whole number of pages")
	}
	return &memoryState{data: bytes.Clone(data[stateHeader : stateHeader+int(n)])}, nil
}
