package component

import (
	"reflect"

	"go.uber.org/zap"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/resource"
	"github.com/wippyai/fmu-runtime/slave"
)

// FMU states live in a per-instance table. The host only sees handles, and
// a handle from one instance is unknown to every other.

func (c *Component) lookupState(function string, h resource.Handle) (slave.State, bool) {
	s, ok := c.states.Get(h)
	if !ok {
		c.Errorf("%s: invalid FMU state", function)
	}
	return s, ok
}

// GetFMUState captures the slave's state. prev is a state handle the host
// passed back for reuse, or 0. The returned handle replaces prev.
func (c *Component) GetFMUState(prev resource.Handle) (resource.Handle, fmuruntime.Status) {
	var prevState slave.State
	if prev != 0 {
		s, ok := c.lookupState("GetFMUState", prev)
		if !ok {
			return 0, fmuruntime.StatusError
		}
		prevState = s
	}

	var state slave.State
	status := c.Invoke("GetFMUState", func(inst slave.Instance) error {
		s, err := inst.GetFMUState(prevState)
		if err != nil {
			return err
		}
		if s == nil {
			return errors.InvalidData(errors.PhaseState, "slave returned no FMU state")
		}
		state = s
		return nil
	})
	if status != fmuruntime.StatusOK {
		return prev, status
	}

	// The slave either updated prev in place or replaced it; either way the
	// old handle now refers to the result.
	if prev != 0 {
		c.states.Remove(prev)
		if !sameState(prevState, state) {
			if err := safeFreeState(c.slave.Get(), prevState); err != nil {
				Logger().Warn("free replaced state failed",
					zap.String("instance", c.InstanceName()),
					zap.Uint32("state", uint32(prev)),
					zap.Error(err),
				)
			}
		}
	}
	return c.states.Insert(state), fmuruntime.StatusOK
}

// sameState reports whether b is the value a. Pointers, maps, slices,
// channels and funcs compare by identity; other incomparable values never
// match, so a replaced value-type state is always freed.
func sameState(a, b slave.State) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Comparable() {
		return false
	}
	return a == b
}

// SetFMUState restores the slave to state h.
func (c *Component) SetFMUState(h resource.Handle) fmuruntime.Status {
	s, ok := c.lookupState("SetFMUState", h)
	if !ok {
		return fmuruntime.StatusError
	}
	return c.Invoke("SetFMUState", func(inst slave.Instance) error {
		return inst.SetFMUState(s)
	})
}

// FreeFMUState releases state h. Freeing handle 0 succeeds without effect.
func (c *Component) FreeFMUState(h resource.Handle) fmuruntime.Status {
	if h == 0 {
		return fmuruntime.StatusOK
	}
	if _, ok := c.lookupState("FreeFMUState", h); !ok {
		return fmuruntime.StatusError
	}
	s, _ := c.states.Remove(h)
	return c.Invoke("FreeFMUState", func(inst slave.Instance) error {
		return inst.FreeFMUState(s)
	})
}

// SerializedFMUStateSize returns the byte count SerializeFMUState needs.
func (c *Component) SerializedFMUStateSize(h resource.Handle) (int, fmuruntime.Status) {
	s, ok := c.lookupState("SerializedFMUStateSize", h)
	if !ok {
		return 0, fmuruntime.StatusError
	}
	var size int
	status := c.Invoke("SerializedFMUStateSize", func(inst slave.Instance) error {
		n, err := inst.SerializedFMUStateSize(s)
		if err != nil {
			return err
		}
		if n < 0 {
			return errors.InvalidData(errors.PhaseState, "negative serialized state size")
		}
		size = n
		return nil
	})
	return size, status
}

// SerializeFMUState writes state h into data.
func (c *Component) SerializeFMUState(h resource.Handle, data []byte) fmuruntime.Status {
	s, ok := c.lookupState("SerializeFMUState", h)
	if !ok {
		return fmuruntime.StatusError
	}
	return c.Invoke("SerializeFMUState", func(inst slave.Instance) error {
		return inst.SerializeFMUState(s, data)
	})
}

// DeserializeFMUState rebuilds a state from data and returns its handle.
func (c *Component) DeserializeFMUState(data []byte) (resource.Handle, fmuruntime.Status) {
	var state slave.State
	status := c.Invoke("DeserializeFMUState", func(inst slave.Instance) error {
		s, err := inst.DeserializeFMUState(data)
		if err != nil {
			return err
		}
		if s == nil {
			return errors.InvalidData(errors.PhaseState, "slave returned no FMU state")
		}
		state = s
		return nil
	})
	if status != fmuruntime.StatusOK {
		return 0, status
	}
	return c.states.Insert(state), fmuruntime.StatusOK
}

// States returns the number of FMU states the host has not freed.
func (c *Component) States() int {
	return c.states.Len()
}
