package slave

import (
	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/memory"
)

// Basic stores a fixed number of variables of each type and serves Get/Set
// by indexing the tables with the value reference. Real, integer and boolean
// tables live in host memory; strings stay on the Go heap.
//
// Embed *Basic in a model struct and implement DoStep:
//
//	type Model struct {
//		*slave.Basic
//	}
//
// Basic also implements the FMU state operations by copying all four tables.
type Basic struct {
	Base

	reals    *memory.Array[float64]
	integers *memory.Array[int32]
	booleans *memory.Array[bool]
	strings  []string

	postReset func() error
}

// NewBasic allocates the variable tables through mem. All slots start zeroed.
func NewBasic(mem memory.Memory, realCount, integerCount, booleanCount, stringCount int) (*Basic, error) {
	if realCount < 0 || integerCount < 0 || booleanCount < 0 || stringCount < 0 {
		return nil, errors.InvalidInput(errors.PhaseInstantiate, "negative variable count")
	}

	b := &Basic{strings: make([]string, stringCount)}
	var err error
	if b.reals, err = memory.NewArray[float64](mem, realCount); err != nil {
		return nil, err
	}
	if b.integers, err = memory.NewArray[int32](mem, integerCount); err != nil {
		b.reals.Free()
		return nil, err
	}
	if b.booleans, err = memory.NewArray[bool](mem, booleanCount); err != nil {
		b.reals.Free()
		b.integers.Free()
		return nil, err
	}
	return b, nil
}

// Close returns the host tables. The Basic must not be used afterwards.
func (b *Basic) Close() error {
	b.reals.Free()
	b.integers.Free()
	b.booleans.Free()
	b.strings = nil
	return nil
}

// Counts returns the table sizes.
func (b *Basic) Counts() (reals, integers, booleans, strings int) {
	return b.reals.Len(), b.integers.Len(), b.booleans.Len(), len(b.strings)
}

// Real returns a pointer to real variable i.
func (b *Basic) Real(i ValueReference) *float64 { return &b.reals.Slice()[i] }

// Integer returns a pointer to integer variable i.
func (b *Basic) Integer(i ValueReference) *int32 { return &b.integers.Slice()[i] }

// Boolean returns a pointer to boolean variable i.
func (b *Basic) Boolean(i ValueReference) *bool { return &b.booleans.Slice()[i] }

// String returns a pointer to string variable i.
func (b *Basic) String(i ValueReference) *string { return &b.strings[i] }

// ZeroVars sets every variable to its zero value.
func (b *Basic) ZeroVars() {
	clear(b.reals.Slice())
	clear(b.integers.Slice())
	clear(b.booleans.Slice())
	clear(b.strings)
}

// SetPostReset installs a hook that runs after Reset has zeroed the tables.
// Models use it to restore their start values.
func (b *Basic) SetPostReset(fn func() error) {
	b.postReset = fn
}

// Reset zeroes every variable and then runs the post-reset hook.
func (b *Basic) Reset() error {
	b.ZeroVars()
	if b.postReset != nil {
		return b.postReset()
	}
	return nil
}

func (b *Basic) SetReal(vr []ValueReference, values []float64) error {
	return setValues(vr, values, b.reals.Slice())
}

func (b *Basic) SetInteger(vr []ValueReference, values []int32) error {
	return setValues(vr, values, b.integers.Slice())
}

func (b *Basic) SetBoolean(vr []ValueReference, values []bool) error {
	return setValues(vr, values, b.booleans.Slice())
}

func (b *Basic) SetString(vr []ValueReference, values []string) error {
	return setValues(vr, values, b.strings)
}

func (b *Basic) GetReal(vr []ValueReference, values []float64) error {
	return getValues(vr, values, b.reals.Slice())
}

func (b *Basic) GetInteger(vr []ValueReference, values []int32) error {
	return getValues(vr, values, b.integers.Slice())
}

func (b *Basic) GetBoolean(vr []ValueReference, values []bool) error {
	return getValues(vr, values, b.booleans.Slice())
}

func (b *Basic) GetString(vr []ValueReference, values []string) error {
	return getValues(vr, values, b.strings)
}

func setValues[T any](vr []ValueReference, values, table []T) error {
	if err := CheckLengths(errors.PhaseSet, len(vr), len(values)); err != nil {
		return err
	}
	if err := CheckRange(errors.PhaseSet, vr, len(table)); err != nil {
		return err
	}
	for i, r := range vr {
		table[r] = values[i]
	}
	return nil
}

func getValues[T any](vr []ValueReference, values, table []T) error {
	if err := CheckLengths(errors.PhaseGet, len(vr), len(values)); err != nil {
		return err
	}
	if err := CheckRange(errors.PhaseGet, vr, len(table)); err != nil {
		return err
	}
	for i, r := range vr {
		values[i] = table[r]
	}
	return nil
}
