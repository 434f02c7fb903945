package slave

import "github.com/wippyai/fmu-runtime/errors"

// Base provides the default behavior for every Instance method except
// DoStep. Lifecycle hooks do nothing, variable access fails unless the
// batch is empty, and FMU state operations are unsupported.
type Base struct{}

func (Base) SetupExperiment(bool, float64, float64, bool, float64) error { return nil }

func (Base) EnterInitializationMode() error { return nil }

func (Base) ExitInitializationMode() error { return nil }

func (Base) Terminate() error { return nil }

func (Base) Reset() error { return nil }

func (Base) SetReal(vr []ValueReference, _ []float64) error {
	return noVariable(errors.PhaseSet, "set", vr)
}

func (Base) SetInteger(vr []ValueReference, _ []int32) error {
	return noVariable(errors.PhaseSet, "set", vr)
}

func (Base) SetBoolean(vr []ValueReference, _ []bool) error {
	return noVariable(errors.PhaseSet, "set", vr)
}

func (Base) SetString(vr []ValueReference, _ []string) error {
	return noVariable(errors.PhaseSet, "set", vr)
}

func (Base) GetReal(vr []ValueReference, _ []float64) error {
	return noVariable(errors.PhaseGet, "get", vr)
}

func (Base) GetInteger(vr []ValueReference, _ []int32) error {
	return noVariable(errors.PhaseGet, "get", vr)
}

func (Base) GetBoolean(vr []ValueReference, _ []bool) error {
	return noVariable(errors.PhaseGet, "get", vr)
}

func (Base) GetString(vr []ValueReference, _ []string) error {
	return noVariable(errors.PhaseGet, "get", vr)
}

func (Base) GetFMUState(State) (State, error) {
	return nil, errors.Unsupported(errors.PhaseState, "GetFMUState not supported by this model")
}

func (Base) SetFMUState(State) error {
	return errors.Unsupported(errors.PhaseState, "SetFMUState not supported by this model")
}

func (Base) FreeFMUState(State) error {
	return errors.Unsupported(errors.PhaseState, "FreeFMUState not supported by this model")
}

func (Base) SerializedFMUStateSize(State) (int, error) {
	return 0, errors.Unsupported(errors.PhaseState, "SerializedFMUStateSize not supported by this model")
}

func (Base) SerializeFMUState(State, []byte) error {
	return errors.Unsupported(errors.PhaseState, "SerializeFMUState not supported by this model")
}

func (Base) DeserializeFMUState([]byte) (State, error) {
	return nil, errors.Unsupported(errors.PhaseState, "DeserializeFMUState not supported by this model")
}

func noVariable(phase errors.Phase, verb string, vr []ValueReference) error {
	if len(vr) == 0 {
		return nil
	}
	err := errors.NoSuchVariable(phase, verb)
	err.Value = vr[0]
	return err
}

// CheckRange returns an out-of-range error for the first reference not below
// count. Models call it before writing so a bad batch changes nothing.
func CheckRange(phase errors.Phase, vr []ValueReference, count int) error {
	for _, r := range vr {
		if uint64(r) >= uint64(count) {
			return errors.OutOfRange(phase, r, count)
		}
	}
	return nil
}

// CheckLengths reports a mismatch between the reference and value slices.
func CheckLengths(phase errors.Phase, nvr, nvalues int) error {
	if nvr != nvalues {
		return errors.New(phase, errors.KindInvalidInput).
			Detail("%d value references but %d values", nvr, nvalues).
			Build()
	}
	return nil
}
