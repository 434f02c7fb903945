package wasmslave

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/slave"
)

type counts struct {
	reals, integers, booleans int
}

type functions struct {
	doStep api.Function

	getReal, setReal       api.Function
	getInteger, setInteger api.Function
	getBoolean, setBoolean api.Function

	setupExperiment api.Function
	enterInit       api.Function
	exitInit        api.Function
	terminate       api.Function
	reset           api.Function
}

// Slave is a slave.Instance whose behavior lives in a guest module.
// Guest lifecycle and step functions return an FMI status code; Warning is
// accepted as success and Discard is meaningful only for do_step. A trap is
// fatal: the guest's state is unknown afterwards.
//
// String variables are not supported.
type Slave struct {
	slave.Base

	ctx    context.Context
	module api.Module
	memory api.Memory
	names  ExportNames
	fns    functions
	counts counts
}

func newSlave(ctx context.Context, mod api.Module, names ExportNames) (*Slave, error) {
	s := &Slave{
		ctx:    ctx,
		module: mod,
		memory: mod.ExportedMemory(names.Memory),
		names:  names,
		fns: functions{
			doStep:          mod.ExportedFunction(names.DoStep),
			getReal:         mod.ExportedFunction(names.GetReal),
			setReal:         mod.ExportedFunction(names.SetReal),
			getInteger:      mod.ExportedFunction(names.GetInteger),
			setInteger:      mod.ExportedFunction(names.SetInteger),
			getBoolean:      mod.ExportedFunction(names.GetBoolean),
			setBoolean:      mod.ExportedFunction(names.SetBoolean),
			setupExperiment: mod.ExportedFunction(names.SetupExperiment),
			enterInit:       mod.ExportedFunction(names.EnterInitializationMode),
			exitInit:        mod.ExportedFunction(names.ExitInitializationMode),
			terminate:       mod.ExportedFunction(names.Terminate),
			reset:           mod.ExportedFunction(names.Reset),
		},
	}

	var err error
	if s.counts.reals, err = s.count(names.RealCount, s.fns.getReal, s.fns.setReal); err != nil {
		return nil, err
	}
	if s.counts.integers, err = s.count(names.IntegerCount, s.fns.getInteger, s.fns.setInteger); err != nil {
		return nil, err
	}
	if s.counts.booleans, err = s.count(names.BooleanCount, s.fns.getBoolean, s.fns.setBoolean); err != nil {
		return nil, err
	}
	return s, nil
}

// count asks the guest for a variable count. A type with variables needs
// both accessors.
func (s *Slave) count(name string, get, set api.Function) (int, error) {
	fn := s.module.ExportedFunction(name)
	if fn == nil {
		return 0, nil
	}
	res, err := fn.Call(s.ctx)
	if err != nil {
		return 0, errors.NewFatal(errors.PhaseInstantiate, name+" trapped", err)
	}
	n := int(api.DecodeI32(res[0]))
	if n < 0 {
		return 0, errors.New(errors.PhaseInstantiate, errors.KindInvalidData).
			Value(n).
			Detail("%s returned %d", name, n).
			Build()
	}
	if n > 0 && (get == nil || set == nil) {
		return 0, errors.Load(fmt.Sprintf("%s is %d but accessors are missing", name, n), nil)
	}
	return n, nil
}

// Counts returns the number of real, integer and boolean variables.
func (s *Slave) Counts() (reals, integers, booleans int) {
	return s.counts.reals, s.counts.integers, s.counts.booleans
}

// Close releases the guest instance.
func (s *Slave) Close() error {
	return s.module.Close(s.ctx)
}

// call invokes fn and converts its status result.
func (s *Slave) call(phase errors.Phase, name string, fn api.Function, params ...uint64) error {
	if fn == nil {
		return nil
	}
	res, err := fn.Call(s.ctx, params...)
	if err != nil {
		return errors.NewFatal(phase, name+" trapped", err)
	}
	return statusError(phase, name, fmuruntime.Status(api.DecodeI32(res[0])), false)
}

func statusError(phase errors.Phase, name string, st fmuruntime.Status, discardOK bool) error {
	switch st {
	case fmuruntime.StatusOK, fmuruntime.StatusWarning:
		return nil
	case fmuruntime.StatusDiscard:
		if discardOK {
			return nil
		}
	case fmuruntime.StatusFatal:
		return errors.New(phase, errors.KindModel).Value(st).Detail("%s returned %s", name, st).Fatal().Build()
	}
	return errors.New(phase, errors.KindModel).Value(st).Detail("%s returned %s", name, st).Build()
}

func encodeBool(b bool) uint64 {
	if b {
		return api.EncodeI32(1)
	}
	return api.EncodeI32(0)
}

func (s *Slave) SetupExperiment(toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) error {
	return s.call(errors.PhaseSetup, s.names.SetupExperiment, s.fns.setupExperiment,
		encodeBool(toleranceDefined), api.EncodeF64(tolerance), api.EncodeF64(startTime),
		encodeBool(stopTimeDefined), api.EncodeF64(stopTime))
}

func (s *Slave) EnterInitializationMode() error {
	return s.call(errors.PhaseInitialize, s.names.EnterInitializationMode, s.fns.enterInit)
}

func (s *Slave) ExitInitializationMode() error {
	return s.call(errors.PhaseInitialize, s.names.ExitInitializationMode, s.fns.exitInit)
}

func (s *Slave) Terminate() error {
	return s.call(errors.PhaseTerminate, s.names.Terminate, s.fns.terminate)
}

func (s *Slave) Reset() error {
	return s.call(errors.PhaseReset, s.names.Reset, s.fns.reset)
}

// DoStep calls the guest's step function. On Discard the step ends at
// currentTime.
func (s *Slave) DoStep(currentTime, stepSize float64, newStep bool) (float64, bool, error) {
	res, err := s.fns.doStep.Call(s.ctx, api.EncodeF64(currentTime), api.EncodeF64(stepSize), encodeBool(newStep))
	if err != nil {
		return currentTime, false, errors.NewFatal(errors.PhaseStep, s.names.DoStep+" trapped", err)
	}
	st := fmuruntime.Status(api.DecodeI32(res[0]))
	if err := statusError(errors.PhaseStep, s.names.DoStep, st, true); err != nil {
		return currentTime, false, err
	}
	if st == fmuruntime.StatusDiscard {
		return currentTime, false, nil
	}
	return currentTime + stepSize, true, nil
}

func (s *Slave) GetReal(vr []slave.ValueReference, values []float64) error {
	return getValues(s, errors.PhaseGet, s.names.GetReal, s.fns.getReal, s.counts.reals, vr, values, api.DecodeF64)
}

func (s *Slave) GetInteger(vr []slave.ValueReference, values []int32) error {
	return getValues(s, errors.PhaseGet, s.names.GetInteger, s.fns.getInteger, s.counts.integers, vr, values, api.DecodeI32)
}

func (s *Slave) GetBoolean(vr []slave.ValueReference, values []bool) error {
	return getValues(s, errors.PhaseGet, s.names.GetBoolean, s.fns.getBoolean, s.counts.booleans, vr, values,
		func(v uint64) bool { return api.DecodeI32(v) != 0 })
}

func (s *Slave) SetReal(vr []slave.ValueReference, values []float64) error {
	return setValues(s, errors.PhaseSet, s.names.SetReal, s.fns.setReal, s.counts.reals, vr, values, api.EncodeF64)
}

func (s *Slave) SetInteger(vr []slave.ValueReference, values []int32) error {
	return setValues(s, errors.PhaseSet, s.names.SetInteger, s.fns.setInteger, s.counts.integers, vr, values, api.EncodeI32)
}

func (s *Slave) SetBoolean(vr []slave.ValueReference, values []bool) error {
	return setValues(s, errors.PhaseSet, s.names.SetBoolean, s.fns.setBoolean, s.counts.booleans, vr, values, encodeBool)
}

func validate(phase errors.Phase, verb string, count int, vr []slave.ValueReference, nvalues int) error {
	if err := slave.CheckLengths(phase, len(vr), nvalues); err != nil {
		return err
	}
	if count == 0 && len(vr) > 0 {
		err := errors.NoSuchVariable(phase, verb)
		err.Value = vr[0]
		return err
	}
	return slave.CheckRange(phase, vr, count)
}

func getValues[T any](s *Slave, phase errors.Phase, name string, fn api.Function, count int,
	vr []slave.ValueReference, values []T, decode func(uint64) T) error {
	if err := validate(phase, "get", count, vr, len(values)); err != nil {
		return err
	}
	out := make([]T, len(vr))
	for i, r := range vr {
		res, err := fn.Call(s.ctx, api.EncodeU32(r))
		if err != nil {
			return errors.NewFatal(phase, name+" trapped", err)
		}
		out[i] = decode(res[0])
	}
	copy(values, out)
	return nil
}

func setValues[T any](s *Slave, phase errors.Phase, name string, fn api.Function, count int,
	vr []slave.ValueReference, values []T, encode func(T) uint64) error {
	if err := validate(phase, "set", count, vr, len(values)); err != nil {
		return err
	}
	for i, r := range vr {
		if _, err := fn.Call(s.ctx, api.EncodeU32(r), encode(values[i])); err != nil {
			return errors.NewFatal(phase, name+" trapped", err)
		}
	}
	return nil
}
