package fmi2

/*
#include "fmi2_types.h"
*/
import "C"

import (
	"unsafe"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/fmi2"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/resource"
)

var (
	typesPlatform = C.CString(fmuruntime.TypesPlatform)
	version       = C.CString(fmuruntime.Version2)
)

func lookup(c C.fmi2Component) (*fmi2.Dispatcher, resource.Handle) {
	return dispatcher.Load(), handleOf(c)
}

func failed(st fmuruntime.Status) bool {
	return st != fmuruntime.StatusOK && st != fmuruntime.StatusWarning
}

//export fmi2GetTypesPlatform
func fmi2GetTypesPlatform() *C.char {
	return typesPlatform
}

//export fmi2GetVersion
func fmi2GetVersion() *C.char {
	return version
}

//export fmi2Instantiate
func fmi2Instantiate(instanceName C.fmi2String, fmuType C.fmi2Type, fmuGUID C.fmi2String,
	fmuResourceLocation C.fmi2String, functions *C.fmi2CallbackFunctions,
	visible C.fmi2Boolean, loggingOn C.fmi2Boolean) C.fmi2Component {
	name := goString(instanceName)
	cb := copyCallbacks(functions)
	sink := cb.sink()

	d := dispatcher.Load()
	if d == nil {
		logging.Report(sink, name, errors.Fatalf(errors.PhaseInstantiate, "no slave factory registered"))
		return nil
	}

	mem := cb.memory()
	h := d.Instantiate(name, fmuruntime.Type(fmuType), goString(fmuGUID), goString(fmuResourceLocation),
		fmi2.Callbacks{Logger: sink, Memory: mem}, goBool(visible), goBool(loggingOn))
	if h == 0 {
		return nil
	}

	p, err := memory.NewToken(mem, uint32(h))
	if err != nil {
		d.FreeInstance(h)
		logging.Report(sink, name, errors.Instantiation(err))
		return nil
	}
	return C.fmi2Component(p)
}

//export fmi2FreeInstance
func fmi2FreeInstance(c C.fmi2Component) {
	d, h := lookup(c)
	if d == nil || h == 0 {
		return
	}
	comp, ok := d.Component(h)
	if !ok {
		return
	}
	mem := comp.Memory()
	d.FreeInstance(h)
	memory.FreeToken(mem, unsafe.Pointer(c))
}

//export fmi2SetDebugLogging
func fmi2SetDebugLogging(c C.fmi2Component, loggingOn C.fmi2Boolean, nCategories C.size_t, categories *C.fmi2String) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.SetDebugLogging(h, goBool(loggingOn), stringsIn(categories, nCategories)))
}

//export fmi2SetupExperiment
func fmi2SetupExperiment(c C.fmi2Component, toleranceDefined C.fmi2Boolean, tolerance C.fmi2Real,
	startTime C.fmi2Real, stopTimeDefined C.fmi2Boolean, stopTime C.fmi2Real) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.SetupExperiment(h, goBool(toleranceDefined), float64(tolerance),
		float64(startTime), goBool(stopTimeDefined), float64(stopTime)))
}

//export fmi2EnterInitializationMode
func fmi2EnterInitializationMode(c C.fmi2Component) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.EnterInitializationMode(h))
}

//export fmi2ExitInitializationMode
func fmi2ExitInitializationMode(c C.fmi2Component) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.ExitInitializationMode(h))
}

//export fmi2Terminate
func fmi2Terminate(c C.fmi2Component) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.Terminate(h))
}

//export fmi2Reset
func fmi2Reset(c C.fmi2Component) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.Reset(h))
}

//export fmi2GetReal
func fmi2GetReal(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Real) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	values := make([]float64, nvr)
	st := d.GetReal(h, valueRefs(vr, nvr), values)
	if !failed(st) {
		copy(realsOut(value, nvr), values)
	}
	return C.fmi2Status(st)
}

//export fmi2GetInteger
func fmi2GetInteger(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Integer) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	values := make([]int32, nvr)
	st := d.GetInteger(h, valueRefs(vr, nvr), values)
	if !failed(st) {
		copy(integersOut(value, nvr), values)
	}
	return C.fmi2Status(st)
}

//export fmi2GetBoolean
func fmi2GetBoolean(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Boolean) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	values := make([]bool, nvr)
	st := d.GetBoolean(h, valueRefs(vr, nvr), values)
	if !failed(st) {
		booleansOut(value, values)
	}
	return C.fmi2Status(st)
}

// fmi2GetString returns strings copied into the instance's scratch arena;
// they stay valid until the next fmi2GetString on the same instance or until
// it is freed.
//
//export fmi2GetString
func fmi2GetString(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2String) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	values := make([]string, nvr)
	st := d.GetString(h, valueRefs(vr, nvr), values)
	if failed(st) || nvr == 0 {
		return C.fmi2Status(st)
	}

	comp, ok := d.Component(h)
	if !ok {
		return C.fmi2Error
	}
	scratch := comp.Scratch()
	scratch.Reset()
	out := unsafe.Slice(value, int(nvr))
	for i, s := range values {
		p, err := scratch.CopyString(s)
		if err != nil {
			scratch.Reset()
			return C.fmi2Status(comp.Errorf("fmi2GetString: %s", errors.Message(err)))
		}
		out[i] = C.fmi2String(p)
	}
	return C.fmi2Status(st)
}

//export fmi2SetReal
func fmi2SetReal(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Real) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.SetReal(h, valueRefs(vr, nvr), realsIn(value, nvr)))
}

//export fmi2SetInteger
func fmi2SetInteger(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Integer) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.SetInteger(h, valueRefs(vr, nvr), integersIn(value, nvr)))
}

//export fmi2SetBoolean
func fmi2SetBoolean(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Boolean) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.SetBoolean(h, valueRefs(vr, nvr), booleansIn(value, nvr)))
}

//export fmi2SetString
func fmi2SetString(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2String) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.SetString(h, valueRefs(vr, nvr), stringsIn(value, nvr)))
}

//export fmi2GetFMUstate
func fmi2GetFMUstate(c C.fmi2Component, state *C.fmi2FMUstate) C.fmi2Status {
	d, h := lookup(c)
	if d == nil || state == nil {
		return C.fmi2Error
	}
	s, st := d.GetFMUState(h, stateOf(*state))
	if !failed(st) {
		*state = stateFrom(s)
	}
	return C.fmi2Status(st)
}

//export fmi2SetFMUstate
func fmi2SetFMUstate(c C.fmi2Component, state C.fmi2FMUstate) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.SetFMUState(h, stateOf(state)))
}

//export fmi2FreeFMUstate
func fmi2FreeFMUstate(c C.fmi2Component, state *C.fmi2FMUstate) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	if state == nil {
		return C.fmi2OK
	}
	st := d.FreeFMUState(h, stateOf(*state))
	if !failed(st) {
		*state = nil
	}
	return C.fmi2Status(st)
}

//export fmi2SerializedFMUstateSize
func fmi2SerializedFMUstateSize(c C.fmi2Component, state C.fmi2FMUstate, size *C.size_t) C.fmi2Status {
	d, h := lookup(c)
	if d == nil || size == nil {
		return C.fmi2Error
	}
	n, st := d.SerializedFMUStateSize(h, stateOf(state))
	if !failed(st) {
		*size = C.size_t(n)
	}
	return C.fmi2Status(st)
}

//export fmi2SerializeFMUstate
func fmi2SerializeFMUstate(c C.fmi2Component, state C.fmi2FMUstate, serializedState *C.fmi2Byte, size C.size_t) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.SerializeFMUState(h, stateOf(state), bytesOf(serializedState, size)))
}

//export fmi2DeSerializeFMUstate
func fmi2DeSerializeFMUstate(c C.fmi2Component, serializedState *C.fmi2Byte, size C.size_t, state *C.fmi2FMUstate) C.fmi2Status {
	d, h := lookup(c)
	if d == nil || state == nil {
		return C.fmi2Error
	}
	s, st := d.DeserializeFMUState(h, bytesOf(serializedState, size))
	if !failed(st) {
		*state = stateFrom(s)
	}
	return C.fmi2Status(st)
}

//export fmi2GetDirectionalDerivative
func fmi2GetDirectionalDerivative(c C.fmi2Component, vUnknownRef *C.fmi2ValueReference, nUnknown C.size_t,
	vKnownRef *C.fmi2ValueReference, nKnown C.size_t, dvKnown *C.fmi2Real, dvUnknown *C.fmi2Real) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.GetDirectionalDerivative(h, valueRefs(vUnknownRef, nUnknown), valueRefs(vKnownRef, nKnown),
		realsIn(dvKnown, nKnown), realsOut(dvUnknown, nUnknown)))
}

//export fmi2SetRealInputDerivatives
func fmi2SetRealInputDerivatives(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t,
	order *C.fmi2Integer, value *C.fmi2Real) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.SetRealInputDerivatives(h, valueRefs(vr, nvr), integersIn(order, nvr), realsIn(value, nvr)))
}

//export fmi2GetRealOutputDerivatives
func fmi2GetRealOutputDerivatives(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t,
	order *C.fmi2Integer, value *C.fmi2Real) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.GetRealOutputDerivatives(h, valueRefs(vr, nvr), integersIn(order, nvr), realsOut(value, nvr)))
}

//export fmi2DoStep
func fmi2DoStep(c C.fmi2Component, currentCommunicationPoint C.fmi2Real, communicationStepSize C.fmi2Real,
	noSetFMUStatePriorToCurrentPoint C.fmi2Boolean) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.DoStep(h, float64(currentCommunicationPoint), float64(communicationStepSize),
		goBool(noSetFMUStatePriorToCurrentPoint)))
}

//export fmi2CancelStep
func fmi2CancelStep(c C.fmi2Component) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	return C.fmi2Status(d.CancelStep(h))
}

//export fmi2GetStatus
func fmi2GetStatus(c C.fmi2Component, kind C.fmi2StatusKind, value *C.fmi2Status) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	v, st := d.GetStatus(h, fmuruntime.StatusKind(kind))
	if !failed(st) && value != nil {
		*value = C.fmi2Status(v)
	}
	return C.fmi2Status(st)
}

//export fmi2GetRealStatus
func fmi2GetRealStatus(c C.fmi2Component, kind C.fmi2StatusKind, value *C.fmi2Real) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	v, st := d.GetRealStatus(h, fmuruntime.StatusKind(kind))
	if !failed(st) && value != nil {
		*value = C.fmi2Real(v)
	}
	return C.fmi2Status(st)
}

//export fmi2GetIntegerStatus
func fmi2GetIntegerStatus(c C.fmi2Component, kind C.fmi2StatusKind, value *C.fmi2Integer) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	v, st := d.GetIntegerStatus(h, fmuruntime.StatusKind(kind))
	if !failed(st) && value != nil {
		*value = C.fmi2Integer(v)
	}
	return C.fmi2Status(st)
}

//export fmi2GetBooleanStatus
func fmi2GetBooleanStatus(c C.fmi2Component, kind C.fmi2StatusKind, value *C.fmi2Boolean) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	v, st := d.GetBooleanStatus(h, fmuruntime.StatusKind(kind))
	if !failed(st) && value != nil {
		*value = cBool(v)
	}
	return C.fmi2Status(st)
}

//export fmi2GetStringStatus
func fmi2GetStringStatus(c C.fmi2Component, kind C.fmi2StatusKind, value *C.fmi2String) C.fmi2Status {
	d, h := lookup(c)
	if d == nil {
		return C.fmi2Error
	}
	_, st := d.GetStringStatus(h, fmuruntime.StatusKind(kind))
	if !failed(st) && value != nil {
		*value = nil
	}
	return C.fmi2Status(st)
}
