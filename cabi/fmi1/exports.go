package fmi1

/*
#include "fmi1_types.h"
*/
import "C"

import (
	"unsafe"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/fmi1"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/resource"
)

// The exports below are the Go halves of the fmi* entry points; shim.c
// defines the public, optionally prefixed, symbols.

var (
	typesPlatform = C.CString(fmuruntime.TypesPlatform)
	version       = C.CString(fmuruntime.Version1)
)

func lookup(c C.fmiComponent) (*fmi1.Dispatcher, resource.Handle) {
	return dispatcher.Load(), handleOf(c)
}

func failed(st fmuruntime.Status) bool {
	return st != fmuruntime.StatusOK && st != fmuruntime.StatusWarning
}

//export fmu1GetTypesPlatform
func fmu1GetTypesPlatform() *C.char {
	return typesPlatform
}

//export fmu1GetVersion
func fmu1GetVersion() *C.char {
	return version
}

//export fmu1InstantiateSlave
func fmu1InstantiateSlave(instanceName, fmuGUID, fmuLocation, mimeType *C.char, timeout C.fmiReal,
	visible, interactive C.fmiBoolean, functions *C.fmiCallbackFunctions, loggingOn C.fmiBoolean) C.fmiComponent {
	name := goString(instanceName)
	cb := copyCallbacks(functions)
	sink := cb.sink()

	d := dispatcher.Load()
	if d == nil {
		logging.Report(sink, name, errors.Fatalf(errors.PhaseInstantiate, "no slave factory registered"))
		return nil
	}

	mem := cb.memory()
	h := d.InstantiateSlave(name, goString(fmuGUID), goString(fmuLocation), goString(mimeType),
		float64(timeout), goBool(visible), goBool(interactive),
		fmi1.Callbacks{Logger: sink, Memory: mem}, goBool(loggingOn))
	if h == 0 {
		return nil
	}

	p, err := memory.NewToken(mem, uint32(h))
	if err != nil {
		d.FreeSlaveInstance(h)
		logging.Report(sink, name, errors.Instantiation(err))
		return nil
	}
	cb.self = C.fmiComponent(p)
	return cb.self
}

//export fmu1InitializeSlave
func fmu1InitializeSlave(c C.fmiComponent, tStart C.fmiReal, stopTimeDefined C.fmiBoolean, tStop C.fmiReal) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.InitializeSlave(h, float64(tStart), goBool(stopTimeDefined), float64(tStop)))
}

//export fmu1TerminateSlave
func fmu1TerminateSlave(c C.fmiComponent) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.TerminateSlave(h))
}

//export fmu1ResetSlave
func fmu1ResetSlave(c C.fmiComponent) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.ResetSlave(h))
}

//export fmu1FreeSlaveInstance
func fmu1FreeSlaveInstance(c C.fmiComponent) {
	d, h := lookup(c)
	if d == nil || h == 0 {
		return
	}
	comp, ok := d.Component(h)
	if !ok {
		return
	}
	mem := comp.Memory()
	d.FreeSlaveInstance(h)
	memory.FreeToken(mem, unsafe.Pointer(c))
}

//export fmu1SetDebugLogging
func fmu1SetDebugLogging(c C.fmiComponent, loggingOn C.fmiBoolean) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.SetDebugLogging(h, goBool(loggingOn)))
}

//export fmu1GetReal
func fmu1GetReal(c C.fmiComponent, vr *C.fmiValueReference, nvr C.size_t, value *C.fmiReal) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	values := make([]float64, nvr)
	st := d.GetReal(h, valueRefs(vr, nvr), values)
	if !failed(st) {
		copy(realsOut(value, nvr), values)
	}
	return C.fmiStatus(st)
}

//export fmu1GetInteger
func fmu1GetInteger(c C.fmiComponent, vr *C.fmiValueReference, nvr C.size_t, value *C.fmiInteger) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	values := make([]int32, nvr)
	st := d.GetInteger(h, valueRefs(vr, nvr), values)
	if !failed(st) {
		copy(integersOut(value, nvr), values)
	}
	return C.fmiStatus(st)
}

//export fmu1GetBoolean
func fmu1GetBoolean(c C.fmiComponent, vr *C.fmiValueReference, nvr C.size_t, value *C.fmiBoolean) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	values := make([]bool, nvr)
	st := d.GetBoolean(h, valueRefs(vr, nvr), values)
	if !failed(st) {
		booleansOut(value, values)
	}
	return C.fmiStatus(st)
}

//export fmu1GetString
func fmu1GetString(c C.fmiComponent, vr *C.fmiValueReference, nvr C.size_t, value *C.fmiString) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	values := make([]string, nvr)
	st := d.GetString(h, valueRefs(vr, nvr), values)
	if failed(st) || nvr == 0 {
		return C.fmiStatus(st)
	}

	comp, ok := d.Component(h)
	if !ok {
		return C.fmiError
	}
	scratch := comp.Scratch()
	scratch.Reset()
	out := unsafe.Slice(value, int(nvr))
	for i, s := range values {
		p, err := scratch.CopyString(s)
		if err != nil {
			scratch.Reset()
			return C.fmiStatus(comp.Errorf("fmiGetString: %s", errors.Message(err)))
		}
		out[i] = C.fmiString(p)
	}
	return C.fmiStatus(st)
}

//export fmu1SetReal
func fmu1SetReal(c C.fmiComponent, vr *C.fmiValueReference, nvr C.size_t, value *C.fmiReal) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.SetReal(h, valueRefs(vr, nvr), realsIn(value, nvr)))
}

//export fmu1SetInteger
func fmu1SetInteger(c C.fmiComponent, vr *C.fmiValueReference, nvr C.size_t, value *C.fmiInteger) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.SetInteger(h, valueRefs(vr, nvr), integersIn(value, nvr)))
}

//export fmu1SetBoolean
func fmu1SetBoolean(c C.fmiComponent, vr *C.fmiValueReference, nvr C.size_t, value *C.fmiBoolean) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.SetBoolean(h, valueRefs(vr, nvr), booleansIn(value, nvr)))
}

//export fmu1SetString
func fmu1SetString(c C.fmiComponent, vr *C.fmiValueReference, nvr C.size_t, value *C.fmiString) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.SetString(h, valueRefs(vr, nvr), stringsIn(value, nvr)))
}

//export fmu1SetRealInputDerivatives
func fmu1SetRealInputDerivatives(c C.fmiComponent) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.SetRealInputDerivatives(h, nil, nil, nil))
}

//export fmu1GetRealOutputDerivatives
func fmu1GetRealOutputDerivatives(c C.fmiComponent) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.GetRealOutputDerivatives(h, nil, nil, nil))
}

//export fmu1CancelStep
func fmu1CancelStep(c C.fmiComponent) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.CancelStep(h))
}

//export fmu1DoStep
func fmu1DoStep(c C.fmiComponent, currentCommunicationPoint, communicationStepSize C.fmiReal, newStep C.fmiBoolean) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	return C.fmiStatus(d.DoStep(h, float64(currentCommunicationPoint), float64(communicationStepSize), goBool(newStep)))
}

//export fmu1GetStatus
func fmu1GetStatus(c C.fmiComponent, kind C.fmiStatusKind, value *C.fmiStatus) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	v, st := d.GetStatus(h, fmuruntime.StatusKind(kind))
	if !failed(st) && value != nil {
		*value = C.fmiStatus(v)
	}
	return C.fmiStatus(st)
}

//export fmu1GetRealStatus
func fmu1GetRealStatus(c C.fmiComponent, kind C.fmiStatusKind, value *C.fmiReal) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	v, st := d.GetRealStatus(h, fmuruntime.StatusKind(kind))
	if !failed(st) && value != nil {
		*value = C.fmiReal(v)
	}
	return C.fmiStatus(st)
}

//export fmu1GetIntegerStatus
func fmu1GetIntegerStatus(c C.fmiComponent, kind C.fmiStatusKind, value *C.fmiInteger) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	v, st := d.GetIntegerStatus(h, fmuruntime.StatusKind(kind))
	if !failed(st) && value != nil {
		*value = C.fmiInteger(v)
	}
	return C.fmiStatus(st)
}

//export fmu1GetBooleanStatus
func fmu1GetBooleanStatus(c C.fmiComponent, kind C.fmiStatusKind, value *C.fmiBoolean) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	v, st := d.GetBooleanStatus(h, fmuruntime.StatusKind(kind))
	if !failed(st) && value != nil {
		*value = cBool(v)
	}
	return C.fmiStatus(st)
}

//export fmu1GetStringStatus
func fmu1GetStringStatus(c C.fmiComponent, kind C.fmiStatusKind, value *C.fmiString) C.fmiStatus {
	d, h := lookup(c)
	if d == nil {
		return C.fmiError
	}
	_, st := d.GetStringStatus(h, fmuruntime.StatusKind(kind))
	if !failed(st) && value != nil {
		*value = nil
	}
	return C.fmiStatus(st)
}
