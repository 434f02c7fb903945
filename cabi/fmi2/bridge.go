package fmi2

/*
#include <stdlib.h>
#include "fmi2_types.h"

static inline void fmu_call_logger(fmi2CallbackLogger f, fmi2ComponentEnvironment env,
	fmi2String instanceName, fmi2Status status, fmi2String category, fmi2String message) {
	if (f != NULL) {
		f(env, instanceName, status, category, "%s", message);
	}
}

static inline void* fmu_call_allocate(fmi2CallbackAllocateMemory f, size_t n, size_t size) {
	return f(n, size);
}

static inline void fmu_call_free(fmi2CallbackFreeMemory f, void* p) {
	f(p);
}

static inline fmi2FMUstate fmu_state_from_handle(uintptr_t h) {
	return (fmi2FMUstate)h;
}

static inline uintptr_t fmu_handle_from_state(fmi2FMUstate s) {
	return (uintptr_t)s;
}
*/
import "C"

import (
	"unsafe"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/resource"
)

// hostCallbacks is a Go-side copy of fmi2CallbackFunctions.
type hostCallbacks struct {
	logger   C.fmi2CallbackLogger
	allocate C.fmi2CallbackAllocateMemory
	free     C.fmi2CallbackFreeMemory
	env      C.fmi2ComponentEnvironment
}

func copyCallbacks(f *C.fmi2CallbackFunctions) hostCallbacks {
	if f == nil {
		return hostCallbacks{}
	}
	return hostCallbacks{
		logger:   f.logger,
		allocate: f.allocateMemory,
		free:     f.freeMemory,
		env:      f.componentEnvironment,
	}
}

func (h hostCallbacks) memory() memory.Memory {
	if h.allocate == nil || h.free == nil {
		return memory.Memory{}
	}
	return memory.New(
		func(count, size uintptr) unsafe.Pointer {
			return C.fmu_call_allocate(h.allocate, C.size_t(count), C.size_t(size))
		},
		func(p unsafe.Pointer) {
			C.fmu_call_free(h.free, p)
		},
	)
}

// sink formats nothing itself: the message is passed as the argument of a
// "%s" format so host printf never interprets model text.
func (h hostCallbacks) sink() logging.Sink {
	if h.logger == nil {
		return nil
	}
	return func(instanceName string, status fmuruntime.Status, category, message string) {
		cName := C.CString(instanceName)
		cCategory := C.CString(category)
		cMessage := C.CString(message)
		defer C.free(unsafe.Pointer(cName))
		defer C.free(unsafe.Pointer(cCategory))
		defer C.free(unsafe.Pointer(cMessage))
		C.fmu_call_logger(h.logger, h.env, cName, C.fmi2Status(status), cCategory, cMessage)
	}
}

func handleOf(c C.fmi2Component) resource.Handle {
	h, ok := memory.ReadToken(unsafe.Pointer(c))
	if !ok {
		return 0
	}
	return resource.Handle(h)
}

func stateOf(s C.fmi2FMUstate) resource.Handle {
	return resource.Handle(C.fmu_handle_from_state(s))
}

func stateFrom(h resource.Handle) C.fmi2FMUstate {
	return C.fmu_state_from_handle(C.uintptr_t(h))
}

func goString(s C.fmi2String) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func goBool(b C.fmi2Boolean) bool {
	return b != C.fmi2False
}

func cBool(b bool) C.fmi2Boolean {
	if b {
		return C.fmi2True
	}
	return C.fmi2False
}

func valueRefs(vr *C.fmi2ValueReference, n C.size_t) []fmuruntime.ValueReference {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*fmuruntime.ValueReference)(unsafe.Pointer(vr)), int(n))
}

func realsIn(p *C.fmi2Real, n C.size_t) []float64 {
	if n == 0 {
		return nil
	}
	return append([]float64(nil), unsafe.Slice((*float64)(unsafe.Pointer(p)), int(n))...)
}

func realsOut(p *C.fmi2Real, n C.size_t) []float64 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(p)), int(n))
}

func integersIn(p *C.fmi2Integer, n C.size_t) []int32 {
	if n == 0 {
		return nil
	}
	return append([]int32(nil), unsafe.Slice((*int32)(unsafe.Pointer(p)), int(n))...)
}

func integersOut(p *C.fmi2Integer, n C.size_t) []int32 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(p)), int(n))
}

func booleansIn(p *C.fmi2Boolean, n C.size_t) []bool {
	if n == 0 {
		return nil
	}
	src := unsafe.Slice(p, int(n))
	out := make([]bool, n)
	for i, b := range src {
		out[i] = goBool(b)
	}
	return out
}

func booleansOut(p *C.fmi2Boolean, values []bool) {
	if len(values) == 0 {
		return
	}
	dst := unsafe.Slice(p, len(values))
	for i, b := range values {
		dst[i] = cBool(b)
	}
}

func stringsIn(p *C.fmi2String, n C.size_t) []string {
	if n == 0 {
		return nil
	}
	src := unsafe.Slice(p, int(n))
	out := make([]string, n)
	for i, s := range src {
		out[i] = goString(s)
	}
	return out
}

func bytesOf(p *C.fmi2Byte, n C.size_t) []byte {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), int(n))
}
