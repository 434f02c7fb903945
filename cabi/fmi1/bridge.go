package fmi1

/*
#include <stdlib.h>
#include "fmi1_types.h"

static inline void fmu1_call_logger(fmiCallbackLogger f, fmiComponent c,
	fmiString instanceName, fmiStatus status, fmiString category, fmiString message) {
	if (f != NULL) {
		f(c, instanceName, status, category, "%s", message);
	}
}

static inline void* fmu1_call_allocate(fmiCallbackAllocateMemory f, size_t n, size_t size) {
	return f(n, size);
}

static inline void fmu1_call_free(fmiCallbackFreeMemory f, void* p) {
	f(p);
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

// hostCallbacks is a Go-side copy of fmiCallbackFunctions. FMI 1.0 passes
// the component itself to the logger, so self is filled in once the
// component token exists.
type hostCallbacks struct {
	logger   C.fmiCallbackLogger
	allocate C.fmiCallbackAllocateMemory
	free     C.fmiCallbackFreeMemory
	self     C.fmiComponent
}

func copyCallbacks(f *C.fmiCallbackFunctions) *hostCallbacks {
	if f == nil {
		return &hostCallbacks{}
	}
	return &hostCallbacks{
		logger:   f.logger,
		allocate: f.allocateMemory,
		free:     f.freeMemory,
	}
}

func (h *hostCallbacks) memory() memory.Memory {
	if h.allocate == nil || h.free == nil {
		return memory.Memory{}
	}
	return memory.New(
		func(count, size uintptr) unsafe.Pointer {
			return C.fmu1_call_allocate(h.allocate, C.size_t(count), C.size_t(size))
		},
		func(p unsafe.Pointer) {
			C.fmu1_call_free(h.free, p)
		},
	)
}

func (h *hostCallbacks) sink() logging.Sink {
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
		C.fmu1_call_logger(h.logger, h.self, cName, C.fmiStatus(status), cCategory, cMessage)
	}
}

func handleOf(c C.fmiComponent) resource.Handle {
	h, ok := memory.ReadToken(unsafe.Pointer(c))
	if !ok {
		return 0
	}
	return resource.Handle(h)
}

func goString(s C.fmiString) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func goBool(b C.fmiBoolean) bool {
	return b != C.fmiFalse
}

func cBool(b bool) C.fmiBoolean {
	if b {
		return C.fmiTrue
	}
	return C.fmiFalse
}

func valueRefs(vr *C.fmiValueReference, n C.size_t) []fmuruntime.ValueReference {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*fmuruntime.ValueReference)(unsafe.Pointer(vr)), int(n))
}

func realsIn(p *C.fmiReal, n C.size_t) []float64 {
	if n == 0 {
		return nil
	}
	return append([]float64(nil), unsafe.Slice((*float64)(unsafe.Pointer(p)), int(n))...)
}

func realsOut(p *C.fmiReal, n C.size_t) []float64 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(p)), int(n))
}

func integersIn(p *C.fmiInteger, n C.size_t) []int32 {
	if n == 0 {
		return nil
	}
	return append([]int32(nil), unsafe.Slice((*int32)(unsafe.Pointer(p)), int(n))...)
}

func integersOut(p *C.fmiInteger, n C.size_t) []int32 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(p)), int(n))
}

func booleansIn(p *C.fmiBoolean, n C.size_t) []bool {
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

func booleansOut(p *C.fmiBoolean, values []bool) {
	if len(values) == 0 {
		return
	}
	dst := unsafe.Slice(p, len(values))
	for i, b := range values {
		dst[i] = cBool(b)
	}
}

func stringsIn(p *C.fmiString, n C.size_t) []string {
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
