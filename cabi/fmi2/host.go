package fmi2

/*
#include <stdarg.h>
#include <stdio.h>
#include <stdlib.h>
#include "fmi2_types.h"

static int hostBlocks;
static int hostMessages;
static fmi2Status hostLastStatus;
static char hostLastCategory[64];
static char hostLastMessage[1024];

static void* hostAllocate(size_t n, size_t size) {
	void* p = calloc(n, size);
	if (p != NULL) {
		hostBlocks++;
	}
	return p;
}

static void hostFree(void* p) {
	if (p != NULL) {
		hostBlocks--;
		free(p);
	}
}

static void hostLog(fmi2ComponentEnvironment env, fmi2String instanceName, fmi2Status status,
	fmi2String category, fmi2String message, ...) {
	va_list args;
	hostMessages++;
	hostLastStatus = status;
	snprintf(hostLastCategory, sizeof hostLastCategory, "%s", category != NULL ? category : "");
	va_start(args, message);
	vsnprintf(hostLastMessage, sizeof hostLastMessage, message, args);
	va_end(args);
}

static fmi2CallbackFunctions hostFunctions(void) {
	fmi2CallbackFunctions f = {hostLog, hostAllocate, hostFree, NULL, NULL};
	return f;
}

static void hostResetLog(void) {
	hostMessages = 0;
	hostLastStatus = fmi2OK;
	hostLastCategory[0] = 0;
	hostLastMessage[0] = 0;
}

static int hostBlockCount(void) { return hostBlocks; }
static int hostMessageCount(void) { return hostMessages; }
static fmi2Status hostMessageStatus(void) { return hostLastStatus; }
static const char* hostMessageCategory(void) { return hostLastCategory; }
static const char* hostMessageText(void) { return hostLastMessage; }
*/
import "C"

import (
	"unsafe"

	fmuruntime "github.com/wippyai/fmu-runtime"
)

// cHost imports the fmi2* entry points the way a C simulation tool does:
// calloc-backed memory callbacks and a printf-style logger. The package
// tests use it since cgo is unavailable in _test files.
type cHost struct {
	functions C.fmi2CallbackFunctions
}

type (
	cComponent = C.fmi2Component
	cState     = C.fmi2FMUstate
)

// hostMessage is the last message the host logger formatted.
type hostMessage struct {
	count    int
	status   fmuruntime.Status
	category string
	text     string
}

func newCHost() *cHost {
	C.hostResetLog()
	return &cHost{functions: C.hostFunctions()}
}

// blocks returns the number of host allocations not yet freed.
func (h *cHost) blocks() int {
	return int(C.hostBlockCount())
}

func (h *cHost) lastMessage() hostMessage {
	return hostMessage{
		count:    int(C.hostMessageCount()),
		status:   fmuruntime.Status(C.hostMessageStatus()),
		category: C.GoString(C.hostMessageCategory()),
		text:     C.GoString(C.hostMessageText()),
	}
}

func (h *cHost) instantiate(name, guid string, fmuType fmuruntime.Type) cComponent {
	cName := C.CString(name)
	cGUID := C.CString(guid)
	defer C.free(unsafe.Pointer(cName))
	defer C.free(unsafe.Pointer(cGUID))
	return fmi2Instantiate(cName, C.fmi2Type(fmuType), cGUID, nil, &h.functions, C.fmi2False, C.fmi2True)
}

func vrPtr(vr []fmuruntime.ValueReference) *C.fmi2ValueReference {
	if len(vr) == 0 {
		return nil
	}
	return (*C.fmi2ValueReference)(unsafe.Pointer(&vr[0]))
}

// getReal reads into values, which the exports leave untouched on failure.
func (h *cHost) getReal(c cComponent, vr []fmuruntime.ValueReference, values []float64) fmuruntime.Status {
	var p *C.fmi2Real
	if len(values) > 0 {
		p = (*C.fmi2Real)(unsafe.Pointer(&values[0]))
	}
	return fmuruntime.Status(fmi2GetReal(c, vrPtr(vr), C.size_t(len(vr)), p))
}

func (h *cHost) setReal(c cComponent, vr []fmuruntime.ValueReference, values []float64) fmuruntime.Status {
	var p *C.fmi2Real
	if len(values) > 0 {
		p = (*C.fmi2Real)(unsafe.Pointer(&values[0]))
	}
	return fmuruntime.Status(fmi2SetReal(c, vrPtr(vr), C.size_t(len(vr)), p))
}

func (h *cHost) setString(c cComponent, vr []fmuruntime.ValueReference, values []string) fmuruntime.Status {
	cValues := make([]C.fmi2String, len(values))
	for i, s := range values {
		cs := C.CString(s)
		defer C.free(unsafe.Pointer(cs))
		cValues[i] = cs
	}
	var p *C.fmi2String
	if len(cValues) > 0 {
		p = &cValues[0]
	}
	return fmuruntime.Status(fmi2SetString(c, vrPtr(vr), C.size_t(len(vr)), p))
}

// getString returns the strings and the raw pointers the export handed out.
func (h *cHost) getString(c cComponent, vr []fmuruntime.ValueReference) ([]string, []unsafe.Pointer, fmuruntime.Status) {
	cValues := make([]C.fmi2String, len(vr))
	var p *C.fmi2String
	if len(cValues) > 0 {
		p = &cValues[0]
	}
	st := fmuruntime.Status(fmi2GetString(c, vrPtr(vr), C.size_t(len(vr)), p))
	values := make([]string, len(vr))
	ptrs := make([]unsafe.Pointer, len(vr))
	for i, s := range cValues {
		ptrs[i] = unsafe.Pointer(s)
		if s != nil {
			values[i] = C.GoString(s)
		}
	}
	return values, ptrs, st
}

func (h *cHost) serialize(c cComponent, s cState) ([]byte, fmuruntime.Status) {
	var size C.size_t
	if st := fmuruntime.Status(fmi2SerializedFMUstateSize(c, s, &size)); st != fmuruntime.StatusOK {
		return nil, st
	}
	data := make([]byte, int(size))
	var p *C.fmi2Byte
	if len(data) > 0 {
		p = (*C.fmi2Byte)(unsafe.Pointer(&data[0]))
	}
	return data, fmuruntime.Status(fmi2SerializeFMUstate(c, s, p, size))
}

func (h *cHost) deserialize(c cComponent, data []byte) (cState, fmuruntime.Status) {
	var s cState
	var p *C.fmi2Byte
	if len(data) > 0 {
		p = (*C.fmi2Byte)(unsafe.Pointer(&data[0]))
	}
	st := fmi2DeSerializeFMUstate(c, p, C.size_t(len(data)), &s)
	return s, fmuruntime.Status(st)
}

// realStatus starts the output at initial so an untouched output is visible.
func (h *cHost) realStatus(c cComponent, kind fmuruntime.StatusKind, initial float64) (float64, fmuruntime.Status) {
	v := C.fmi2Real(initial)
	st := fmi2GetRealStatus(c, C.fmi2StatusKind(kind), &v)
	return float64(v), fmuruntime.Status(st)
}

func (h *cHost) status(c cComponent, kind fmuruntime.StatusKind) (fmuruntime.Status, fmuruntime.Status) {
	v := C.fmi2Status(C.fmi2Pending)
	st := fmi2GetStatus(c, C.fmi2StatusKind(kind), &v)
	return fmuruntime.Status(v), fmuruntime.Status(st)
}
