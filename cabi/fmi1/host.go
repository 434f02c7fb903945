package fmi1

/*
#include <stdarg.h>
#include <stdio.h>
#include <stdlib.h>
#include "fmi1_types.h"
#include "fmi1_names.h"

const char* FMU1_NAME(fmiGetTypesPlatform)(void);
const char* FMU1_NAME(fmiGetVersion)(void);
fmiComponent FMU1_NAME(fmiInstantiateSlave)(fmiString instanceName, fmiString fmuGUID,
	fmiString fmuLocation, fmiString mimeType, fmiReal timeout, fmiBoolean visible,
	fmiBoolean interactive, fmiCallbackFunctions functions, fmiBoolean loggingOn);
fmiStatus FMU1_NAME(fmiInitializeSlave)(fmiComponent c, fmiReal tStart, fmiBoolean stopTimeDefined, fmiReal tStop);
fmiStatus FMU1_NAME(fmiTerminateSlave)(fmiComponent c);
fmiStatus FMU1_NAME(fmiResetSlave)(fmiComponent c);
void FMU1_NAME(fmiFreeSlaveInstance)(fmiComponent c);
fmiStatus FMU1_NAME(fmiGetReal)(fmiComponent c, const fmiValueReference vr[], size_t nvr, fmiReal value[]);
fmiStatus FMU1_NAME(fmiSetReal)(fmiComponent c, const fmiValueReference vr[], size_t nvr, const fmiReal value[]);
fmiStatus FMU1_NAME(fmiGetBoolean)(fmiComponent c, const fmiValueReference vr[], size_t nvr, fmiBoolean value[]);
fmiStatus FMU1_NAME(fmiSetBoolean)(fmiComponent c, const fmiValueReference vr[], size_t nvr, const fmiBoolean value[]);
fmiStatus FMU1_NAME(fmiGetString)(fmiComponent c, const fmiValueReference vr[], size_t nvr, fmiString value[]);
fmiStatus FMU1_NAME(fmiSetString)(fmiComponent c, const fmiValueReference vr[], size_t nvr, const fmiString value[]);
fmiStatus FMU1_NAME(fmiDoStep)(fmiComponent c, fmiReal currentCommunicationPoint,
	fmiReal communicationStepSize, fmiBoolean newStep);
fmiStatus FMU1_NAME(fmiCancelStep)(fmiComponent c);
fmiStatus FMU1_NAME(fmiGetRealStatus)(fmiComponent c, const fmiStatusKind s, fmiReal* value);

static int hostBlocks;
static int hostMessages;
static fmiComponent hostLastComponent;
static fmiStatus hostLastStatus;
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

static void hostLog(fmiComponent c, fmiString instanceName, fmiStatus status,
	fmiString category, fmiString message, ...) {
	va_list args;
	hostMessages++;
	hostLastComponent = c;
	hostLastStatus = status;
	snprintf(hostLastCategory, sizeof hostLastCategory, "%s", category != NULL ? category : "");
	va_start(args, message);
	vsnprintf(hostLastMessage, sizeof hostLastMessage, message, args);
	va_end(args);
}

static void hostResetLog(void) {
	hostMessages = 0;
	hostLastComponent = NULL;
	hostLastStatus = fmiOK;
	hostLastCategory[0] = 0;
	hostLastMessage[0] = 0;
}

static int hostBlockCount(void) { return hostBlocks; }
static int hostMessageCount(void) { return hostMessages; }
static fmiComponent hostMessageComponent(void) { return hostLastComponent; }
static fmiStatus hostMessageStatus(void) { return hostLastStatus; }
static const char* hostMessageCategory(void) { return hostLastCategory; }
static const char* hostMessageText(void) { return hostLastMessage; }

static const char* hostTypesPlatform(void) { return FMU1_NAME(fmiGetTypesPlatform)(); }
static const char* hostVersion(void) { return FMU1_NAME(fmiGetVersion)(); }

static fmiComponent hostInstantiate(fmiString name, fmiString guid, fmiReal timeout, int withMemory) {
	fmiCallbackFunctions f = {hostLog, NULL, NULL, NULL};
	if (withMemory) {
		f.allocateMemory = hostAllocate;
		f.freeMemory = hostFree;
	}
	return FMU1_NAME(fmiInstantiateSlave)(name, guid, "", "application/x-fmu-sharedlibrary",
		timeout, fmiFalse, fmiFalse, f, fmiTrue);
}

static fmiStatus hostInitialize(fmiComponent c, fmiReal tStart) {
	return FMU1_NAME(fmiInitializeSlave)(c, tStart, fmiFalse, 0);
}

static fmiStatus hostTerminate(fmiComponent c) { return FMU1_NAME(fmiTerminateSlave)(c); }
static fmiStatus hostReset(fmiComponent c) { return FMU1_NAME(fmiResetSlave)(c); }
static void hostFreeInstance(fmiComponent c) { FMU1_NAME(fmiFreeSlaveInstance)(c); }
static fmiStatus hostCancelStep(fmiComponent c) { return FMU1_NAME(fmiCancelStep)(c); }

static fmiStatus hostGetReal(fmiComponent c, const fmiValueReference* vr, size_t nvr, fmiReal* value) {
	return FMU1_NAME(fmiGetReal)(c, vr, nvr, value);
}

static fmiStatus hostSetReal(fmiComponent c, const fmiValueReference* vr, size_t nvr, const fmiReal* value) {
	return FMU1_NAME(fmiSetReal)(c, vr, nvr, value);
}

static fmiStatus hostGetBoolean(fmiComponent c, const fmiValueReference* vr, size_t nvr, fmiBoolean* value) {
	return FMU1_NAME(fmiGetBoolean)(c, vr, nvr, value);
}

static fmiStatus hostSetBoolean(fmiComponent c, const fmiValueReference* vr, size_t nvr, const fmiBoolean* value) {
	return FMU1_NAME(fmiSetBoolean)(c, vr, nvr, value);
}

static fmiStatus hostGetString(fmiComponent c, const fmiValueReference* vr, size_t nvr, fmiString* value) {
	return FMU1_NAME(fmiGetString)(c, vr, nvr, value);
}

static fmiStatus hostSetString(fmiComponent c, const fmiValueReference* vr, size_t nvr, const fmiString* value) {
	return FMU1_NAME(fmiSetString)(c, vr, nvr, value);
}

static fmiStatus hostDoStep(fmiComponent c, fmiReal t, fmiReal h) {
	return FMU1_NAME(fmiDoStep)(c, t, h, fmiTrue);
}

static fmiStatus hostGetRealStatus(fmiComponent c, fmiStatusKind kind, fmiReal* value) {
	return FMU1_NAME(fmiGetRealStatus)(c, kind, value);
}
*/
import "C"

import (
	"unsafe"

	fmuruntime "github.com/wippyai/fmu-runtime"
)

// cHost imports the public fmi* symbols defined in shim.c, under the
// MODEL_IDENTIFIER prefix when the build sets one, with calloc-backed
// memory and a printf-style logger. The package tests use it since cgo is
// unavailable in _test files.
type cHost struct{}

type cComponent = C.fmiComponent

// hostMessage is the last message the host logger formatted.
type hostMessage struct {
	count     int
	component cComponent
	status    fmuruntime.Status
	category  string
	text      string
}

func newCHost() *cHost {
	C.hostResetLog()
	return &cHost{}
}

// blocks returns the number of host allocations not yet freed.
func (*cHost) blocks() int {
	return int(C.hostBlockCount())
}

func (*cHost) lastMessage() hostMessage {
	return hostMessage{
		count:     int(C.hostMessageCount()),
		component: C.hostMessageComponent(),
		status:    fmuruntime.Status(C.hostMessageStatus()),
		category:  C.GoString(C.hostMessageCategory()),
		text:      C.GoString(C.hostMessageText()),
	}
}

func (*cHost) typesPlatform() string { return C.GoString(C.hostTypesPlatform()) }
func (*cHost) version() string       { return C.GoString(C.hostVersion()) }

func (*cHost) instantiate(name, guid string, timeout float64, withMemory bool) cComponent {
	cName := C.CString(name)
	cGUID := C.CString(guid)
	defer C.free(unsafe.Pointer(cName))
	defer C.free(unsafe.Pointer(cGUID))
	mem := C.int(0)
	if withMemory {
		mem = 1
	}
	return C.hostInstantiate(cName, cGUID, C.fmiReal(timeout), mem)
}

func (*cHost) initialize(c cComponent, start float64) fmuruntime.Status {
	return fmuruntime.Status(C.hostInitialize(c, C.fmiReal(start)))
}

func (*cHost) doStep(c cComponent, t, h float64) fmuruntime.Status {
	return fmuruntime.Status(C.hostDoStep(c, C.fmiReal(t), C.fmiReal(h)))
}

func (*cHost) terminate(c cComponent) fmuruntime.Status {
	return fmuruntime.Status(C.hostTerminate(c))
}

func (*cHost) reset(c cComponent) fmuruntime.Status {
	return fmuruntime.Status(C.hostReset(c))
}

func (*cHost) cancelStep(c cComponent) fmuruntime.Status {
	return fmuruntime.Status(C.hostCancelStep(c))
}

func (*cHost) free(c cComponent) {
	C.hostFreeInstance(c)
}

// cArray copies values into C memory so the shim receives a C-owned array.
func cArray[T any](values []T) (*T, func()) {
	if len(values) == 0 {
		return nil, func() {}
	}
	var zero T
	size := C.size_t(len(values)) * C.size_t(unsafe.Sizeof(zero))
	p := C.malloc(size)
	copy(unsafe.Slice((*T)(p), len(values)), values)
	return (*T)(p), func() { C.free(p) }
}

func valueRefArray(vr []fmuruntime.ValueReference) (*C.fmiValueReference, func()) {
	refs := make([]C.fmiValueReference, len(vr))
	for i, v := range vr {
		refs[i] = C.fmiValueReference(v)
	}
	return cArray(refs)
}

// getReal reads into values, which the exports leave untouched on failure.
func (*cHost) getReal(c cComponent, vr []fmuruntime.ValueReference, values []float64) fmuruntime.Status {
	refs, freeRefs := valueRefArray(vr)
	defer freeRefs()
	out := make([]C.fmiReal, len(values))
	for i, v := range values {
		out[i] = C.fmiReal(v)
	}
	p, freeOut := cArray(out)
	defer freeOut()

	st := C.hostGetReal(c, refs, C.size_t(len(vr)), p)
	if p != nil {
		for i, v := range unsafe.Slice(p, len(values)) {
			values[i] = float64(v)
		}
	}
	return fmuruntime.Status(st)
}

func (*cHost) setReal(c cComponent, vr []fmuruntime.ValueReference, values []float64) fmuruntime.Status {
	refs, freeRefs := valueRefArray(vr)
	defer freeRefs()
	in := make([]C.fmiReal, len(values))
	for i, v := range values {
		in[i] = C.fmiReal(v)
	}
	p, freeIn := cArray(in)
	defer freeIn()
	return fmuruntime.Status(C.hostSetReal(c, refs, C.size_t(len(vr)), p))
}

// getBoolean returns the raw fmiBoolean bytes, starting from fill.
func (*cHost) getBoolean(c cComponent, vr []fmuruntime.ValueReference, fill int8) ([]int8, fmuruntime.Status) {
	refs, freeRefs := valueRefArray(vr)
	defer freeRefs()
	out := make([]C.fmiBoolean, len(vr))
	for i := range out {
		out[i] = C.fmiBoolean(fill)
	}
	p, freeOut := cArray(out)
	defer freeOut()

	st := C.hostGetBoolean(c, refs, C.size_t(len(vr)), p)
	values := make([]int8, len(vr))
	if p != nil {
		for i, v := range unsafe.Slice(p, len(vr)) {
			values[i] = int8(v)
		}
	}
	return values, fmuruntime.Status(st)
}

func (*cHost) setBoolean(c cComponent, vr []fmuruntime.ValueReference, values []int8) fmuruntime.Status {
	refs, freeRefs := valueRefArray(vr)
	defer freeRefs()
	in := make([]C.fmiBoolean, len(values))
	for i, v := range values {
		in[i] = C.fmiBoolean(v)
	}
	p, freeIn := cArray(in)
	defer freeIn()
	return fmuruntime.Status(C.hostSetBoolean(c, refs, C.size_t(len(vr)), p))
}

func (*cHost) setString(c cComponent, vr []fmuruntime.ValueReference, values []string) fmuruntime.Status {
	refs, freeRefs := valueRefArray(vr)
	defer freeRefs()
	in := make([]C.fmiString, len(values))
	for i, s := range values {
		cs := C.CString(s)
		defer C.free(unsafe.Pointer(cs))
		in[i] = cs
	}
	p, freeIn := cArray(in)
	defer freeIn()
	return fmuruntime.Status(C.hostSetString(c, refs, C.size_t(len(vr)), p))
}

// getString returns the strings and whether each output pointer was set.
func (*cHost) getString(c cComponent, vr []fmuruntime.ValueReference) ([]string, []bool, fmuruntime.Status) {
	refs, freeRefs := valueRefArray(vr)
	defer freeRefs()
	p, freeOut := cArray(make([]C.fmiString, len(vr)))
	defer freeOut()

	st := C.hostGetString(c, refs, C.size_t(len(vr)), p)
	values := make([]string, len(vr))
	set := make([]bool, len(vr))
	if p != nil {
		for i, s := range unsafe.Slice(p, len(vr)) {
			if s != nil {
				values[i], set[i] = C.GoString(s), true
			}
		}
	}
	return values, set, fmuruntime.Status(st)
}

// realStatus starts the output at initial so an untouched output is visible.
func (*cHost) realStatus(c cComponent, kind fmuruntime.StatusKind, initial float64) (float64, fmuruntime.Status) {
	v := C.fmiReal(initial)
	st := C.hostGetRealStatus(c, C.fmiStatusKind(kind), &v)
	return float64(v), fmuruntime.Status(st)
}
