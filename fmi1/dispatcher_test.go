package fmi1

import (
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/slave"
)

// recordingSlave stores one real variable and records lifecycle calls.
type recordingSlave struct {
	*slave.Basic
	info  slave.InstanceInfo
	calls []string
	fail  string
}

func (s *recordingSlave) record(name string) error {
	s.calls = append(s.calls, name)
	if s.fail == name {
		return errors.New(errors.PhaseInitialize, errors.KindModel).Detail("%s refused", name).Build()
	}
	return nil
}

func (s *recordingSlave) SetupExperiment(tolDefined bool, _, start float64, stopDefined bool, stop float64) error {
	if tolDefined || start != 1 || !stopDefined || stop != 10 {
		return errors.InvalidInput(errors.PhaseSetup, "unexpected experiment arguments")
	}
	return s.record("SetupExperiment")
}

func (s *recordingSlave) EnterInitializationMode() error { return s.record("EnterInitializationMode") }

func (s *recordingSlave) ExitInitializationMode() error { return s.record("ExitInitializationMode") }

func (s *recordingSlave) DoStep(t, h float64, newStep bool) (float64, bool, error) {
	if !newStep {
		return t, false, nil
	}
	*s.Real(0) += h
	return t + h, true, nil
}

type host struct {
	tracker  *memory.Tracker
	slave    *recordingSlave
	statuses []Status
	messages []string
	logs     *observer.ObservedLogs
	d        *Dispatcher
}

func newHost(t *testing.T) *host {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	h := &host{tracker: memory.NewTracker(), logs: logs}
	h.d = NewWithConfig(func(info slave.InstanceInfo, mem memory.Memory, _ *logging.Logger) (slave.Instance, error) {
		b, err := slave.NewBasic(mem, 1, 0, 0, 0)
		if err != nil {
			return nil, err
		}
		h.slave = &recordingSlave{Basic: b, info: info}
		return h.slave, nil
	}, Config{Logger: zap.New(core)})
	t.Cleanup(func() {
		h.d.Close()
		if h.tracker.Live() != 0 {
			t.Errorf("%d host blocks leaked", h.tracker.Live())
		}
	})
	return h
}

func (h *host) callbacks() Callbacks {
	return Callbacks{
		Logger: func(_ string, status Status, _, message string) {
			h.statuses = append(h.statuses, status)
			h.messages = append(h.messages, message)
		},
		Memory: h.tracker.Memory(),
	}
}

func (h *host) instantiate(t *testing.T) Handle {
	t.Helper()
	c := h.d.InstantiateSlave("MyInstance", "{guid}", "file:///fmu", "application/x-fmu-sharedlibrary", 2500, true, false, h.callbacks(), false)
	if c == 0 {
		t.Fatalf("InstantiateSlave failed: %v", h.messages)
	}
	return c
}

func (h *host) lastMessage() string {
	if len(h.messages) == 0 {
		return ""
	}
	return h.messages[len(h.messages)-1]
}

func TestInstantiateSlave_PassesInfo(t *testing.T) {
	h := newHost(t)
	h.instantiate(t)

	want := slave.InstanceInfo{
		InstanceName:     "MyInstance",
		GUID:             "{guid}",
		ResourceLocation: "file:///fmu",
		MimeType:         "application/x-fmu-sharedlibrary",
		Timeout:          2500,
		Visible:          true,
	}
	if h.slave.info != want {
		t.Fatalf("info = %+v, want %+v", h.slave.info, want)
	}

	cb := h.callbacks()
	cb.Memory = memory.Memory{}
	if c := h.d.InstantiateSlave("x", "", "", "", 0, false, false, cb, false); c != 0 {
		t.Fatal("missing memory callbacks should fail")
	}
	if h.statuses[len(h.statuses)-1] != fmuruntime.StatusError {
		t.Fatal("instantiation failure not reported to the host logger")
	}
}

func TestInitializeSlave(t *testing.T) {
	h := newHost(t)
	c := h.instantiate(t)

	if st := h.d.InitializeSlave(c, 1, true, 10); st != fmuruntime.StatusOK {
		t.Fatalf("InitializeSlave = %v (%s)", st, h.lastMessage())
	}
	want := []string{"SetupExperiment", "EnterInitializationMode", "ExitInitializationMode"}
	if len(h.slave.calls) != len(want) {
		t.Fatalf("calls = %v", h.slave.calls)
	}
	for i := range want {
		if h.slave.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", h.slave.calls, want)
		}
	}

	h.slave.calls = nil
	h.slave.fail = "EnterInitializationMode"
	if st := h.d.InitializeSlave(c, 1, true, 10); st != fmuruntime.StatusError {
		t.Fatalf("failing InitializeSlave = %v", st)
	}
	if len(h.slave.calls) != 2 {
		t.Fatalf("initialization should stop at the first error, calls = %v", h.slave.calls)
	}
	if h.lastMessage() != "EnterInitializationMode refused" {
		t.Fatalf("message = %q", h.lastMessage())
	}
}

func TestStepAndStatus(t *testing.T) {
	h := newHost(t)
	c := h.instantiate(t)
	h.d.InitializeSlave(c, 1, true, 10)

	if v, st := h.d.GetRealStatus(c, fmuruntime.LastSuccessfulTime); st != fmuruntime.StatusOK || !math.IsNaN(v) {
		t.Fatalf("GetRealStatus = %v, %v", v, st)
	}

	if st := h.d.DoStep(c, 1, 0.5, true); st != fmuruntime.StatusOK {
		t.Fatalf("DoStep = %v", st)
	}
	if v, _ := h.d.GetRealStatus(c, fmuruntime.LastSuccessfulTime); v != 1.5 {
		t.Fatalf("last successful time = %v", v)
	}

	if st := h.d.DoStep(c, 1.5, 0.5, false); st != fmuruntime.StatusDiscard {
		t.Fatalf("DoStep(newStep=false) = %v", st)
	}
	if v, _ := h.d.GetRealStatus(c, fmuruntime.LastSuccessfulTime); v != 1.5 {
		t.Fatalf("last successful time after discard = %v", v)
	}

	values := make([]float64, 1)
	if st := h.d.GetReal(c, []ValueReference{0}, values); st != fmuruntime.StatusOK || values[0] != 0.5 {
		t.Fatalf("GetReal = %v, %v", values, st)
	}

	if _, st := h.d.GetRealStatus(c, fmuruntime.PendingStatus); st != fmuruntime.StatusError {
		t.Fatalf("GetRealStatus(PendingStatus) = %v", st)
	}
	if h.lastMessage() != "Invalid status inquiry for fmiGetRealStatus" {
		t.Fatalf("message = %q", h.lastMessage())
	}
}

func TestVariables(t *testing.T) {
	h := newHost(t)
	c := h.instantiate(t)

	if st := h.d.SetReal(c, []ValueReference{0}, []float64{4}); st != fmuruntime.StatusOK {
		t.Fatalf("SetReal = %v", st)
	}
	if st := h.d.SetReal(c, []ValueReference{0, 1}, []float64{5, 6}); st != fmuruntime.StatusError {
		t.Fatalf("SetReal(out of range) = %v", st)
	}
	if *h.slave.Real(0) != 4 {
		t.Fatal("rejected batch modified the table")
	}

	statuses := []Status{
		h.d.SetInteger(c, []ValueReference{0}, []int32{1}),
		h.d.SetBoolean(c, []ValueReference{0}, []bool{true}),
		h.d.SetString(c, []ValueReference{0}, []string{"s"}),
		h.d.GetInteger(c, []ValueReference{0}, make([]int32, 1)),
		h.d.GetBoolean(c, []ValueReference{0}, make([]bool, 1)),
		h.d.GetString(c, []ValueReference{0}, make([]string, 1)),
	}
	for i, st := range statuses {
		if st != fmuruntime.StatusError {
			t.Errorf("call %d on empty table = %v", i, st)
		}
	}

	if st := h.d.ResetSlave(c); st != fmuruntime.StatusOK || *h.slave.Real(0) != 0 {
		t.Fatalf("ResetSlave = %v, value %v", st, *h.slave.Real(0))
	}
	if st := h.d.TerminateSlave(c); st != fmuruntime.StatusOK {
		t.Fatalf("TerminateSlave = %v", st)
	}
}

func TestUnsupported(t *testing.T) {
	h := newHost(t)
	c := h.instantiate(t)

	calls := map[string]func() Status{
		"fmiSetRealInputDerivatives":  func() Status { return h.d.SetRealInputDerivatives(c, nil, nil, nil) },
		"fmiGetRealOutputDerivatives": func() Status { return h.d.GetRealOutputDerivatives(c, nil, nil, nil) },
		"fmiCancelStep":               func() Status { return h.d.CancelStep(c) },
		"fmiGetStatus":                func() Status { _, st := h.d.GetStatus(c, fmuruntime.DoStepStatus); return st },
		"fmiGetIntegerStatus":         func() Status { _, st := h.d.GetIntegerStatus(c, fmuruntime.DoStepStatus); return st },
		"fmiGetBooleanStatus":         func() Status { _, st := h.d.GetBooleanStatus(c, fmuruntime.DoStepStatus); return st },
		"fmiGetStringStatus":          func() Status { _, st := h.d.GetStringStatus(c, fmuruntime.DoStepStatus); return st },
	}
	for name, call := range calls {
		if st := call(); st != fmuruntime.StatusError {
			t.Errorf("%s = %v", name, st)
		}
		if h.lastMessage() != "FMI function not supported: "+name {
			t.Errorf("%s message = %q", name, h.lastMessage())
		}
	}
}

func TestDebugLoggingAndFree(t *testing.T) {
	h := newHost(t)
	c := h.instantiate(t)

	if st := h.d.SetDebugLogging(c, true); st != fmuruntime.StatusOK {
		t.Fatalf("SetDebugLogging = %v", st)
	}
	comp, _ := h.d.Component(c)
	if !comp.Settings().DebugEnabled() {
		t.Fatal("debug logging not enabled")
	}

	h.d.FreeSlaveInstance(c)
	if h.d.Instances() != 0 || h.tracker.Live() != 0 {
		t.Fatalf("instances=%d live=%d after free", h.d.Instances(), h.tracker.Live())
	}
	if st := h.d.DoStep(c, 0, 1, true); st != fmuruntime.StatusError {
		t.Fatalf("DoStep on freed handle = %v", st)
	}
	if h.logs.FilterMessage("invalid instance handle").Len() != 1 {
		t.Fatal("freed handle use not logged")
	}
}

func TestVersion(t *testing.T) {
	d := New(nil)
	if d.GetVersion() != "1.0" || d.GetTypesPlatform() != "default" {
		t.Fatalf("version %q platform %q", d.GetVersion(), d.GetTypesPlatform())
	}
}
