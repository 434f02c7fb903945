//go:build cgo

package fmi2

import (
	"math"
	"testing"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/slave"
)

const testGUID = "{04b947f3-c057-4860-b59b-eb0bd6fa52be}"

// echo keeps one variable of each type and counts completed steps in its
// integer. Steps ending past discardAfter are cut short there.
type echo struct {
	*slave.Basic
	discardAfter float64
}

func (e *echo) DoStep(t, h float64, _ bool) (float64, bool, error) {
	if e.discardAfter > 0 && t+h > e.discardAfter+1e-9 {
		return e.discardAfter, false, nil
	}
	*e.Integer(0)++
	return t + h, true, nil
}

func registerEcho(t *testing.T, discardAfter float64) {
	t.Helper()
	Register(func(_ slave.InstanceInfo, mem memory.Memory, _ *logging.Logger) (slave.Instance, error) {
		b, err := slave.NewBasic(mem, 1, 1, 0, 1)
		if err != nil {
			return nil, err
		}
		return &echo{Basic: b, discardAfter: discardAfter}, nil
	})
	t.Cleanup(func() {
		if d := dispatcher.Swap(nil); d != nil {
			_ = d.Close()
		}
	})
}

func expect(t *testing.T, what string, got, want fmuruntime.Status) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
}

// ready instantiates and initializes an echo instance and frees it, checking
// for leaked host blocks, when the test ends.
func ready(t *testing.T, host *cHost) cComponent {
	t.Helper()
	c := host.instantiate("MyInstance", testGUID, fmuruntime.CoSimulation)
	if c == nil {
		t.Fatalf("fmi2Instantiate returned NULL: %+v", host.lastMessage())
	}
	t.Cleanup(func() {
		fmi2FreeInstance(c)
		if n := host.blocks(); n != 0 {
			t.Errorf("%d host blocks leaked", n)
		}
	})

	expect(t, "fmi2SetupExperiment", fmuruntime.Status(fmi2SetupExperiment(c, 0, 0, 0, 0, 0)), fmuruntime.StatusOK)
	expect(t, "fmi2EnterInitializationMode", fmuruntime.Status(fmi2EnterInitializationMode(c)), fmuruntime.StatusOK)
	expect(t, "fmi2ExitInitializationMode", fmuruntime.Status(fmi2ExitInitializationMode(c)), fmuruntime.StatusOK)
	return c
}

func TestExports_Version(t *testing.T) {
	if got := goString(fmi2GetVersion()); got != fmuruntime.Version2 {
		t.Errorf("fmi2GetVersion = %q", got)
	}
	if got := goString(fmi2GetTypesPlatform()); got != fmuruntime.TypesPlatform {
		t.Errorf("fmi2GetTypesPlatform = %q", got)
	}
}

func TestExports_SetGetStep(t *testing.T) {
	registerEcho(t, 0)
	host := newCHost()
	c := ready(t, host)

	vr := []fmuruntime.ValueReference{0}
	expect(t, "fmi2SetReal", host.setReal(c, vr, []float64{1}), fmuruntime.StatusOK)

	got := []float64{-1}
	expect(t, "fmi2GetReal", host.getReal(c, vr, got), fmuruntime.StatusOK)
	if got[0] != 1 {
		t.Fatalf("variable 0 = %g, want 1", got[0])
	}

	expect(t, "fmi2DoStep", fmuruntime.Status(fmi2DoStep(c, 0, 0.1, 1)), fmuruntime.StatusOK)

	undeclared := []float64{-1}
	expect(t, "fmi2GetReal(1)", host.getReal(c, []fmuruntime.ValueReference{1}, undeclared), fmuruntime.StatusError)
	if undeclared[0] != -1 {
		t.Fatalf("failed get wrote %g into the output", undeclared[0])
	}
	msg := host.lastMessage()
	if msg.status != fmuruntime.StatusError || msg.category != logging.CategoryStatusError || msg.text == "" {
		t.Fatalf("host message = %+v", msg)
	}

	expect(t, "fmi2Terminate", fmuruntime.Status(fmi2Terminate(c)), fmuruntime.StatusOK)
}

func TestExports_StateRoundTrip(t *testing.T) {
	registerEcho(t, 0)
	host := newCHost()
	c := ready(t, host)

	vr := []fmuruntime.ValueReference{0}
	expect(t, "fmi2SetReal", host.setReal(c, vr, []float64{1}), fmuruntime.StatusOK)

	var saved cState
	expect(t, "fmi2GetFMUstate", fmuruntime.Status(fmi2GetFMUstate(c, &saved)), fmuruntime.StatusOK)
	if saved == nil {
		t.Fatal("fmi2GetFMUstate returned a NULL state")
	}
	data, st := host.serialize(c, saved)
	expect(t, "serialize", st, fmuruntime.StatusOK)

	expect(t, "fmi2SetReal", host.setReal(c, vr, []float64{2}), fmuruntime.StatusOK)
	expect(t, "fmi2DoStep", fmuruntime.Status(fmi2DoStep(c, 0, 0.1, 1)), fmuruntime.StatusOK)
	got := []float64{0}
	host.getReal(c, vr, got)
	if got[0] != 2 {
		t.Fatalf("variable 0 = %g, want 2", got[0])
	}

	restored, st := host.deserialize(c, data)
	expect(t, "fmi2DeSerializeFMUstate", st, fmuruntime.StatusOK)
	if restored == nil || restored == saved {
		t.Fatalf("deserialized state %p, saved %p", restored, saved)
	}
	expect(t, "fmi2SetFMUstate", fmuruntime.Status(fmi2SetFMUstate(c, restored)), fmuruntime.StatusOK)
	host.getReal(c, vr, got)
	if got[0] != 1 {
		t.Fatalf("variable 0 after restore = %g, want 1", got[0])
	}

	stale := restored
	expect(t, "fmi2FreeFMUstate", fmuruntime.Status(fmi2FreeFMUstate(c, &restored)), fmuruntime.StatusOK)
	if restored != nil {
		t.Fatal("fmi2FreeFMUstate did not clear the caller's state")
	}
	expect(t, "fmi2SetFMUstate(freed)", fmuruntime.Status(fmi2SetFMUstate(c, stale)), fmuruntime.StatusError)
	expect(t, "fmi2FreeFMUstate(NULL)", fmuruntime.Status(fmi2FreeFMUstate(c, nil)), fmuruntime.StatusOK)
	expect(t, "fmi2FreeFMUstate(saved)", fmuruntime.Status(fmi2FreeFMUstate(c, &saved)), fmuruntime.StatusOK)
}

func TestExports_ReuseState(t *testing.T) {
	registerEcho(t, 0)
	host := newCHost()
	c := ready(t, host)

	var s cState
	expect(t, "fmi2GetFMUstate", fmuruntime.Status(fmi2GetFMUstate(c, &s)), fmuruntime.StatusOK)
	first := s
	expect(t, "fmi2GetFMUstate(reuse)", fmuruntime.Status(fmi2GetFMUstate(c, &s)), fmuruntime.StatusOK)
	if s == nil {
		t.Fatal("reused state is NULL")
	}
	if s != first {
		expect(t, "fmi2SetFMUstate(replaced)", fmuruntime.Status(fmi2SetFMUstate(c, first)), fmuruntime.StatusError)
	}
	expect(t, "fmi2FreeFMUstate", fmuruntime.Status(fmi2FreeFMUstate(c, &s)), fmuruntime.StatusOK)
}

func TestExports_Strings(t *testing.T) {
	registerEcho(t, 0)
	host := newCHost()
	c := ready(t, host)

	vr := []fmuruntime.ValueReference{0}
	expect(t, "fmi2SetString", host.setString(c, vr, []string{"first"}), fmuruntime.StatusOK)
	values, ptrs, st := host.getString(c, vr)
	expect(t, "fmi2GetString", st, fmuruntime.StatusOK)
	if values[0] != "first" || ptrs[0] == nil {
		t.Fatalf("fmi2GetString = %q at %p", values[0], ptrs[0])
	}

	expect(t, "fmi2SetString", host.setString(c, vr, []string{"second"}), fmuruntime.StatusOK)
	if values, _, _ = host.getString(c, vr); values[0] != "second" {
		t.Fatalf("fmi2GetString = %q, want second", values[0])
	}

	_, ptrs, st = host.getString(c, []fmuruntime.ValueReference{3})
	expect(t, "fmi2GetString(3)", st, fmuruntime.StatusError)
	if ptrs[0] != nil {
		t.Fatal("failed get wrote a string pointer")
	}
}

func TestExports_DiscardedStep(t *testing.T) {
	registerEcho(t, 0.9)
	host := newCHost()
	c := ready(t, host)

	expect(t, "fmi2DoStep", fmuruntime.Status(fmi2DoStep(c, 0, 0.5, 1)), fmuruntime.StatusOK)
	expect(t, "fmi2DoStep", fmuruntime.Status(fmi2DoStep(c, 0.5, 0.5, 1)), fmuruntime.StatusDiscard)

	last, st := host.realStatus(c, fmuruntime.LastSuccessfulTime, -1)
	expect(t, "fmi2GetRealStatus", st, fmuruntime.StatusOK)
	if math.Abs(last-0.9) > 1e-12 {
		t.Fatalf("last successful time = %g, want 0.9", last)
	}

	v, st := host.realStatus(c, fmuruntime.DoStepStatus, -1)
	expect(t, "fmi2GetRealStatus(DoStepStatus)", st, fmuruntime.StatusError)
	if v != -1 {
		t.Fatalf("failed status query wrote %g", v)
	}
	s, st := host.status(c, fmuruntime.DoStepStatus)
	expect(t, "fmi2GetStatus", st, fmuruntime.StatusError)
	if s != fmuruntime.StatusPending {
		t.Fatalf("failed status query wrote %v", s)
	}
}

func TestExports_Unsupported(t *testing.T) {
	registerEcho(t, 0)
	host := newCHost()
	c := ready(t, host)

	tests := []struct {
		name string
		call func() fmuruntime.Status
	}{
		{"fmi2CancelStep", func() fmuruntime.Status { return fmuruntime.Status(fmi2CancelStep(c)) }},
		{"fmi2GetDirectionalDerivative", func() fmuruntime.Status {
			return fmuruntime.Status(fmi2GetDirectionalDerivative(c, nil, 0, nil, 0, nil, nil))
		}},
		{"fmi2SetRealInputDerivatives", func() fmuruntime.Status {
			return fmuruntime.Status(fmi2SetRealInputDerivatives(c, nil, 0, nil, nil))
		}},
		{"fmi2GetRealOutputDerivatives", func() fmuruntime.Status {
			return fmuruntime.Status(fmi2GetRealOutputDerivatives(c, nil, 0, nil, nil))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect(t, tt.name, tt.call(), fmuruntime.StatusError)
		})
	}
}

func TestExports_InstantiateFailures(t *testing.T) {
	registerEcho(t, 0)
	host := newCHost()

	if c := host.instantiate("MyInstance", testGUID, fmuruntime.ModelExchange); c != nil {
		fmi2FreeInstance(c)
		t.Fatal("ModelExchange instantiation succeeded")
	}
	msg := host.lastMessage()
	if msg.count != 1 || msg.status != fmuruntime.StatusError {
		t.Fatalf("host message = %+v", msg)
	}
	if host.blocks() != 0 {
		t.Fatalf("%d host blocks leaked", host.blocks())
	}

	if d := dispatcher.Swap(nil); d != nil {
		_ = d.Close()
	}
	if c := host.instantiate("MyInstance", testGUID, fmuruntime.CoSimulation); c != nil {
		t.Fatal("instantiation without a registered factory succeeded")
	}
	if msg := host.lastMessage(); msg.status != fmuruntime.StatusFatal {
		t.Fatalf("host message = %+v", msg)
	}
}

func TestExports_NullComponent(t *testing.T) {
	registerEcho(t, 0)
	expect(t, "fmi2DoStep(NULL)", fmuruntime.Status(fmi2DoStep(nil, 0, 0.1, 1)), fmuruntime.StatusError)
	fmi2FreeInstance(nil)
}
