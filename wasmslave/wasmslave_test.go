package wasmslave

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/fmi2"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/slave"
)

func uleb(v int) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func vec(items ...[]byte) []byte { return cat(uleb(len(items)), cat(items...)) }

func name(s string) []byte { return cat(uleb(len(s)), []byte(s)) }

func section(id byte, items ...[]byte) []byte {
	body := vec(items...)
	return cat([]byte{id}, uleb(len(body)), body)
}

func functype(params, results []byte) []byte {
	return cat([]byte{0x60}, uleb(len(params)), params, uleb(len(results)), results)
}

func export(n string, kind byte, idx int) []byte { return cat(name(n), []byte{kind}, uleb(idx)) }

func body(instrs ...byte) []byte {
	b := cat([]byte{0x00}, instrs, []byte{0x0b})
	return cat(uleb(len(b)), b)
}

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

const (
	vI32 = 0x7f
	vF64 = 0x7c
)

// guestWASM keeps two reals at addresses 0 and 8.
//
//	do_step: Discard when newStep is 0, trap when h < 0, else real0 += h
//	enter_initialization_mode: env.log(1, "hello")
//	terminate: returns Error
var guestWASM = cat(header,
	section(1,
		functype([]byte{vI32, vI32, vI32}, nil),          // 0 log
		functype([]byte{vI32}, []byte{vF64}),             // 1 get_real
		functype([]byte{vI32, vF64}, nil),                // 2 set_real
		functype(nil, []byte{vI32}),                      // 3 () -> status
		functype([]byte{vF64, vF64, vI32}, []byte{vI32}), // 4 do_step
	),
	section(2, cat(name("env"), name("log"), []byte{0x00}, uleb(0))),
	section(3, uleb(1), uleb(2), uleb(3), uleb(3), uleb(3), uleb(4)),
	section(5, []byte{0x00, 0x01}),
	section(7,
		export("memory", 0x02, 0),
		export("get_real", 0x00, 1),
		export("set_real", 0x00, 2),
		export("real_count", 0x00, 3),
		export("enter_initialization_mode", 0x00, 4),
		export("terminate", 0x00, 5),
		export("do_step", 0x00, 6),
	),
	section(10,
		body(0x20, 0x00, 0x41, 0x03, 0x74, 0x2b, 0x03, 0x00),
		body(0x20, 0x00, 0x41, 0x03, 0x74, 0x20, 0x01, 0x39, 0x03, 0x00),
		body(0x41, 0x02),
		body(0x41, 0x01, 0x41, 0xc0, 0x00, 0x41, 0x05, 0x10, 0x00, 0x41, 0x00),
		body(0x41, 0x03),
		body(
			0x20, 0x02, 0x45, 0x04, 0x40, 0x41, 0x02, 0x0f, 0x0b,
			0x20, 0x01, 0x44, 0, 0, 0, 0, 0, 0, 0, 0, 0x63, 0x04, 0x40, 0x00, 0x0b,
			0x41, 0x00, 0x41, 0x00, 0x2b, 0x03, 0x00, 0x20, 0x01, 0xa0, 0x39, 0x03, 0x00,
			0x41, 0x00,
		),
	),
	section(11, cat([]byte{0x00, 0x41, 0xc0, 0x00, 0x0b}, name("hello"))),
)

// memoryOnlyWASM exports one page of memory and nothing else.
var memoryOnlyWASM = cat(header,
	section(5, []byte{0x00, 0x01}),
	section(7, export("memory", 0x02, 0)),
)

// badStepWASM exports do_step as () -> i32.
var badStepWASM = cat(header,
	section(1, functype(nil, []byte{vI32})),
	section(3, uleb(0)),
	section(5, []byte{0x00, 0x01}),
	section(7, export("memory", 0x02, 0), export("do_step", 0x00, 0)),
	section(10, body(0x41, 0x00)),
)

// noMemoryWASM has a valid do_step but no memory.
var noMemoryWASM = cat(header,
	section(1, functype([]byte{vF64, vF64, vI32}, []byte{vI32})),
	section(3, uleb(0)),
	section(7, export("do_step", 0x00, 0)),
	section(10, body(0x41, 0x00)),
)

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		wasm []byte
		kind errors.Kind
	}{
		{"garbage", []byte("not wasm"), errors.KindInvalidData},
		{"missing do_step", memoryOnlyWASM, errors.KindNotFound},
		{"do_step signature", badStepWASM, errors.KindTypeMismatch},
		{"missing memory", noMemoryWASM, errors.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Load(ctx, tt.wasm, Config{})
			if err == nil {
				_ = l.Close(ctx)
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Kind != tt.kind || e.Phase != errors.PhaseLoad {
				t.Fatalf("err = %v, want %s/%s", err, errors.PhaseLoad, tt.kind)
			}
		})
	}
}

type message struct {
	status   fmuruntime.Status
	category string
	text     string
}

type host struct {
	d        *fmi2.Dispatcher
	tracker  *memory.Tracker
	messages []message
}

func newHost(t *testing.T, cfg Config) *host {
	t.Helper()
	ctx := context.Background()
	l, err := Load(ctx, guestWASM, cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h := &host{d: fmi2.New(l.Factory()), tracker: memory.NewTracker()}
	t.Cleanup(func() {
		h.d.Close()
		_ = l.Close(ctx)
		if h.tracker.Live() != 0 {
			t.Errorf("%d host blocks leaked", h.tracker.Live())
		}
	})
	return h
}

func (h *host) instantiate(t *testing.T, guid string) fmi2.Handle {
	t.Helper()
	cb := fmi2.Callbacks{
		Logger: func(_ string, status fmuruntime.Status, category, text string) {
			h.messages = append(h.messages, message{status, category, text})
		},
		Memory: h.tracker.Memory(),
	}
	return h.d.Instantiate("guest", fmuruntime.CoSimulation, guid, "", cb, false, false)
}

func (h *host) last() message {
	if len(h.messages) == 0 {
		return message{}
	}
	return h.messages[len(h.messages)-1]
}

func (h *host) real(t *testing.T, c fmi2.Handle, vr fmi2.ValueReference) float64 {
	t.Helper()
	v := make([]float64, 1)
	if st := h.d.GetReal(c, []fmi2.ValueReference{vr}, v); st != fmuruntime.StatusOK {
		t.Fatalf("GetReal(%d) = %v: %s", vr, st, h.last().text)
	}
	return v[0]
}

func TestSlave_Lifecycle(t *testing.T) {
	h := newHost(t, Config{})
	c := h.instantiate(t, "")
	if c == 0 {
		t.Fatalf("Instantiate failed: %+v", h.last())
	}

	if st := h.d.EnterInitializationMode(c); st != fmuruntime.StatusOK {
		t.Fatalf("EnterInitializationMode = %v", st)
	}
	if got := h.last(); got != (message{fmuruntime.StatusOK, "logEvents", "hello"}) {
		t.Fatalf("guest log = %+v", got)
	}
	if st := h.d.ExitInitializationMode(c); st != fmuruntime.StatusOK {
		t.Fatalf("ExitInitializationMode without export = %v", st)
	}

	if st := h.d.SetReal(c, []fmi2.ValueReference{0, 1}, []float64{1, 7}); st != fmuruntime.StatusOK {
		t.Fatalf("SetReal = %v", st)
	}
	if st := h.d.SetReal(c, []fmi2.ValueReference{2}, []float64{1}); st != fmuruntime.StatusError {
		t.Fatalf("SetReal(out of range) = %v", st)
	}

	if st := h.d.DoStep(c, 0, 0.5, true); st != fmuruntime.StatusOK {
		t.Fatalf("DoStep = %v", st)
	}
	if v := h.real(t, c, 0); v != 1.5 {
		t.Fatalf("real0 = %v", v)
	}
	if v := h.real(t, c, 1); v != 7 {
		t.Fatalf("real1 = %v", v)
	}

	if st := h.d.DoStep(c, 0.5, 0.5, false); st != fmuruntime.StatusDiscard {
		t.Fatalf("DoStep(newStep=false) = %v", st)
	}
	if v, _ := h.d.GetRealStatus(c, fmuruntime.LastSuccessfulTime); v != 0.5 {
		t.Fatalf("last successful time = %v", v)
	}

	if st := h.d.GetInteger(c, []fmi2.ValueReference{0}, make([]int32, 1)); st != fmuruntime.StatusError {
		t.Fatalf("GetInteger = %v", st)
	}

	if st := h.d.Terminate(c); st != fmuruntime.StatusError {
		t.Fatalf("Terminate = %v", st)
	}
	if h.last().text != "terminate returned Error" {
		t.Fatalf("message = %q", h.last().text)
	}

	if st := h.d.DoStep(c, 0.5, -1, true); st != fmuruntime.StatusFatal {
		t.Fatalf("trapping DoStep = %v", st)
	}
}

func TestSlave_States(t *testing.T) {
	h := newHost(t, Config{})
	c := h.instantiate(t, "")
	if c == 0 {
		t.Fatal("Instantiate failed")
	}

	h.d.SetReal(c, []fmi2.ValueReference{0}, []float64{1})
	s, st := h.d.GetFMUState(c, 0)
	if st != fmuruntime.StatusOK {
		t.Fatalf("GetFMUState = %v", st)
	}

	h.d.DoStep(c, 0, 2, true)
	if st := h.d.SetFMUState(c, s); st != fmuruntime.StatusOK {
		t.Fatalf("SetFMUState = %v", st)
	}
	if v := h.real(t, c, 0); v != 1 {
		t.Fatalf("restored real0 = %v", v)
	}

	size, st := h.d.SerializedFMUStateSize(c, s)
	if st != fmuruntime.StatusOK || size != stateHeader+pageSize {
		t.Fatalf("SerializedFMUStateSize = %d, %v", size, st)
	}
	data := make([]byte, size)
	if st := h.d.SerializeFMUState(c, s, data); st != fmuruntime.StatusOK {
		t.Fatalf("SerializeFMUState = %v", st)
	}
	if st := h.d.SerializeFMUState(c, s, data[:size-1]); st != fmuruntime.StatusError {
		t.Fatalf("SerializeFMUState(short) = %v", st)
	}

	h.d.DoStep(c, 0, 3, true)
	s2, st := h.d.DeserializeFMUState(c, data)
	if st != fmuruntime.StatusOK {
		t.Fatalf("DeserializeFMUState = %v", st)
	}
	h.d.SetFMUState(c, s2)
	if v := h.real(t, c, 0); v != 1 {
		t.Fatalf("real0 after deserialized restore = %v", v)
	}

	for _, bad := range [][]byte{nil, []byte("FMUW"), data[:size-1], append([]byte("XXXX"), data[4:]...)} {
		if _, st := h.d.DeserializeFMUState(c, bad); st != fmuruntime.StatusError {
			t.Errorf("DeserializeFMUState(%d bytes) = %v", len(bad), st)
		}
	}

	if st := h.d.FreeFMUState(c, s); st != fmuruntime.StatusOK {
		t.Fatalf("FreeFMUState = %v", st)
	}
}

func TestSlave_ForeignState(t *testing.T) {
	l, err := Load(context.Background(), guestWASM, Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close(context.Background())

	s, err := l.Instantiate(context.Background(), slave.InstanceInfo{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if r, i, b := s.Counts(); r != 2 || i != 0 || b != 0 {
		t.Fatalf("Counts = %d %d %d", r, i, b)
	}
	if err := s.SetFMUState(&slave.Snapshot{}); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseState, Kind: errors.KindTypeMismatch}) {
		t.Fatalf("SetFMUState(foreign) = %v", err)
	}
	if err := s.GetString([]slave.ValueReference{0}, make([]string, 1)); err == nil {
		t.Fatal("strings should be unsupported")
	}
}

func TestSlave_GUID(t *testing.T) {
	h := newHost(t, Config{GUID: "{8c4e810f-3df3-4a00-8276-176fa3c9f000}"})
	if c := h.instantiate(t, "{other}"); c != 0 {
		t.Fatal("GUID mismatch accepted")
	}
	if h.last().status != fmuruntime.StatusError {
		t.Fatalf("mismatch status = %v", h.last().status)
	}
	if c := h.instantiate(t, "{8c4e810f-3df3-4a00-8276-176fa3c9f000}"); c == 0 {
		t.Fatalf("matching GUID rejected: %s", h.last().text)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guest.wasm")
	if err := os.WriteFile(path, guestWASM, 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := LoadFile(context.Background(), path, Config{MemoryLimitPages: 4})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	_ = l.Close(context.Background())

	if _, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.wasm"), Config{}); err == nil {
		t.Fatal("missing file should fail")
	}
}
