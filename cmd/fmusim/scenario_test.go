package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseScenario(t *testing.T) {
	data := []byte(`
model: oscillator
instance: osc1
stop: 2
step: 0.5
tolerance: 1e-6
reals:
  2: 4.0
  5: 1.5
integers:
  0: 3
booleans:
  0: true
outputs:
  reals: [0, 1]
  integers: [0]
debug: true
categories: [logEvents]
`)
	s, err := ParseScenario(data)
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	if s.Instance != "osc1" || s.Stop != 2 || s.Step != 0.5 || s.Tolerance != 1e-6 {
		t.Errorf("scalars = %+v", s)
	}
	if s.Start != 0 || s.MemoryLimitPages != 256 {
		t.Errorf("defaults lost: start=%g pages=%d", s.Start, s.MemoryLimitPages)
	}
	if s.Reals[2] != 4 || s.Reals[5] != 1.5 || s.Integers[0] != 3 || !s.Booleans[0] {
		t.Errorf("start values = %v %v %v", s.Reals, s.Integers, s.Booleans)
	}
	if len(s.Outputs.Reals) != 2 || len(s.Outputs.Integers) != 1 || len(s.Outputs.Booleans) != 0 {
		t.Errorf("outputs = %+v", s.Outputs)
	}
	if !s.Debug || len(s.Categories) != 1 || s.Categories[0] != "logEvents" {
		t.Errorf("debug = %v %v", s.Debug, s.Categories)
	}
	if s.Steps() != 4 {
		t.Errorf("Steps() = %d, want 4", s.Steps())
	}
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown model", "model: fmu.so", "unknown model"},
		{"empty model", "model: ''", "model is required"},
		{"empty instance", "instance: ''", "instance name is required"},
		{"zero step", "step: 0", "step must be positive"},
		{"stop before start", "start: 5\nstop: 1", "before start"},
		{"negative tolerance", "tolerance: -1", "tolerance"},
		{"bad yaml", "stop: [", "parse scenario"},
		{"bad map key", "reals:\n  x: 1", "parse scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte("model: wasm:model.wasm\nstop: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if s.Model != "wasm:model.wasm" || s.Stop != 1 || s.Step != 0.1 {
		t.Errorf("scenario = %+v", s)
	}

	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		start, stop, step float64
		want              int
	}{
		{0, 1, 0.1, 10},
		{0, 10, 0.1, 100},
		{0, 1, 0.3, 3},
		{2, 2, 0.1, 0},
		{0, 0.05, 0.1, 0},
	}
	for _, tt := range tests {
		s := &Scenario{Start: tt.start, Stop: tt.stop, Step: tt.step}
		if got := s.Steps(); got != tt.want {
			t.Errorf("Steps(%g..%g by %g) = %d, want %d", tt.start, tt.stop, tt.step, got, tt.want)
		}
	}
}

func TestAssignments(t *testing.T) {
	s := DefaultScenario()
	if err := s.SetReal("3 = 2.5"); err != nil {
		t.Fatalf("SetReal: %v", err)
	}
	if err := s.SetInteger("1=-7"); err != nil {
		t.Fatalf("SetInteger: %v", err)
	}
	if err := s.SetBoolean("0=true"); err != nil {
		t.Fatalf("SetBoolean: %v", err)
	}
	if s.Reals[3] != 2.5 || s.Integers[1] != -7 || !s.Booleans[0] {
		t.Fatalf("values = %v %v %v", s.Reals, s.Integers, s.Booleans)
	}

	bad := []struct {
		name string
		fn   func(string) error
		arg  string
	}{
		{"no equals", s.SetReal, "3"},
		{"bad vr", s.SetReal, "x=1"},
		{"negative vr", s.SetReal, "-1=1"},
		{"bad real", s.SetReal, "0=abc"},
		{"integer overflow", s.SetInteger, "0=4294967296"},
		{"bad boolean", s.SetBoolean, "0=maybe"},
	}
	for _, tt := range bad {
		if err := tt.fn(tt.arg); err == nil {
			t.Errorf("%s: expected error for %q", tt.name, tt.arg)
		}
	}
}

func TestRunOptionsApply(t *testing.T) {
	s := DefaultScenario()
	s.Stop = 3
	s.Instance = "from-file"

	o := runOptions{
		stop:     7,
		step:     0.25,
		instance: "ignored",
		reals:    []string{"0=2"},
	}
	changed := map[string]bool{"stop": true, "step": true}
	if err := o.apply(s, func(name string) bool { return changed[name] }); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.Stop != 7 || s.Step != 0.25 {
		t.Errorf("flags not applied: stop=%g step=%g", s.Stop, s.Step)
	}
	if s.Instance != "from-file" {
		t.Errorf("unchanged flag overrode file: instance=%q", s.Instance)
	}
	if s.Reals[0] != 2 {
		t.Errorf("real assignment not applied: %v", s.Reals)
	}

	o = runOptions{step: -1}
	if err := o.apply(DefaultScenario(), func(name string) bool { return name == "step" }); err == nil {
		t.Error("expected validation error")
	}
}
