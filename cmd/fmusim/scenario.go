package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario describes one simulation run. Zero tolerance means undefined.
type Scenario struct {
	Model            string  `yaml:"model"` // oscillator | wasm:<path>
	GUID             string  `yaml:"guid"`  // empty: the model's own GUID
	Instance         string  `yaml:"instance"`
	Start            float64 `yaml:"start"`
	Stop             float64 `yaml:"stop"`
	Step             float64 `yaml:"step"`
	Tolerance        float64 `yaml:"tolerance"`
	MemoryLimitPages uint32  `yaml:"memory_limit_pages"` // wasm models only

	Reals    map[uint32]float64 `yaml:"reals"`
	Integers map[uint32]int32   `yaml:"integers"`
	Booleans map[uint32]bool    `yaml:"booleans"`

	Outputs Outputs `yaml:"outputs"`

	Debug      bool     `yaml:"debug"`
	Categories []string `yaml:"categories"`
}

// Outputs selects the variables printed after every step. When all lists
// are empty every real variable is printed.
type Outputs struct {
	Reals    []uint32 `yaml:"reals"`
	Integers []uint32 `yaml:"integers"`
	Booleans []uint32 `yaml:"booleans"`
}

func (o Outputs) empty() bool {
	return len(o.Reals) == 0 && len(o.Integers) == 0 && len(o.Booleans) == 0
}

// DefaultScenario returns the scenario used when no file is given.
func DefaultScenario() *Scenario {
	return &Scenario{
		Model:            "oscillator",
		Instance:         "fmusim",
		Start:            0,
		Stop:             10,
		Step:             0.1,
		MemoryLimitPages: 256,
	}
}

// LoadScenario reads a YAML scenario over the defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes YAML over the defaults and validates the result.
func ParseScenario(data []byte) (*Scenario, error) {
	s := DefaultScenario()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the scenario for values no run can use.
func (s *Scenario) Validate() error {
	if s.Model == "" {
		return fmt.Errorf("scenario: model is required")
	}
	if s.Model != builtinOscillator && !strings.HasPrefix(s.Model, wasmPrefix) {
		return fmt.Errorf("scenario: unknown model %q (want %s or %s<path>)", s.Model, builtinOscillator, wasmPrefix)
	}
	if s.Instance == "" {
		return fmt.Errorf("scenario: instance name is required")
	}
	if s.Step <= 0 {
		return fmt.Errorf("scenario: step must be positive, got %g", s.Step)
	}
	if s.Stop < s.Start {
		return fmt.Errorf("scenario: stop %g is before start %g", s.Stop, s.Start)
	}
	if s.Tolerance < 0 {
		return fmt.Errorf("scenario: tolerance must not be negative, got %g", s.Tolerance)
	}
	return nil
}

// Steps returns the number of communication steps from start to stop.
func (s *Scenario) Steps() int {
	n := (s.Stop - s.Start) / s.Step
	// Absorb rounding in e.g. (1-0)/0.1.
	return int(n + 1e-9)
}

// SetReal parses an assignment of the form "vr=value".
func (s *Scenario) SetReal(assignment string) error {
	vr, raw, err := splitAssignment(assignment)
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("real %d: %w", vr, err)
	}
	if s.Reals == nil {
		s.Reals = make(map[uint32]float64)
	}
	s.Reals[vr] = v
	return nil
}

// SetInteger parses an assignment of the form "vr=value".
func (s *Scenario) SetInteger(assignment string) error {
	vr, raw, err := splitAssignment(assignment)
	if err != nil {
		return err
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fmt.Errorf("integer %d: %w", vr, err)
	}
	if s.Integers == nil {
		s.Integers = make(map[uint32]int32)
	}
	s.Integers[vr] = int32(v)
	return nil
}

// SetBoolean parses an assignment of the form "vr=value".
func (s *Scenario) SetBoolean(assignment string) error {
	vr, raw, err := splitAssignment(assignment)
	if err != nil {
		return err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("boolean %d: %w", vr, err)
	}
	if s.Booleans == nil {
		s.Booleans = make(map[uint32]bool)
	}
	s.Booleans[vr] = v
	return nil
}

func splitAssignment(a string) (uint32, string, error) {
	ref, value, ok := strings.Cut(a, "=")
	if !ok {
		return 0, "", fmt.Errorf("assignment %q: want vr=value", a)
	}
	vr, err := strconv.ParseUint(strings.TrimSpace(ref), 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("assignment %q: bad value reference: %w", a, err)
	}
	return uint32(vr), strings.TrimSpace(value), nil
}
