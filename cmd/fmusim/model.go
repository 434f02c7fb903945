package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/wippyai/fmu-runtime/examples/oscillator"
	"github.com/wippyai/fmu-runtime/slave"
	"github.com/wippyai/fmu-runtime/wasmslave"
)

const (
	builtinOscillator = "oscillator"
	wasmPrefix        = "wasm:"
)

// model is a slave factory plus what the driver knows about its variables.
type model struct {
	name    string
	guid    string
	factory slave.Factory

	reals    map[uint32]string
	integers map[uint32]string
	booleans map[uint32]string

	close func() error
}

// openModel resolves a scenario model reference.
func openModel(ctx context.Context, ref string, memoryLimitPages uint32) (*model, error) {
	if ref == builtinOscillator {
		m := &model{
			name:     builtinOscillator,
			guid:     oscillator.GUID,
			factory:  oscillator.New,
			reals:    make(map[uint32]string, len(oscillator.RealNames)),
			integers: map[uint32]string{oscillator.Steps: "steps"},
			booleans: map[uint32]string{oscillator.Frozen: "frozen"},
			close:    func() error { return nil },
		}
		for vr, name := range oscillator.RealNames {
			m.reals[uint32(vr)] = name
		}
		return m, nil
	}

	path, ok := strings.CutPrefix(ref, wasmPrefix)
	if !ok || path == "" {
		return nil, fmt.Errorf("unknown model %q", ref)
	}
	loader, err := wasmslave.LoadFile(ctx, path, wasmslave.Config{MemoryLimitPages: memoryLimitPages})
	if err != nil {
		return nil, err
	}
	// Guests carry no GUID of their own; any value is accepted.
	return &model{
		name:    path,
		guid:    "{" + uuid.NewString() + "}",
		factory: loader.Factory(),
		close:   func() error { return loader.Close(ctx) },
	}, nil
}

func (m *model) realName(vr uint32) string    { return varName(m.reals, "r", vr) }
func (m *model) integerName(vr uint32) string { return varName(m.integers, "i", vr) }
func (m *model) booleanName(vr uint32) string { return varName(m.booleans, "b", vr) }

func varName(names map[uint32]string, prefix string, vr uint32) string {
	if n, ok := names[vr]; ok {
		return n
	}
	return prefix + strconv.FormatUint(uint64(vr), 10)
}

// lookupReal resolves a real variable by name or value reference.
func (m *model) lookupReal(ref string) (uint32, error) {
	for vr, name := range m.reals {
		if name == ref {
			return vr, nil
		}
	}
	vr, err := strconv.ParseUint(strings.TrimPrefix(ref, "r"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown real variable %q", ref)
	}
	return uint32(vr), nil
}

// variableCounts asks a slave for its table sizes when it can tell.
func variableCounts(inst slave.Instance) (reals, integers, booleans int, ok bool) {
	switch s := inst.(type) {
	case interface{ Counts() (int, int, int) }:
		reals, integers, booleans = s.Counts()
		return reals, integers, booleans, true
	case interface{ Counts() (int, int, int, int) }:
		reals, integers, booleans, _ = s.Counts()
		return reals, integers, booleans, true
	}
	return 0, 0, 0, false
}
