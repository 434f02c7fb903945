package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/fmi2"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
)

// simulation drives one instance through the FMI 2.0 dispatcher, the same
// code path the C exports take.
type simulation struct {
	sc      *Scenario
	model   *model
	log     *zap.Logger
	tracker *memory.Tracker
	d       *fmi2.Dispatcher
	h       fmi2.Handle
	time    float64

	// time is origin + steps*sc.Step.
	origin float64
	steps  int
}

func newSimulation(sc *Scenario, m *model, log *zap.Logger) (*simulation, error) {
	s := &simulation{
		sc:      sc,
		model:   m,
		log:     log,
		tracker: memory.NewTracker(),
		d:       fmi2.NewWithConfig(m.factory, fmi2.Config{Logger: log.Named("fmi2")}),
		time:    sc.Start,
		origin:  sc.Start,
	}

	guid := sc.GUID
	if guid == "" {
		guid = m.guid
	}
	s.h = s.d.Instantiate(sc.Instance, fmuruntime.CoSimulation, guid, "", fmi2.Callbacks{
		Logger: logging.ZapSink(log.Named("model")),
		Memory: s.tracker.Memory(),
	}, false, sc.Debug)
	if s.h == 0 {
		_ = s.d.Close()
		return nil, fmt.Errorf("instantiate %s failed", m.name)
	}
	if sc.Debug && len(sc.Categories) > 0 {
		if err := check("SetDebugLogging", s.d.SetDebugLogging(s.h, true, sc.Categories)); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

// check accepts OK and Warning.
func check(function string, st fmuruntime.Status) error {
	if st == fmuruntime.StatusOK || st == fmuruntime.StatusWarning {
		return nil
	}
	return fmt.Errorf("%s returned %s", function, st)
}

// initialize runs setup and initialization mode, applying the scenario's
// start values.
func (s *simulation) initialize() error {
	sc := s.sc
	if err := check("SetupExperiment", s.d.SetupExperiment(s.h, sc.Tolerance > 0, sc.Tolerance, sc.Start, true, sc.Stop)); err != nil {
		return err
	}
	if err := check("EnterInitializationMode", s.d.EnterInitializationMode(s.h)); err != nil {
		return err
	}
	if len(sc.Reals) > 0 {
		vr, v := sorted(sc.Reals)
		if err := check("SetReal", s.d.SetReal(s.h, vr, v)); err != nil {
			return err
		}
	}
	if len(sc.Integers) > 0 {
		vr, v := sorted(sc.Integers)
		if err := check("SetInteger", s.d.SetInteger(s.h, vr, v)); err != nil {
			return err
		}
	}
	if len(sc.Booleans) > 0 {
		vr, v := sorted(sc.Booleans)
		if err := check("SetBoolean", s.d.SetBoolean(s.h, vr, v)); err != nil {
			return err
		}
	}
	return check("ExitInitializationMode", s.d.ExitInitializationMode(s.h))
}

func sorted[T any](m map[uint32]T) ([]uint32, []T) {
	vr := make([]uint32, 0, len(m))
	for k := range m {
		vr = append(vr, k)
	}
	sort.Slice(vr, func(i, j int) bool { return vr[i] < vr[j] })
	values := make([]T, len(vr))
	for i, k := range vr {
		values[i] = m[k]
	}
	return vr, values
}

// step advances one communication step. A discarded step moves time to the
// last successful time and is reported as an error.
func (s *simulation) step() error {
	st := s.d.DoStep(s.h, s.time, s.sc.Step, true)
	switch st {
	case fmuruntime.StatusOK, fmuruntime.StatusWarning:
		s.steps++
		s.time = s.origin + float64(s.steps)*s.sc.Step
		return nil
	case fmuruntime.StatusDiscard:
		last, _ := s.d.GetRealStatus(s.h, fmuruntime.LastSuccessfulTime)
		s.seek(last)
		return fmt.Errorf("step discarded at t=%g", last)
	}
	return fmt.Errorf("DoStep at t=%g returned %s", s.time, st)
}

// seek moves the communication point to t, which becomes the new origin.
func (s *simulation) seek(t float64) {
	s.time, s.origin, s.steps = t, t, 0
}

// done reports whether another step would pass the stop time.
func (s *simulation) done() bool {
	return s.time+s.sc.Step > s.sc.Stop+1e-9*s.sc.Step
}

// outputs returns the scenario's output selection, defaulting to every
// known real variable.
func (s *simulation) outputs() Outputs {
	if !s.sc.Outputs.empty() {
		return s.sc.Outputs
	}
	var out Outputs
	if len(s.model.reals) > 0 {
		out.Reals, _ = sorted(s.model.reals)
		return out
	}
	inst, ok := s.d.Component(s.h)
	if !ok {
		return out
	}
	if n, _, _, ok := variableCounts(inst.Slave()); ok {
		for vr := 0; vr < n; vr++ {
			out.Reals = append(out.Reals, uint32(vr))
		}
	}
	return out
}

func (s *simulation) header(out Outputs) []string {
	cols := []string{"time"}
	for _, vr := range out.Reals {
		cols = append(cols, s.model.realName(vr))
	}
	for _, vr := range out.Integers {
		cols = append(cols, s.model.integerName(vr))
	}
	for _, vr := range out.Booleans {
		cols = append(cols, s.model.booleanName(vr))
	}
	return cols
}

// sample reads the selected outputs at the current time.
func (s *simulation) sample(out Outputs) ([]string, error) {
	row := []string{formatFloat(s.time)}
	if len(out.Reals) > 0 {
		v := make([]float64, len(out.Reals))
		if err := check("GetReal", s.d.GetReal(s.h, out.Reals, v)); err != nil {
			return nil, err
		}
		for _, x := range v {
			row = append(row, formatFloat(x))
		}
	}
	if len(out.Integers) > 0 {
		v := make([]int32, len(out.Integers))
		if err := check("GetInteger", s.d.GetInteger(s.h, out.Integers, v)); err != nil {
			return nil, err
		}
		for _, x := range v {
			row = append(row, strconv.FormatInt(int64(x), 10))
		}
	}
	if len(out.Booleans) > 0 {
		v := make([]bool, len(out.Booleans))
		if err := check("GetBoolean", s.d.GetBoolean(s.h, out.Booleans, v)); err != nil {
			return nil, err
		}
		for _, x := range v {
			row = append(row, strconv.FormatBool(x))
		}
	}
	return row, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}

// close terminates and frees the instance and returns the number of host
// blocks still allocated.
func (s *simulation) close() int {
	if st := s.d.Terminate(s.h); st != fmuruntime.StatusOK {
		s.log.Debug("terminate", zap.Stringer("status", st))
	}
	s.d.FreeInstance(s.h)
	_ = s.d.Close()
	return s.tracker.Live()
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// simulate runs the whole scenario and writes one row per communication
// point. styled selects a lipgloss table instead of tab-separated text.
func simulate(sc *Scenario, m *model, log *zap.Logger, w io.Writer, styled bool) error {
	sim, err := newSimulation(sc, m, log)
	if err != nil {
		return err
	}
	runErr := run(sim, w, styled)
	if leaked := sim.close(); leaked != 0 {
		log.Warn("host memory leaked", zap.Int("blocks", leaked))
		if runErr == nil {
			runErr = fmt.Errorf("%d host memory blocks leaked", leaked)
		}
	}
	return runErr
}

func run(sim *simulation, w io.Writer, styled bool) error {
	if err := sim.initialize(); err != nil {
		return err
	}
	out := sim.outputs()
	header := sim.header(out)

	var rows [][]string
	emit := func(row []string) {
		if styled {
			rows = append(rows, row)
			return
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if !styled {
		fmt.Fprintln(w, strings.Join(header, "\t"))
	}

	row, err := sim.sample(out)
	if err != nil {
		return err
	}
	emit(row)

	n := sim.sc.Steps()
	var stepErr error
	for i := 0; i < n; i++ {
		if stepErr = sim.step(); stepErr != nil {
			break
		}
		if row, err = sim.sample(out); err != nil {
			return err
		}
		emit(row)
	}

	if styled {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(borderStyle).
			Headers(header...).
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		fmt.Fprintln(w, t.Render())
	}

	sim.log.Debug("simulation finished",
		zap.String("model", sim.model.name),
		zap.Float64("time", sim.time),
		zap.Int("steps", n),
	)
	return stepErr
}
