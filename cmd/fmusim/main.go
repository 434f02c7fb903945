// fmusim drives a co-simulation model through the FMI 2.0 dispatcher.
//
//	fmusim run -c scenario.yaml
//	fmusim run --model wasm:model.wasm --stop 5 --step 0.01 --real 0=2.5
//	fmusim run -i
//	fmusim info oscillator
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/component"
	"github.com/wippyai/fmu-runtime/fmi2"
	"github.com/wippyai/fmu-runtime/wasmslave"
)

var version = "0.1.0"

var (
	verbose bool
	logger  = zap.NewNop()
)

type runOptions struct {
	scenario    string
	model       string
	guid        string
	instance    string
	start       float64
	stop        float64
	step        float64
	tolerance   float64
	debug       bool
	categories  []string
	reals       []string
	integers    []string
	booleans    []string
	interactive bool
}

var runOpts runOptions

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fmusim",
	Short: "Drive FMI co-simulation models from the command line",
	Long: `fmusim instantiates a model through the FMI 2.0 co-simulation dispatcher,
initializes it from a scenario and steps it to the stop time.

Models are either the built-in "oscillator" or a WebAssembly guest given as
"wasm:<path>".`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and print the outputs after every step",
	Args:  cobra.NoArgs,
	RunE:  runScenario,
}

var infoCmd = &cobra.Command{
	Use:   "info [model]",
	Short: "Show platform, version and model variables",
	Args:  cobra.MaximumNArgs(1),
	RunE:  showInfo,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log runtime diagnostics to stderr")

	f := runCmd.Flags()
	f.StringVarP(&runOpts.scenario, "config", "c", "", "Scenario YAML file")
	f.StringVarP(&runOpts.model, "model", "m", "", "Model: oscillator or wasm:<path>")
	f.StringVar(&runOpts.guid, "guid", "", "GUID passed to instantiate (default: the model's)")
	f.StringVar(&runOpts.instance, "instance", "", "Instance name")
	f.Float64Var(&runOpts.start, "start", 0, "Start time")
	f.Float64Var(&runOpts.stop, "stop", 0, "Stop time")
	f.Float64Var(&runOpts.step, "step", 0, "Communication step size")
	f.Float64Var(&runOpts.tolerance, "tolerance", 0, "Relative tolerance (0: undefined)")
	f.BoolVar(&runOpts.debug, "debug", false, "Enable model debug logging")
	f.StringSliceVar(&runOpts.categories, "category", nil, "Debug log categories")
	f.StringArrayVar(&runOpts.reals, "real", nil, "Real start value vr=value (repeatable)")
	f.StringArrayVar(&runOpts.integers, "integer", nil, "Integer start value vr=value (repeatable)")
	f.StringArrayVar(&runOpts.booleans, "boolean", nil, "Boolean start value vr=value (repeatable)")
	f.BoolVarP(&runOpts.interactive, "interactive", "i", false, "Step interactively")

	rootCmd.AddCommand(runCmd, infoCmd)
}

func setupLogging(*cobra.Command, []string) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logger = l
	component.SetLogger(l.Named("component"))
	fmi2.SetLogger(l.Named("fmi2"))
	wasmslave.SetLogger(l.Named("wasmslave"))
	return nil
}

// apply layers explicitly set flags over s.
func (o *runOptions) apply(s *Scenario, changed func(string) bool) error {
	if changed("model") {
		s.Model = o.model
	}
	if changed("guid") {
		s.GUID = o.guid
	}
	if changed("instance") {
		s.Instance = o.instance
	}
	if changed("start") {
		s.Start = o.start
	}
	if changed("stop") {
		s.Stop = o.stop
	}
	if changed("step") {
		s.Step = o.step
	}
	if changed("tolerance") {
		s.Tolerance = o.tolerance
	}
	if changed("debug") {
		s.Debug = o.debug
	}
	if changed("category") {
		s.Categories = o.categories
	}
	for _, a := range o.reals {
		if err := s.SetReal(a); err != nil {
			return err
		}
	}
	for _, a := range o.integers {
		if err := s.SetInteger(a); err != nil {
			return err
		}
	}
	for _, a := range o.booleans {
		if err := s.SetBoolean(a); err != nil {
			return err
		}
	}
	return s.Validate()
}

func runScenario(cmd *cobra.Command, _ []string) error {
	sc := DefaultScenario()
	if runOpts.scenario != "" {
		var err error
		if sc, err = LoadScenario(runOpts.scenario); err != nil {
			return err
		}
	}
	if err := runOpts.apply(sc, cmd.Flags().Changed); err != nil {
		return err
	}

	ctx := context.Background()
	m, err := openModel(ctx, sc.Model, sc.MemoryLimitPages)
	if err != nil {
		return err
	}
	defer m.close()

	tty := term.IsTerminal(int(os.Stdout.Fd()))
	if !runOpts.interactive {
		return simulate(sc, m, logger, cmd.OutOrStdout(), tty)
	}
	if !tty {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	sim, err := newSimulation(sc, m, logger)
	if err != nil {
		return err
	}
	runErr := runInteractive(sim)
	if leaked := sim.close(); leaked != 0 && runErr == nil {
		runErr = fmt.Errorf("%d host memory blocks leaked", leaked)
	}
	return runErr
}

func showInfo(cmd *cobra.Command, args []string) error {
	sc := DefaultScenario()
	if len(args) == 1 {
		sc.Model = args[0]
	}
	if err := sc.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	m, err := openModel(ctx, sc.Model, sc.MemoryLimitPages)
	if err != nil {
		return err
	}
	defer m.close()

	sim, err := newSimulation(sc, m, logger)
	if err != nil {
		return err
	}
	defer sim.close()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "types platform: %s\n", sim.d.GetTypesPlatform())
	fmt.Fprintf(w, "FMI version:    %s\n", sim.d.GetVersion())
	fmt.Fprintf(w, "runtime:        %s (FMI %s and %s)\n", version, fmuruntime.Version2, fmuruntime.Version1)
	fmt.Fprintf(w, "model:          %s\n", m.name)
	if sc.Model == builtinOscillator {
		fmt.Fprintf(w, "GUID:           %s\n", m.guid)
	}

	inst, ok := sim.d.Component(sim.h)
	if !ok {
		return nil
	}
	reals, integers, booleans, ok := variableCounts(inst.Slave())
	if !ok {
		return nil
	}
	fmt.Fprintf(w, "variables:      %d real, %d integer, %d boolean\n", reals, integers, booleans)
	for vr := 0; vr < reals; vr++ {
		fmt.Fprintf(w, "  real    %3d  %s\n", vr, m.realName(uint32(vr)))
	}
	for vr := 0; vr < integers; vr++ {
		fmt.Fprintf(w, "  integer %3d  %s\n", vr, m.integerName(uint32(vr)))
	}
	for vr := 0; vr < booleans; vr++ {
		fmt.Fprintf(w, "  boolean %3d  %s\n", vr, m.booleanName(uint32(vr)))
	}
	return nil
}
