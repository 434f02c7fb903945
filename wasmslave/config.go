package wasmslave

import "github.com/tetratelabs/wazero/api"

// ExportNames names the guest exports a slave calls. Empty fields take the
// defaults from DefaultExports.
type ExportNames struct {
	Memory string

	DoStep string

	RealCount    string
	IntegerCount string
	BooleanCount string

	GetReal    string
	SetReal    string
	GetInteger string
	SetInteger string
	GetBoolean string
	SetBoolean string

	SetupExperiment         string
	EnterInitializationMode string
	ExitInitializationMode  string
	Terminate               string
	Reset                   string
}

// DefaultExports returns the conventional export names.
func DefaultExports() ExportNames {
	return ExportNames{
		Memory:                  "memory",
		DoStep:                  "do_step",
		RealCount:               "real_count",
		IntegerCount:            "integer_count",
		BooleanCount:            "boolean_count",
		GetReal:                 "get_real",
		SetReal:                 "set_real",
		GetInteger:              "get_integer",
		SetInteger:              "set_integer",
		GetBoolean:              "get_boolean",
		SetBoolean:              "set_boolean",
		SetupExperiment:         "setup_experiment",
		EnterInitializationMode: "enter_initialization_mode",
		ExitInitializationMode:  "exit_initialization_mode",
		Terminate:               "terminate",
		Reset:                   "reset",
	}
}

func (n ExportNames) withDefaults() ExportNames {
	d := DefaultExports()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&n.Memory, d.Memory)
	fill(&n.DoStep, d.DoStep)
	fill(&n.RealCount, d.RealCount)
	fill(&n.IntegerCount, d.IntegerCount)
	fill(&n.BooleanCount, d.BooleanCount)
	fill(&n.GetReal, d.GetReal)
	fill(&n.SetReal, d.SetReal)
	fill(&n.GetInteger, d.GetInteger)
	fill(&n.SetInteger, d.SetInteger)
	fill(&n.GetBoolean, d.GetBoolean)
	fill(&n.SetBoolean, d.SetBoolean)
	fill(&n.SetupExperiment, d.SetupExperiment)
	fill(&n.EnterInitializationMode, d.EnterInitializationMode)
	fill(&n.ExitInitializationMode, d.ExitInitializationMode)
	fill(&n.Terminate, d.Terminate)
	fill(&n.Reset, d.Reset)
	return n
}

// Config holds configuration for loading a guest module.
type Config struct {
	// MemoryLimitPages caps each instance's linear memory in 64KB pages.
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// GUID, when set, must match the fmuGUID passed at instantiation.
	GUID string

	Exports ExportNames
}

const (
	i32 = api.ValueTypeI32
	f64 = api.ValueTypeF64
)

// signature is the expected shape of one export.
type signature struct {
	params   []api.ValueType
	results  []api.ValueType
	required bool
}

func (n ExportNames) signatures() map[string]signature {
	status := []api.ValueType{i32}
	return map[string]signature{
		n.DoStep:                  {params: []api.ValueType{f64, f64, i32}, results: status, required: true},
		n.RealCount:               {results: status},
		n.IntegerCount:            {results: status},
		n.BooleanCount:            {results: status},
		n.GetReal:                 {params: []api.ValueType{i32}, results: []api.ValueType{f64}},
		n.SetReal:                 {params: []api.ValueType{i32, f64}},
		n.GetInteger:              {params: []api.ValueType{i32}, results: []api.ValueType{i32}},
		n.SetInteger:              {params: []api.ValueType{i32, i32}},
		n.GetBoolean:              {params: []api.ValueType{i32}, results: []api.ValueType{i32}},
		n.SetBoolean:              {params: []api.ValueType{i32, i32}},
		n.SetupExperiment:         {params: []api.ValueType{i32, f64, f64, i32, f64}, results: status},
		n.EnterInitializationMode: {results: status},
		n.ExitInitializationMode:  {results: status},
		n.Terminate:               {results: status},
		n.Reset:                   {results: status},
	}
}
