package slave

import (
	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
)

// ValueReference identifies a variable within one type's table.
type ValueReference = fmuruntime.ValueReference

// State is an opaque, model-defined FMU state snapshot. A state returned
// from GetFMUState is the reused prev when it is the same pointer, map,
// slice or comparable value; anything else counts as new and prev is freed.
type State any

// Instance is the contract a co-simulation model implements. Embed Base to
// inherit the defaults and implement DoStep, which has none.
//
// The methods map one to one to the FMI co-simulation functions. A returned
// error becomes Error at the ABI, or Fatal when errors.IsFatal reports true.
type Instance interface {
	// SetupExperiment configures the run. FMI 1.0 hosts reach it through
	// fmiInitializeSlave with toleranceDefined false.
	SetupExperiment(toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) error
	EnterInitializationMode() error
	ExitInitializationMode() error
	Terminate() error
	// Reset returns the model to the state right after instantiation,
	// including variable start values.
	Reset() error

	// Set* validate every reference before writing any value.
	SetReal(vr []ValueReference, values []float64) error
	SetInteger(vr []ValueReference, values []int32) error
	SetBoolean(vr []ValueReference, values []bool) error
	SetString(vr []ValueReference, values []string) error

	// Get* fill values[i] for vr[i]. On error the contents of values are
	// unspecified.
	GetReal(vr []ValueReference, values []float64) error
	GetInteger(vr []ValueReference, values []int32) error
	GetBoolean(vr []ValueReference, values []bool) error
	GetString(vr []ValueReference, values []string) error

	// DoStep advances the model from currentTime by stepSize. When the model
	// cannot complete the interval it returns ok == false and reports in
	// endOfStep the time it actually reached.
	DoStep(currentTime, stepSize float64, newStep bool) (endOfStep float64, ok bool, err error)

	StateManager
}

// StateManager is the FMI 2.0 FMU state capability. Implementations override
// all six methods or none.
type StateManager interface {
	// GetFMUState captures the current state. prev is the state the host
	// passed back for reuse, or nil.
	GetFMUState(prev State) (State, error)
	SetFMUState(s State) error
	FreeFMUState(s State) error
	SerializedFMUStateSize(s State) (int, error)
	SerializeFMUState(s State, data []byte) error
	DeserializeFMUState(data []byte) (State, error)
}

// InstanceInfo carries the instantiation arguments the host passed.
type InstanceInfo struct {
	InstanceName     string
	GUID             string
	ResourceLocation string
	// MimeType is only set by FMI 1.0 hosts.
	MimeType string
	// Timeout is the FMI 1.0 communication timeout in milliseconds, passed
	// through unmodified; 0 for FMI 2.0.
	Timeout     float64
	Visible     bool
	Interactive bool
}

// Factory creates a slave for one instance. mem allocates from the host and
// log forwards to the host's logger; both stay valid for the lifetime of the
// returned Instance. If the Instance implements io.Closer, Close is called
// when the host frees the instance.
type Factory func(info InstanceInfo, mem memory.Memory, log *logging.Logger) (Instance, error)
