package fmi2

import (
	"go.uber.org/zap"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/component"
	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/internal/dispatch"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/resource"
	"github.com/wippyai/fmu-runtime/slave"
)

type (
	Status         = fmuruntime.Status
	ValueReference = fmuruntime.ValueReference
	Handle         = resource.Handle
)

// Callbacks is the Go form of fmi2CallbackFunctions.
type Callbacks struct {
	// Logger receives messages; nil discards them.
	Logger logging.Sink
	// Memory wraps allocateMemory and freeMemory. Both are required.
	Memory memory.Memory
}

// Config configures a Dispatcher.
type Config struct {
	// Logger receives runtime diagnostics such as invalid handles. Defaults
	// to the package logger.
	Logger *zap.Logger
	// Categories, when non-empty, is the set of log categories the model
	// declares. fmi2SetDebugLogging rejects any other category.
	Categories []string
}

// Dispatcher implements the FMI 2.0 co-simulation functions on top of a
// slave factory. Instance and FMU state arguments are handles; the C export
// layer converts them to and from the opaque pointers the host sees.
type Dispatcher struct {
	registry *dispatch.Registry
	allowed  map[string]struct{}
}

// New creates a dispatcher with default configuration.
func New(factory slave.Factory) *Dispatcher {
	return NewWithConfig(factory, Config{})
}

// NewWithConfig creates a dispatcher with the given configuration.
func NewWithConfig(factory slave.Factory, cfg Config) *Dispatcher {
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	return &Dispatcher{
		registry: dispatch.NewRegistry(factory, log),
		allowed:  dispatch.CategorySet(cfg.Categories),
	}
}

// Close frees every live instance.
func (d *Dispatcher) Close() error {
	return d.registry.Close()
}

// Instances returns the number of live instances.
func (d *Dispatcher) Instances() int {
	return d.registry.Len()
}

// Component returns the record behind h. The C layer uses it for the
// instance's memory and string arena.
func (d *Dispatcher) Component(h Handle) (*component.Component, bool) {
	return d.registry.Resolve("fmi2Component", h)
}

func (d *Dispatcher) GetTypesPlatform() string { return fmuruntime.TypesPlatform }

func (d *Dispatcher) GetVersion() string { return fmuruntime.Version2 }

// Instantiate creates an instance and returns its handle, or 0 on failure.
// Only co-simulation is supported.
func (d *Dispatcher) Instantiate(instanceName string, fmuType fmuruntime.Type, guid, resourceLocation string,
	cb Callbacks, visible, loggingOn bool) Handle {
	const function = "fmi2Instantiate"

	if fmuType != fmuruntime.CoSimulation {
		err := errors.New(errors.PhaseInstantiate, errors.KindUnsupported).
			Value(fmuType).
			Detail("FMU type %s not supported, only CoSimulation", fmuType).
			Build()
		return d.registry.Fail(function, instanceName, cb.Logger, err)
	}
	if !cb.Memory.Valid() {
		return d.registry.Fail(function, instanceName, cb.Logger,
			errors.InvalidInput(errors.PhaseInstantiate, "allocateMemory and freeMemory callbacks are required"))
	}

	return d.registry.Instantiate(function, component.Config{
		Info: slave.InstanceInfo{
			InstanceName:     instanceName,
			GUID:             guid,
			ResourceLocation: resourceLocation,
			Visible:          visible,
		},
		Memory:    cb.Memory,
		Sink:      cb.Logger,
		LoggingOn: loggingOn,
	})
}

func (d *Dispatcher) FreeInstance(h Handle) {
	d.registry.Free("fmi2FreeInstance", h)
}

func (d *Dispatcher) SetDebugLogging(h Handle, loggingOn bool, categories []string) Status {
	return d.registry.SetDebugLogging("fmi2SetDebugLogging", h, loggingOn, categories, d.allowed)
}

func (d *Dispatcher) SetupExperiment(h Handle, toleranceDefined bool, tolerance, startTime float64,
	stopTimeDefined bool, stopTime float64) Status {
	return d.registry.Call("fmi2SetupExperiment", h, func(s slave.Instance) error {
		return s.SetupExperiment(toleranceDefined, tolerance, startTime, stopTimeDefined, stopTime)
	})
}

func (d *Dispatcher) EnterInitializationMode(h Handle) Status {
	return d.registry.Call("fmi2EnterInitializationMode", h, slave.Instance.EnterInitializationMode)
}

func (d *Dispatcher) ExitInitializationMode(h Handle) Status {
	return d.registry.Call("fmi2ExitInitializationMode", h, slave.Instance.ExitInitializationMode)
}

func (d *Dispatcher) Terminate(h Handle) Status {
	return d.registry.Call("fmi2Terminate", h, slave.Instance.Terminate)
}

func (d *Dispatcher) Reset(h Handle) Status {
	return d.registry.Call("fmi2Reset", h, slave.Instance.Reset)
}

func (d *Dispatcher) GetReal(h Handle, vr []ValueReference, values []float64) Status {
	return d.registry.Call("fmi2GetReal", h, func(s slave.Instance) error { return s.GetReal(vr, values) })
}

func (d *Dispatcher) GetInteger(h Handle, vr []ValueReference, values []int32) Status {
	return d.registry.Call("fmi2GetInteger", h, func(s slave.Instance) error { return s.GetInteger(vr, values) })
}

func (d *Dispatcher) GetBoolean(h Handle, vr []ValueReference, values []bool) Status {
	return d.registry.Call("fmi2GetBoolean", h, func(s slave.Instance) error { return s.GetBoolean(vr, values) })
}

func (d *Dispatcher) GetString(h Handle, vr []ValueReference, values []string) Status {
	return d.registry.Call("fmi2GetString", h, func(s slave.Instance) error { return s.GetString(vr, values) })
}

func (d *Dispatcher) SetReal(h Handle, vr []ValueReference, values []float64) Status {
	return d.registry.Call("fmi2SetReal", h, func(s slave.Instance) error { return s.SetReal(vr, values) })
}

func (d *Dispatcher) SetInteger(h Handle, vr []ValueReference, values []int32) Status {
	return d.registry.Call("fmi2SetInteger", h, func(s slave.Instance) error { return s.SetInteger(vr, values) })
}

func (d *Dispatcher) SetBoolean(h Handle, vr []ValueReference, values []bool) Status {
	return d.registry.Call("fmi2SetBoolean", h, func(s slave.Instance) error { return s.SetBoolean(vr, values) })
}

func (d *Dispatcher) SetString(h Handle, vr []ValueReference, values []string) Status {
	return d.registry.Call("fmi2SetString", h, func(s slave.Instance) error { return s.SetString(vr, values) })
}

// GetFMUState captures the instance state. prev is a state handle to reuse,
// or 0; the result replaces it.
func (d *Dispatcher) GetFMUState(h Handle, prev Handle) (Handle, Status) {
	c, ok := d.registry.Resolve("fmi2GetFMUstate", h)
	if !ok {
		return prev, fmuruntime.StatusError
	}
	return c.GetFMUState(prev)
}

func (d *Dispatcher) SetFMUState(h Handle, state Handle) Status {
	c, ok := d.registry.Resolve("fmi2SetFMUstate", h)
	if !ok {
		return fmuruntime.StatusError
	}
	return c.SetFMUState(state)
}

// FreeFMUState releases a state. A zero state handle is a no-op.
func (d *Dispatcher) FreeFMUState(h Handle, state Handle) Status {
	c, ok := d.registry.Resolve("fmi2FreeFMUstate", h)
	if !ok {
		return fmuruntime.StatusError
	}
	return c.FreeFMUState(state)
}

func (d *Dispatcher) SerializedFMUStateSize(h Handle, state Handle) (int, Status) {
	c, ok := d.registry.Resolve("fmi2SerializedFMUstateSize", h)
	if !ok {
		return 0, fmuruntime.StatusError
	}
	return c.SerializedFMUStateSize(state)
}

func (d *Dispatcher) SerializeFMUState(h Handle, state Handle, data []byte) Status {
	c, ok := d.registry.Resolve("fmi2SerializeFMUstate", h)
	if !ok {
		return fmuruntime.StatusError
	}
	return c.SerializeFMUState(state, data)
}

func (d *Dispatcher) DeserializeFMUState(h Handle, data []byte) (Handle, Status) {
	c, ok := d.registry.Resolve("fmi2DeSerializeFMUstate", h)
	if !ok {
		return 0, fmuruntime.StatusError
	}
	return c.DeserializeFMUState(data)
}

func (d *Dispatcher) GetDirectionalDerivative(h Handle, _, _ []ValueReference, _, _ []float64) Status {
	return d.registry.Unsupported("fmi2GetDirectionalDerivative", h)
}

func (d *Dispatcher) SetRealInputDerivatives(h Handle, _ []ValueReference, _ []int32, _ []float64) Status {
	return d.registry.Unsupported("fmi2SetRealInputDerivatives", h)
}

func (d *Dispatcher) GetRealOutputDerivatives(h Handle, _ []ValueReference, _ []int32, _ []float64) Status {
	return d.registry.Unsupported("fmi2GetRealOutputDerivatives", h)
}

// DoStep advances the instance. noSetFMUStatePriorToCurrentPoint is passed
// to the slave as newStep.
func (d *Dispatcher) DoStep(h Handle, currentCommunicationPoint, communicationStepSize float64,
	noSetFMUStatePriorToCurrentPoint bool) Status {
	c, ok := d.registry.Resolve("fmi2DoStep", h)
	if !ok {
		return fmuruntime.StatusError
	}
	return c.DoStep(currentCommunicationPoint, communicationStepSize, noSetFMUStatePriorToCurrentPoint)
}

func (d *Dispatcher) CancelStep(h Handle) Status {
	return d.registry.Unsupported("fmi2CancelStep", h)
}

func (d *Dispatcher) GetStatus(h Handle, _ fmuruntime.StatusKind) (Status, Status) {
	return fmuruntime.StatusOK, d.registry.Unsupported("fmi2GetStatus", h)
}

// GetRealStatus answers LastSuccessfulTime only.
func (d *Dispatcher) GetRealStatus(h Handle, kind fmuruntime.StatusKind) (float64, Status) {
	const function = "fmi2GetRealStatus"
	c, ok := d.registry.Resolve(function, h)
	if !ok {
		return 0, fmuruntime.StatusError
	}
	if kind != fmuruntime.LastSuccessfulTime {
		return 0, c.Errorf("Invalid status inquiry for %s", function)
	}
	return c.LastSuccessfulTime(), fmuruntime.StatusOK
}

func (d *Dispatcher) GetIntegerStatus(h Handle, _ fmuruntime.StatusKind) (int32, Status) {
	return 0, d.registry.Unsupported("fmi2GetIntegerStatus", h)
}

func (d *Dispatcher) GetBooleanStatus(h Handle, _ fmuruntime.StatusKind) (bool, Status) {
	return false, d.registry.Unsupported("fmi2GetBooleanStatus", h)
}

func (d *Dispatcher) GetStringStatus(h Handle, _ fmuruntime.StatusKind) (string, Status) {
	return "", d.registry.Unsupported("fmi2GetStringStatus", h)
}
