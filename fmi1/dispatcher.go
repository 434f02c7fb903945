package fmi1

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

// Callbacks is the Go form of fmiCallbackFunctions.
type Callbacks struct {
	Logger logging.Sink
	Memory memory.Memory
}

// Config configures a Dispatcher.
type Config struct {
	// Logger receives runtime diagnostics. Defaults to the package logger.
	Logger *zap.Logger
}

// Dispatcher implements the FMI 1.0 co-simulation slave functions.
type Dispatcher struct {
	registry *dispatch.Registry
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
	return &Dispatcher{registry: dispatch.NewRegistry(factory, log)}
}

// Close frees every live instance.
func (d *Dispatcher) Close() error {
	return d.registry.Close()
}

// Instances returns the number of live instances.
func (d *Dispatcher) Instances() int {
	return d.registry.Len()
}

// Component returns the record behind h.
func (d *Dispatcher) Component(h Handle) (*component.Component, bool) {
	return d.registry.Resolve("fmiComponent", h)
}

func (d *Dispatcher) GetTypesPlatform() string { return fmuruntime.TypesPlatform }

func (d *Dispatcher) GetVersion() string { return fmuruntime.Version1 }

// InstantiateSlave creates an instance and returns its handle, or 0 on
// failure. mimeType, timeout, visible and interactive reach the slave
// factory unchanged.
func (d *Dispatcher) InstantiateSlave(instanceName, fmuGUID, fmuLocation, mimeType string, timeout float64,
	visible, interactive bool, cb Callbacks, loggingOn bool) Handle {
	const function = "fmiInstantiateSlave"

	if !cb.Memory.Valid() {
		return d.registry.Fail(function, instanceName, cb.Logger,
			errors.InvalidInput(errors.PhaseInstantiate, "allocateMemory and freeMemory callbacks are required"))
	}

	return d.registry.Instantiate(function, component.Config{
		Info: slave.InstanceInfo{
			InstanceName:     instanceName,
			GUID:             fmuGUID,
			ResourceLocation: fmuLocation,
			MimeType:         mimeType,
			Timeout:          timeout,
			Visible:          visible,
			Interactive:      interactive,
		},
		Memory:    cb.Memory,
		Sink:      cb.Logger,
		LoggingOn: loggingOn,
	})
}

// InitializeSlave runs SetupExperiment without tolerance followed by the
// initialization mode pair.
func (d *Dispatcher) InitializeSlave(h Handle, tStart float64, stopTimeDefined bool, tStop float64) Status {
	return d.registry.Call("fmiInitializeSlave", h, func(s slave.Instance) error {
		if err := s.SetupExperiment(false, 0, tStart, stopTimeDefined, tStop); err != nil {
			return err
		}
		if err := s.EnterInitializationMode(); err != nil {
			return err
		}
		return s.ExitInitializationMode()
	})
}

func (d *Dispatcher) TerminateSlave(h Handle) Status {
	return d.registry.Call("fmiTerminateSlave", h, slave.Instance.Terminate)
}

func (d *Dispatcher) ResetSlave(h Handle) Status {
	return d.registry.Call("fmiResetSlave", h, slave.Instance.Reset)
}

func (d *Dispatcher) FreeSlaveInstance(h Handle) {
	d.registry.Free("fmiFreeSlaveInstance", h)
}

// SetDebugLogging toggles debug messages. FMI 1.0 has no categories, so the
// filter is cleared.
func (d *Dispatcher) SetDebugLogging(h Handle, loggingOn bool) Status {
	return d.registry.SetDebugLogging("fmiSetDebugLogging", h, loggingOn, nil, nil)
}

func (d *Dispatcher) GetReal(h Handle, vr []ValueReference, values []float64) Status {
	return d.registry.Call("fmiGetReal", h, func(s slave.Instance) error { return s.GetReal(vr, values) })
}

func (d *Dispatcher) GetInteger(h Handle, vr []ValueReference, values []int32) Status {
	return d.registry.Call("fmiGetInteger", h, func(s slave.Instance) error { return s.GetInteger(vr, values) })
}

func (d *Dispatcher) GetBoolean(h Handle, vr []ValueReference, values []bool) Status {
	return d.registry.Call("fmiGetBoolean", h, func(s slave.Instance) error { return s.GetBoolean(vr, values) })
}

func (d *Dispatcher) GetString(h Handle, vr []ValueReference, values []string) Status {
	return d.registry.Call("fmiGetString", h, func(s slave.Instance) error { return s.GetString(vr, values) })
}

func (d *Dispatcher) SetReal(h Handle, vr []ValueReference, values []float64) Status {
	return d.registry.Call("fmiSetReal", h, func(s slave.Instance) error { return s.SetReal(vr, values) })
}

func (d *Dispatcher) SetInteger(h Handle, vr []ValueReference, values []int32) Status {
	return d.registry.Call("fmiSetInteger", h, func(s slave.Instance) error { return s.SetInteger(vr, values) })
}

func (d *Dispatcher) SetBoolean(h Handle, vr []ValueReference, values []bool) Status {
	return d.registry.Call("fmiSetBoolean", h, func(s slave.Instance) error { return s.SetBoolean(vr, values) })
}

func (d *Dispatcher) SetString(h Handle, vr []ValueReference, values []string) Status {
	return d.registry.Call("fmiSetString", h, func(s slave.Instance) error { return s.SetString(vr, values) })
}

func (d *Dispatcher) SetRealInputDerivatives(h Handle, _ []ValueReference, _ []int32, _ []float64) Status {
	return d.registry.Unsupported("fmiSetRealInputDerivatives", h)
}

func (d *Dispatcher) GetRealOutputDerivatives(h Handle, _ []ValueReference, _ []int32, _ []float64) Status {
	return d.registry.Unsupported("fmiGetRealOutputDerivatives", h)
}

func (d *Dispatcher) CancelStep(h Handle) Status {
	return d.registry.Unsupported("fmiCancelStep", h)
}

func (d *Dispatcher) DoStep(h Handle, currentCommunicationPoint, communicationStepSize float64, newStep bool) Status {
	c, ok := d.registry.Resolve("fmiDoStep", h)
	if !ok {
		return fmuruntime.StatusError
	}
	return c.DoStep(currentCommunicationPoint, communicationStepSize, newStep)
}

func (d *Dispatcher) GetStatus(h Handle, _ fmuruntime.StatusKind) (Status, Status) {
	return fmuruntime.StatusOK, d.registry.Unsupported("fmiGetStatus", h)
}

// GetRealStatus answers LastSuccessfulTime only.
func (d *Dispatcher) GetRealStatus(h Handle, kind fmuruntime.StatusKind) (float64, Status) {
	const function = "fmiGetRealStatus"
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
	return 0, d.registry.Unsupported("fmiGetIntegerStatus", h)
}

func (d *Dispatcher) GetBooleanStatus(h Handle, _ fmuruntime.StatusKind) (bool, Status) {
	return false, d.registry.Unsupported("fmiGetBooleanStatus", h)
}

func (d *Dispatcher) GetStringStatus(h Handle, _ fmuruntime.StatusKind) (string, Status) {
	return "", d.registry.Unsupported("fmiGetStringStatus", h)
}
