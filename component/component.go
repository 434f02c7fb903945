package component

import (
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/resource"
	"github.com/wippyai/fmu-runtime/slave"
)

// Config carries what the host supplies at instantiation.
type Config struct {
	Info slave.InstanceInfo
	// Memory wraps the host's allocate/free callbacks.
	Memory memory.Memory
	// Sink wraps the host's logger callback. Nil discards messages.
	Sink logging.Sink
	// LoggingOn is the initial debug-logging flag.
	LoggingOn bool
}

// Component is the record behind one opaque instance handle. It owns the
// slave, the diagnostic settings shared with the slave's logger, and every
// FMU state the host has not freed.
type Component struct {
	mem      memory.Memory
	settings *logging.Settings
	logger   *logging.Logger
	slave    *memory.Owned[slave.Instance]
	scratch  *memory.Arena
	states   *resource.Typed[slave.State]

	lastSuccessfulTime float64
	freed              bool
}

// New builds the record and calls factory to create the slave. A factory
// error or panic is returned wrapped as an instantiation error; the caller
// reports it through the host logger since no instance exists yet.
func New(cfg Config, factory slave.Factory) (*Component, error) {
	if !cfg.Memory.Valid() {
		return nil, errors.InvalidInput(errors.PhaseInstantiate, "host memory callbacks missing")
	}
	if factory == nil {
		return nil, errors.NotFound(errors.PhaseInstantiate, "slave factory", cfg.Info.InstanceName)
	}

	settings := logging.NewSettings(cfg.LoggingOn)
	log := logging.New(cfg.Info.InstanceName, cfg.Sink, settings)

	inst, err := create(factory, cfg.Info, cfg.Memory, log)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	c := &Component{
		mem:                cfg.Memory,
		settings:           settings,
		logger:             log,
		slave:              memory.Own(cfg.Memory, inst, releaseSlave),
		scratch:            memory.NewArena(cfg.Memory),
		states:             resource.NewTyped[slave.State](resource.NewTable(), resource.TypeState),
		lastSuccessfulTime: math.NaN(),
	}

	Logger().Debug("instance created",
		zap.String("instance", cfg.Info.InstanceName),
		zap.String("guid", cfg.Info.GUID),
	)
	return c, nil
}

func create(factory slave.Factory, info slave.InstanceInfo, mem memory.Memory, log *logging.Logger) (inst slave.Instance, err error) {
	defer func() {
		if r := recover(); r != nil {
			inst = nil
			err = errors.Fatalf(errors.PhaseInstantiate, "panic in slave factory: %v", r)
		}
	}()

	inst, err = factory(info, mem, log)
	if err == nil && inst == nil {
		err = errors.InvalidInput(errors.PhaseInstantiate, "slave factory returned no instance")
	}
	return inst, err
}

func releaseSlave(_ memory.Memory, inst slave.Instance) {
	if closer, ok := inst.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			Logger().Warn("slave close failed", zap.Error(err))
		}
	}
}

// Memory returns the host allocator bound to this instance.
func (c *Component) Memory() memory.Memory { return c.mem }

// Settings returns the diagnostic settings shared with the slave's logger.
func (c *Component) Settings() *logging.Settings { return c.settings }

// Log returns the host logging channel of this instance.
func (c *Component) Log() *logging.Logger { return c.logger }

// InstanceName returns the name the host gave at instantiation.
func (c *Component) InstanceName() string { return c.logger.InstanceName() }

// Slave returns the model object, or nil after Free.
func (c *Component) Slave() slave.Instance { return c.slave.Get() }

// Scratch returns the arena holding C strings handed to the host. Callers
// reset it before filling it for a new call.
func (c *Component) Scratch() *memory.Arena { return c.scratch }

// LastSuccessfulTime returns the end of the last completed or discarded
// step, or NaN before the first DoStep.
func (c *Component) LastSuccessfulTime() float64 { return c.lastSuccessfulTime }

// Freed reports whether Free has run.
func (c *Component) Freed() bool { return c.freed }

// SetDebugLogging replaces the debug flag and category filter. The slave's
// logger observes the change immediately.
func (c *Component) SetDebugLogging(on bool, categories []string) {
	c.settings.Set(on, categories)
}

// Invoke runs fn against the slave and converts the outcome into a status:
// nil is OK, a fatal error or a panic is Fatal, anything else is Error.
// Failures are reported to the host logger.
func (c *Component) Invoke(function string, fn func(slave.Instance) error) (status fmuruntime.Status) {
	if c.freed {
		Logger().Error("call on freed instance",
			zap.String("function", function),
			zap.String("instance", c.InstanceName()),
		)
		return fmuruntime.StatusError
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Log(fmuruntime.StatusFatal, logging.CategoryStatusFatal, "%s: panic: %v", function, r)
			Logger().Error("slave panicked",
				zap.String("function", function),
				zap.String("instance", c.InstanceName()),
				zap.Any("panic", r),
			)
			status = fmuruntime.StatusFatal
		}
	}()

	return c.report(fn(c.slave.Get()))
}

func (c *Component) report(err error) fmuruntime.Status {
	if err == nil {
		return fmuruntime.StatusOK
	}
	if errors.IsFatal(err) {
		c.logger.Log(fmuruntime.StatusFatal, logging.CategoryStatusFatal, "%s", errors.Message(err))
		return fmuruntime.StatusFatal
	}
	c.logger.Log(fmuruntime.StatusError, logging.CategoryStatusError, "%s", errors.Message(err))
	return fmuruntime.StatusError
}

// DoStep advances the slave. On success the last successful time becomes
// t+h; when the slave discards the step it becomes the time the slave
// reached and the status is Discard. Errors leave it unchanged.
func (c *Component) DoStep(t, h float64, newStep bool) fmuruntime.Status {
	var (
		end float64
		ok  bool
	)
	status := c.Invoke("DoStep", func(s slave.Instance) error {
		var err error
		end, ok, err = s.DoStep(t, h, newStep)
		return err
	})
	if status != fmuruntime.StatusOK {
		return status
	}
	if ok {
		c.lastSuccessfulTime = t + h
		return fmuruntime.StatusOK
	}
	c.lastSuccessfulTime = end
	return fmuruntime.StatusDiscard
}

// Unsupported reports a function this runtime does not implement.
func (c *Component) Unsupported(function string) fmuruntime.Status {
	c.logger.Log(fmuruntime.StatusError, logging.CategoryRuntime, "FMI function not supported: %s", function)
	return fmuruntime.StatusError
}

// Errorf logs a runtime-detected misuse, such as an invalid argument, and
// returns Error.
func (c *Component) Errorf(format string, args ...any) fmuruntime.Status {
	c.logger.Log(fmuruntime.StatusError, logging.CategoryRuntime, format, args...)
	return fmuruntime.StatusError
}

// Free releases outstanding FMU states, the slave, and the string arena.
// Later calls do nothing.
func (c *Component) Free() {
	if c.freed {
		return
	}
	c.freed = true

	inst := c.slave.Get()
	c.states.Each(func(h resource.Handle, s slave.State) bool {
		c.states.Remove(h)
		if err := safeFreeState(inst, s); err != nil {
			Logger().Warn("free outstanding state failed",
				zap.String("instance", c.InstanceName()),
				zap.Uint32("state", uint32(h)),
				zap.Error(err),
			)
		}
		return true
	})
	c.states.Table().Close()

	c.slave.Release()
	c.scratch.Reset()

	Logger().Debug("instance freed", zap.String("instance", c.InstanceName()))
}

// Drop frees the record when its handle is removed from a resource table.
func (c *Component) Drop() { c.Free() }

func safeFreeState(inst slave.Instance, s slave.State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return inst.FreeFMUState(s)
}
