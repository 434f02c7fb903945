// Package dispatch holds the instance registry shared by the FMI 1.0 and
// FMI 2.0 dispatchers.
package dispatch

import (
	"go.uber.org/zap"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/component"
	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/resource"
	"github.com/wippyai/fmu-runtime/slave"
)

// Registry maps instance handles to component records.
type Registry struct {
	factory   slave.Factory
	instances *resource.Typed[*component.Component]
	log       *zap.Logger
}

// NewRegistry creates an empty registry whose instances are built by factory.
func NewRegistry(factory slave.Factory, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	table := resource.NewTable()
	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
		if c, ok := e.Value.(*component.Component); ok {
			log.Debug("instance "+e.Type.String(),
				zap.Uint32("handle", uint32(e.Handle)),
				zap.String("instance", c.InstanceName()),
			)
		}
	}))
	return &Registry{
		factory:   factory,
		instances: resource.NewTyped[*component.Component](table, resource.TypeInstance),
		log:       log,
	}
}

// Instantiate creates a record and returns its handle, or 0 on failure.
// Failures are reported through sink since the instance has no logger yet.
func (r *Registry) Instantiate(function string, cfg component.Config) resource.Handle {
	c, err := component.New(cfg, r.factory)
	if err != nil {
		return r.Fail(function, cfg.Info.InstanceName, cfg.Sink, err)
	}

	h := r.instances.Insert(c)
	if h == 0 {
		c.Free()
		return r.Fail(function, cfg.Info.InstanceName, cfg.Sink,
			errors.InvalidInput(errors.PhaseInstantiate, "dispatcher is closed"))
	}
	return h
}

// Fail reports an instantiation failure through the raw host logger and
// returns the null handle.
func (r *Registry) Fail(function, instanceName string, sink logging.Sink, err error) resource.Handle {
	logging.Report(sink, instanceName, err)
	r.log.Warn("instantiation failed",
		zap.String("function", function),
		zap.String("instance", instanceName),
		zap.Error(err),
	)
	return 0
}

// Free releases the instance behind h. Unknown handles are logged and
// ignored.
func (r *Registry) Free(function string, h resource.Handle) {
	if _, ok := r.instances.Remove(h); !ok {
		r.invalid(function, h)
	}
}

// Resolve returns the record behind h.
func (r *Registry) Resolve(function string, h resource.Handle) (*component.Component, bool) {
	c, ok := r.instances.Get(h)
	if !ok {
		r.invalid(function, h)
	}
	return c, ok
}

// Call resolves h and runs fn against the slave.
func (r *Registry) Call(function string, h resource.Handle, fn func(slave.Instance) error) fmuruntime.Status {
	c, ok := r.Resolve(function, h)
	if !ok {
		return fmuruntime.StatusError
	}
	return c.Invoke(function, fn)
}

// Unsupported reports a stub function.
func (r *Registry) Unsupported(function string, h resource.Handle) fmuruntime.Status {
	c, ok := r.Resolve(function, h)
	if !ok {
		return fmuruntime.StatusError
	}
	return c.Unsupported(function)
}

// SetDebugLogging updates the instance's diagnostic settings. When allowed is
// non-empty every category must be in it.
func (r *Registry) SetDebugLogging(function string, h resource.Handle, on bool, categories []string, allowed map[string]struct{}) fmuruntime.Status {
	c, ok := r.Resolve(function, h)
	if !ok {
		return fmuruntime.StatusError
	}
	if len(allowed) > 0 {
		for _, cat := range categories {
			if _, ok := allowed[cat]; !ok {
				return c.Errorf("%s: unknown log category %q", function, cat)
			}
		}
	}
	c.SetDebugLogging(on, categories)
	return fmuruntime.StatusOK
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	return r.instances.Len()
}

// Close frees every live instance.
func (r *Registry) Close() error {
	return r.instances.Table().Close()
}

func (r *Registry) invalid(function string, h resource.Handle) {
	r.log.Error("invalid instance handle",
		zap.String("function", function),
		zap.Uint32("handle", uint32(h)),
	)
}

// CategorySet builds the lookup used by SetDebugLogging.
func CategorySet(categories []string) map[string]struct{} {
	if len(categories) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return set
}
