package fmi2

import (
	"sync/atomic"

	"github.com/wippyai/fmu-runtime/fmi2"
	"github.com/wippyai/fmu-runtime/slave"
)

var dispatcher atomic.Pointer[fmi2.Dispatcher]

// Register installs the slave factory served by the exported fmi2* symbols.
// Call it from an init function of the c-shared main package.
func Register(factory slave.Factory) {
	RegisterWithConfig(factory, fmi2.Config{})
}

// RegisterWithConfig is Register with dispatcher configuration, such as the
// model's declared log categories.
func RegisterWithConfig(factory slave.Factory, cfg fmi2.Config) {
	old := dispatcher.Swap(fmi2.NewWithConfig(factory, cfg))
	if old != nil {
		_ = old.Close()
	}
}

// Dispatcher returns the registered dispatcher, or nil.
func Dispatcher() *fmi2.Dispatcher {
	return dispatcher.Load()
}
