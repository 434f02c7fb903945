package fmi1

import (
	"sync/atomic"

	"github.com/wippyai/fmu-runtime/fmi1"
	"github.com/wippyai/fmu-runtime/slave"
)

var dispatcher atomic.Pointer[fmi1.Dispatcher]

// Register installs the slave factory served by the exported fmi* symbols.
// Call it from an init function of the c-shared main package.
func Register(factory slave.Factory) {
	RegisterWithConfig(factory, fmi1.Config{})
}

func RegisterWithConfig(factory slave.Factory, cfg fmi1.Config) {
	old := dispatcher.Swap(fmi1.NewWithConfig(factory, cfg))
	if old != nil {
		_ = old.Close()
	}
}

// Dispatcher returns the registered dispatcher, or nil.
func Dispatcher() *fmi1.Dispatcher {
	return dispatcher.Load()
}
