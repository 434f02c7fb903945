package fmi2

import (
	"testing"

	fmuruntime "github.com/wippyai/fmu-runtime"
	corefmi2 "github.com/wippyai/fmu-runtime/fmi2"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/slave"
)

type idle struct{ slave.Base }

func (idle) DoStep(t, h float64, _ bool) (float64, bool, error) { return t + h, true, nil }

func TestRegister(t *testing.T) {
	t.Cleanup(func() { dispatcher.Store(nil) })

	factory := func(slave.InstanceInfo, memory.Memory, *logging.Logger) (slave.Instance, error) {
		return idle{}, nil
	}

	Register(factory)
	first := Dispatcher()
	if first == nil {
		t.Fatal("Register did not install a dispatcher")
	}

	tracker := memory.NewTracker()
	cb := corefmi2.Callbacks{Memory: tracker.Memory()}
	if h := first.Instantiate("a", fmuruntime.CoSimulation, "", "", cb, false, false); h == 0 {
		t.Fatal("Instantiate failed")
	}

	Register(factory)
	if Dispatcher() == first {
		t.Fatal("second Register should replace the dispatcher")
	}
	if first.Instances() != 0 || tracker.Live() != 0 {
		t.Fatalf("replaced dispatcher kept %d instances, %d blocks", first.Instances(), tracker.Live())
	}
}
