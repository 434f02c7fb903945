package fmi1

import (
	"testing"

	corefmi1 "github.com/wippyai/fmu-runtime/fmi1"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/slave"
)

type idle struct{ slave.Base }

func (idle) DoStep(t, h float64, _ bool) (float64, bool, error) { return t + h, true, nil }

func TestRegisterWithConfig(t *testing.T) {
	t.Cleanup(func() { dispatcher.Store(nil) })

	var timeouts []float64
	factory := func(info slave.InstanceInfo, _ memory.Memory, _ *logging.Logger) (slave.Instance, error) {
		timeouts = append(timeouts, info.Timeout)
		return idle{}, nil
	}

	RegisterWithConfig(factory, corefmi1.Config{})
	first := Dispatcher()
	if first == nil {
		t.Fatal("RegisterWithConfig did not install a dispatcher")
	}

	tracker := memory.NewTracker()
	cb := corefmi1.Callbacks{Memory: tracker.Memory()}
	if h := first.InstantiateSlave("a", "", "", "application/x-fmu-sharedlibrary", 250, false, false, cb, false); h == 0 {
		t.Fatal("InstantiateSlave failed")
	}
	if len(timeouts) != 1 || timeouts[0] != 250 {
		t.Fatalf("factory saw timeouts %v", timeouts)
	}

	Register(factory)
	if Dispatcher() == first {
		t.Fatal("Register should replace the dispatcher")
	}
	if first.Instances() != 0 || tracker.Live() != 0 {
		t.Fatalf("replaced dispatcher kept %d instances, %d blocks", first.Instances(), tracker.Live())
	}
}
