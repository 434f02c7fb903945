// Package fmuruntime lets Go model code be exported as an FMI co-simulation slave.
//
// The Functional Mock-up Interface defines a fixed C ABI: opaque component
// handles, C arrays of value references, host-supplied allocation and logging
// callbacks, and a status code returned from every call. This library owns that
// surface so a model author only implements a Go interface.
//
// # Architecture Overview
//
//	fmuruntime/         Root package with Status, Type and other shared vocabulary
//	├── slave/          The contract model code implements (Instance, Base, Basic)
//	├── component/      Per-instance record: memory, logger, owned slave, bookkeeping
//	├── fmi2/           FMI 2.0 co-simulation dispatcher (pure Go)
//	├── fmi1/           FMI 1.0 co-simulation dispatcher (pure Go)
//	├── cabi/           cgo exports of the fmi1/fmi2 C functions
//	├── memory/         Host allocator adapter, owned values, arenas
//	├── logging/        Host logger adapter, shared debug settings, zap bridge
//	├── resource/       Handle tables backing opaque ABI handles
//	├── errors/         Structured errors and the fatal/error taxonomy
//	├── wasmslave/      Slave instances backed by a WebAssembly module (wazero)
//	├── examples/       Sample models and their c-shared FMU builds
//	└── cmd/fmusim/     Command-line host that drives a model for testing
//
// # Quick Start
//
// Implement a slave, embedding slave.Base for the defaults:
//
//	type counter struct {
//	    slave.Base
//	    n float64
//	}
//
//	func (c *counter) DoStep(t, dt float64, newStep bool) (float64, bool, error) {
//	    c.n++
//	    return t + dt, true, nil
//	}
//
// Register its factory from the main package of a c-shared build:
//
//	func init() {
//	    fmi2.Register(func(info slave.InstanceInfo, mem memory.Memory, log *logging.Logger) (slave.Instance, error) {
//	        return &counter{}, nil
//	    })
//	}
//
//	func main() {}
//
// and build with:
//
//	go build -buildmode=c-shared -o binaries/linux64/counter.so .
//
// Here fmi2 is github.com/wippyai/fmu-runtime/cabi/fmi2. FMI 1.0 symbols are
// exported by registering with cabi/fmi1 as well; they carry the model
// identifier as a prefix, set at build time:
//
//	CGO_CFLAGS=-DMODEL_IDENTIFIER=counter go build -buildmode=c-shared ...
//
// # Error Translation
//
// Model methods return errors; the dispatcher converts them at the boundary.
// A nil error maps to OK, an error marked fatal (errors.IsFatal) to Fatal, any
// other error to Error. A DoStep that reports ok == false maps to Discard. Model
// panics are recovered and reported as Fatal. Every non-OK outcome is logged
// through the host's logger callback.
//
// # Thread Safety
//
// The FMI standard forbids concurrent calls on one instance; this library does
// not lock around model calls. Distinct instances share nothing. Debug-logging
// settings and handle tables are locked because Go hosts may call from several
// goroutines.
package fmuruntime
