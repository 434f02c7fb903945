// Package fmi2 implements the FMI 2.0 co-simulation functions in Go.
//
// Dispatcher has one method per fmi2* function. It resolves the instance
// handle, calls the slave, and maps the result to a status:
//
//	normal return              OK (Discard when DoStep did not finish)
//	fatal error or panic       Fatal, logged to the host
//	any other error            Error, logged to the host
//	unknown or freed handle    Error, logged to the package zap logger
//
// Functions outside the supported subset (derivatives, CancelStep, the
// Get*Status family except GetRealStatus for LastSuccessfulTime) log
// "FMI function not supported" and return Error.
//
// The cgo exports in cabi/fmi2 wrap a Dispatcher; Go hosts and tests can
// drive one directly:
//
//	d := fmi2.New(model.Factory)
//	h := d.Instantiate("inst", fmuruntime.CoSimulation, guid, "", fmi2.Callbacks{
//		Logger: logging.ZapSink(zapLogger),
//		Memory: tracker.Memory(),
//	}, false, false)
//	defer d.FreeInstance(h)
package fmi2
