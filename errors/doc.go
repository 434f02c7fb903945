// Package errors provides structured error types for fmu-runtime.
//
// Errors are categorized by Phase (which FMI operation raised them) and Kind
// (error category). A Fatal flag separates unrecoverable failures, which the
// dispatcher reports as Fatal, from ordinary ones reported as Error.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseSet, errors.KindOutOfRange).
//		Value(vr).
//		Detail("value reference %d out of range", vr).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfRange(errors.PhaseGet, vr, len(reals))
//	err := errors.Fatalf(errors.PhaseStep, "solver diverged at t=%g", t)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
