// Package slave defines the contract a co-simulation model implements.
//
// A model is any type satisfying Instance. Embedding Base gives every
// method a default so only DoStep has to be written:
//
//	type Counter struct {
//		slave.Base
//		n int
//	}
//
//	func (c *Counter) DoStep(t, h float64, newStep bool) (float64, bool, error) {
//		c.n++
//		return t + h, true, nil
//	}
//
// Models with a fixed variable table embed *Basic instead, which stores the
// variables, validates value references and provides FMU state snapshots.
//
// # Errors
//
// Methods return errors from package errors. A fatal error (errors.IsFatal)
// tells the host the instance is unusable; any other error is reported as
// Error and the instance may be used again.
package slave
