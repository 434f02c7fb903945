// Package fmi1 implements the FMI 1.0 co-simulation slave functions.
//
// FMI 1.0 has no separate experiment setup or initialization mode;
// InitializeSlave calls SetupExperiment (without tolerance),
// EnterInitializationMode and ExitInitializationMode in that order, and
// stops at the first error. There are no FMU state functions and no log
// categories.
//
// Status mapping and unsupported-function handling match package fmi2.
package fmi1
