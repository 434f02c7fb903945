package fmuruntime

import "strconv"

// Status is the result of every FMI entry point.
// The numeric values match fmiStatus (FMI 1.0) and fmi2Status (FMI 2.0).
type Status int32

const (
	StatusOK Status = iota
	StatusWarning
	StatusDiscard
	StatusError
	StatusFatal
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "Warning"
	case StatusDiscard:
		return "Discard"
	case StatusError:
		return "Error"
	case StatusFatal:
		return "Fatal"
	case StatusPending:
		return "Pending"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Type is the FMU kind requested at instantiation (fmi2Type).
type Type int32

const (
	ModelExchange Type = iota
	CoSimulation
)

func (t Type) String() string {
	switch t {
	case ModelExchange:
		return "ModelExchange"
	case CoSimulation:
		return "CoSimulation"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// StatusKind selects the datum queried by the Get*Status functions.
type StatusKind int32

const (
	DoStepStatus StatusKind = iota
	PendingStatus
	LastSuccessfulTime
	Terminated // FMI 2.0 only
)

// ValueReference identifies one variable of a given type within a model.
type ValueReference = uint32

const (
	// TypesPlatform is returned by fmiGetTypesPlatform/fmi2GetTypesPlatform.
	TypesPlatform = "default"

	// Version1 and Version2 are returned by the respective GetVersion functions.
	Version1 = "1.0"
	Version2 = "2.0"
)
