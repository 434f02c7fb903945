package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which FMI operation raised the error
type Phase string

const (
	PhaseInstantiate Phase = "instantiate" // factory and record construction
	PhaseSetup       Phase = "setup"       // SetupExperiment / legacy Initialize
	PhaseInitialize  Phase = "initialize"  // Enter/ExitInitializationMode
	PhaseGet         Phase = "get"         // GetReal/Integer/Boolean/String
	PhaseSet         Phase = "set"         // SetReal/Integer/Boolean/String
	PhaseStep        Phase = "step"        // DoStep
	PhaseState       Phase = "state"       // FMU state snapshot operations
	PhaseTerminate   Phase = "terminate"   // Terminate
	PhaseReset       Phase = "reset"       // Reset
	PhaseDispatch    Phase = "dispatch"    // handle resolution, stubs
	PhaseLoad        Phase = "load"        // model binary loading
)

// Kind categorizes the error
type Kind string

const (
	KindNoSuchVariable Kind = "no_such_variable"
	KindOutOfRange     Kind = "out_of_range"
	KindUnsupported    Kind = "unsupported"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidData    Kind = "invalid_data"
	KindAllocation     Kind = "allocation"
	KindNotFound       Kind = "not_found"
	KindInstantiation  Kind = "instantiation"
	KindTypeMismatch   Kind = "type_mismatch"
	KindModel          Kind = "model"
)

// Error is the structured error type returned by slaves and the runtime.
// Fatal marks the instance as unusable; the dispatcher reports it as Fatal
// instead of Error.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Fatal  bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	if e.Fatal {
		b.WriteString("fatal ")
	}
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Message returns the text forwarded to the host logger: the detail followed
// by the cause's message, or the full error string when there is no detail.
func (e *Error) Message() string {
	if e.Detail == "" {
		return e.Error()
	}
	if e.Cause != nil {
		return e.Detail + ": " + Message(e.Cause)
	}
	return e.Detail
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Fatal marks the error as unrecoverable
func (b *Builder) Fatal() *Builder {
	b.err.Fatal = true
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// IsFatal reports whether any error in err's chain is marked fatal.
func IsFatal(err error) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Fatal {
			return true
		}
		err = e.Cause
	}
	return false
}

// Message extracts the host-facing message from any error.
func Message(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message()
	}
	return err.Error()
}

// Convenience constructors for common error patterns

// NoSuchVariable is the default Get/Set failure of a slave that declares no
// variables of the accessed type. verb is "get" or "set".
func NoSuchVariable(phase Phase, verb string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNoSuchVariable,
		Detail: fmt.Sprintf("attempted to %s nonexistent variable", verb),
	}
}

// OutOfRange creates a value reference range error
func OutOfRange(phase Phase, vr uint32, count int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfRange,
		Detail: fmt.Sprintf("value reference %d out of range (%d variables)", vr, count),
		Value:  vr,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NewFatal creates an unrecoverable model error
func NewFatal(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindModel,
		Detail: detail,
		Cause:  cause,
		Fatal:  true,
	}
}

// Fatalf marks an arbitrary model failure as fatal
func Fatalf(phase Phase, format string, args ...any) *Error {
	return NewFatal(phase, fmt.Sprintf(format, args...), nil)
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, count, size uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d x %d bytes", count, size),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Detail: detail,
	}
}

// Instantiation wraps a factory failure
func Instantiation(cause error) *Error {
	err := Wrap(PhaseInstantiate, KindInstantiation, cause, "instantiate slave")
	err.Fatal = IsFatal(cause)
	return err
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a model loading error
func Load(detail string, cause error) *Error {
	return Wrap(PhaseLoad, KindInvalidData, cause, detail)
}
