package logging

import (
	"fmt"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/errors"
)

// Standard FMI 2.0 log categories.
const (
	CategoryEvents        = "logEvents"
	CategoryStatusWarning = "logStatusWarning"
	CategoryStatusDiscard = "logStatusDiscard"
	CategoryStatusError   = "logStatusError"
	CategoryStatusFatal   = "logStatusFatal"
	CategoryStatusPending = "logStatusPending"
	CategoryAll           = "logAll"

	// CategoryRuntime tags messages produced by this library rather than by
	// model code, such as unsupported-function reports.
	CategoryRuntime = "fmuruntime"
)

// Sink receives fully formatted messages. It wraps the host's logger callback.
type Sink func(instanceName string, status fmuruntime.Status, category, message string)

// Report sends err to sink at Error, or at Fatal when errors.IsFatal holds,
// with the matching status category. It is used where no instance logger
// exists yet, such as failed instantiation. A nil sink drops the message.
func Report(sink Sink, instanceName string, err error) fmuruntime.Status {
	status, category := fmuruntime.StatusError, CategoryStatusError
	if errors.IsFatal(err) {
		status, category = fmuruntime.StatusFatal, CategoryStatusFatal
	}
	if sink != nil {
		sink(instanceName, status, category, errors.Message(err))
	}
	return status
}

// Logger is the diagnostic channel handed to model code. It forwards to the
// host sink under the control of the shared Settings.
type Logger struct {
	sink         Sink
	settings     *Settings
	instanceName string
}

// New creates a logger for one instance. settings is shared, not copied.
func New(instanceName string, sink Sink, settings *Settings) *Logger {
	if settings == nil {
		settings = NewSettings(false)
	}
	return &Logger{
		sink:         sink,
		settings:     settings,
		instanceName: instanceName,
	}
}

// InstanceName returns the instance name passed to every sink call.
func (l *Logger) InstanceName() string {
	if l == nil {
		return ""
	}
	return l.instanceName
}

// Settings returns the shared settings.
func (l *Logger) Settings() *Settings {
	if l == nil {
		return nil
	}
	return l.settings
}

// Log sends a message with the given status. Error and Fatal messages always
// reach the host; lower severities pass through the category filter.
func (l *Logger) Log(status fmuruntime.Status, category, format string, args ...any) {
	if l == nil || l.sink == nil {
		return
	}
	if status < fmuruntime.StatusError && !l.settings.Allows(category) {
		return
	}
	l.emit(status, category, format, args)
}

// Debug sends an OK-status message only when debug logging is enabled and the
// category passes the filter.
func (l *Logger) Debug(category, format string, args ...any) {
	if l == nil || l.sink == nil {
		return
	}
	if !l.settings.DebugEnabled() || !l.settings.Allows(category) {
		return
	}
	l.emit(fmuruntime.StatusOK, category, format, args)
}

func (l *Logger) emit(status fmuruntime.Status, category, format string, args []any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.sink(l.instanceName, status, category, msg)
}
