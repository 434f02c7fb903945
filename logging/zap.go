package logging

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	fmuruntime "github.com/wippyai/fmu-runtime"
)

// Zap returns a *zap.Logger whose entries go to the host through l.
// The logger name becomes the FMI category:
//
//	log.Zap().Named(logging.CategoryEvents).Info("state event", zap.Float64("t", t))
//
// Fatal-level zap calls still terminate the process; model code should return
// a fatal error instead.
func (l *Logger) Zap() *zap.Logger {
	return zap.New(NewCore(l))
}

// NewCore creates a zapcore.Core that forwards to l.
func NewCore(l *Logger) zapcore.Core {
	return &hostCore{logger: l}
}

type hostCore struct {
	logger *Logger
	fields []zapcore.Field
}

// StatusForLevel maps a zap level to the FMI status reported to the host.
func StatusForLevel(lvl zapcore.Level) fmuruntime.Status {
	switch {
	case lvl >= zapcore.DPanicLevel:
		return fmuruntime.StatusFatal
	case lvl == zapcore.ErrorLevel:
		return fmuruntime.StatusError
	case lvl == zapcore.WarnLevel:
		return fmuruntime.StatusWarning
	default:
		return fmuruntime.StatusOK
	}
}

// LevelForStatus maps an FMI status to a zap level. Used by ZapSink.
func LevelForStatus(s fmuruntime.Status) zapcore.Level {
	switch s {
	case fmuruntime.StatusWarning, fmuruntime.StatusDiscard, fmuruntime.StatusPending:
		return zapcore.WarnLevel
	case fmuruntime.StatusError, fmuruntime.StatusFatal:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (c *hostCore) Enabled(lvl zapcore.Level) bool {
	if c.logger == nil || c.logger.sink == nil {
		return false
	}
	if lvl == zapcore.DebugLevel {
		return c.logger.settings.DebugEnabled()
	}
	return true
}

func (c *hostCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &hostCore{logger: c.logger, fields: merged}
}

func (c *hostCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *hostCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	msg := ent.Message
	if len(enc.Fields) > 0 {
		keys := make([]string, 0, len(enc.Fields))
		for k := range enc.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		b.WriteString(msg)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, enc.Fields[k])
		}
		msg = b.String()
	}

	if ent.Level == zapcore.DebugLevel {
		c.logger.Debug(ent.LoggerName, "%s", msg)
		return nil
	}
	c.logger.Log(StatusForLevel(ent.Level), ent.LoggerName, "%s", msg)
	return nil
}

func (c *hostCore) Sync() error {
	return nil
}

// ZapSink adapts a zap logger into a Sink. Go hosts use it to receive model
// messages in their own log stream.
func ZapSink(z *zap.Logger) Sink {
	return func(instanceName string, status fmuruntime.Status, category, message string) {
		if ce := z.Check(LevelForStatus(status), message); ce != nil {
			ce.Write(
				zap.String("instance", instanceName),
				zap.String("category", category),
				zap.Stringer("status", status),
			)
		}
	}
}
