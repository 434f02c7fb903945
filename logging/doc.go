// Package logging is the diagnostic channel between model code and the host.
//
// The host supplies one logger callback per instance. Logger wraps it together
// with a Settings value that fmi2SetDebugLogging mutates in place; the same
// *Settings is held by the Logger given to model code, so toggling debug
// logging takes effect for the model immediately.
//
// # Filtering
//
//	Log(Error|Fatal, ...)  always forwarded
//	Log(other, ...)        forwarded when the category passes the filter
//	Debug(...)             forwarded when debug is on and the category passes
//
// An empty category filter passes everything.
//
// # zap
//
// Model code that prefers structured logging can use Logger.Zap(), whose
// entries are rendered as "message key=value ..." and forwarded to the host.
// ZapSink goes the other way and lets a Go host receive messages in zap.
package logging
