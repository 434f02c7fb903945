// Package component holds the per-instance record behind an FMI handle.
//
// A Component is created once per successful instantiation and owns:
//
//	memory    host allocate/free callbacks, by value
//	settings  debug flag and category filter, shared with the slave's logger
//	slave     the model object, released through the same memory on Free
//	scratch   C strings returned to the host by GetString
//	states    FMU state snapshots the host has not freed
//
// Every call into model code goes through Invoke, which turns the result
// into an FMI status. No error or panic from the model reaches the host.
//
// Per-instance calls are not synchronized; the host must not call one
// instance from several threads at once.
package component
