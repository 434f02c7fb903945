// Package wasmslave runs co-simulation models compiled to WebAssembly.
//
// A guest is a core module executed by wazero. It exports its linear memory
// and a step function; everything else is optional:
//
//	memory                                              required
//	do_step(t f64, h f64, newStep i32) -> status i32    required
//	real_count() -> i32          get_real(vr i32) -> f64    set_real(vr i32, v f64)
//	integer_count() -> i32       get_integer(vr i32) -> i32 set_integer(vr i32, v i32)
//	boolean_count() -> i32       get_boolean(vr i32) -> i32 set_boolean(vr i32, v i32)
//	setup_experiment(tolDefined i32, tol f64, start f64, stopDefined i32, stop f64) -> status i32
//	enter_initialization_mode() -> status i32
//	exit_initialization_mode() -> status i32
//	terminate() -> status i32
//	reset() -> status i32
//
// status is an FMI status code (0 OK ... 4 Fatal). Export names can be
// changed through Config.Exports. Guests may import
//
//	env.log(level i32, ptr i32, len i32)
//
// to send a message (level 0 debug, 1 info, 2 warning, 3 error) to the
// instance's host logger under the logEvents category.
//
// FMU states are copies of linear memory.
//
// Basic usage:
//
//	loader, err := wasmslave.Load(ctx, wasm, wasmslave.Config{MemoryLimitPages: 16})
//	if err != nil {
//	    return err
//	}
//	defer loader.Close(ctx)
//
//	d := fmi2.New(loader.Factory())
package wasmslave
