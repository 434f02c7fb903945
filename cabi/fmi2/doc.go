// Package fmi2 exports the FMI 2.0 co-simulation C functions from a Go
// c-shared library.
//
// A model's main package registers its slave factory and builds with
// -buildmode=c-shared:
//
//	func init() { fmi2.Register(newModel) }
//	func main() {}
//
// fmi2Component values handed to the host are small host-allocated blocks
// holding an instance handle, so no Go pointer crosses the ABI. FMU states
// are the state handle itself cast to a pointer; NULL never names a state.
// Output arrays are written only when the call returns OK or Warning.
// Strings returned by fmi2GetString live in the instance's scratch arena
// until the next fmi2GetString on that instance or fmi2FreeInstance.
package fmi2
