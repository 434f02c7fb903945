// Package resource maps integer handles to Go values.
//
// The FMI ABI hands the host opaque pointers for instances (fmi2Component)
// and FMU states (fmi2FMUstate). Go pointers may not be kept by C code, so
// the runtime stores the Go value in a table and gives the host a small
// host-allocated block holding the handle (see memory.NewToken).
//
//	table := resource.NewTable()
//	instances := resource.NewTyped[*component.Component](table, resource.TypeInstance)
//
//	h := instances.Insert(c)
//	c, ok := instances.Get(h)
//	c, ok = instances.Remove(h)
//
// Handle 0 is never issued. Freed handles are reused, so a handle is only
// meaningful while its value is live.
//
// # Observers
//
// Observers see every insert and removal:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("%s %d", e.Type, e.Handle)
//	}))
//
// # Cleanup
//
// Values are not collected automatically. Remove drops one value, calling
// its Drop method when it implements Dropper; Close drops everything.
package resource
