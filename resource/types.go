package resource

// Handle identifies a value stored in a table. The C layer stores it in a
// host-allocated token, so the host only ever holds plain memory.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Type IDs for the values the runtime stores.
const (
	TypeInstance uint32 = 1 // *component.Component behind an fmiComponent
	TypeState    uint32 = 2 // slave.State behind an fmi2FMUstate
)

// EventType distinguishes lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Event is a lifecycle notification.
type Event struct {
	Value  any
	Handle Handle
	TypeID uint32
	Type   EventType
}

// Observer receives lifecycle events. Observers run synchronously on the
// calling goroutine and must not call back into the table.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Backend stores values by handle.
type Backend interface {
	// Create stores a value and returns its handle.
	Create(typeID uint32, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Drop removes a value and returns it.
	Drop(handle Handle) (any, bool)

	// Close drops every value.
	Close() error
}

// TypedTable provides type-safe access to values of one type.
type TypedTable[T any] interface {
	// Insert adds a value and returns its handle, or 0 when the table is closed.
	Insert(value T) Handle

	// Get retrieves a value by handle.
	Get(handle Handle) (T, bool)

	// Remove drops a value and returns it.
	Remove(handle Handle) (T, bool)

	// Len returns the number of live values.
	Len() int

	// Each iterates over live values until fn returns false.
	Each(fn func(Handle, T) bool)
}

// Dropper is implemented by values that release resources when removed.
type Dropper interface {
	Drop()
}
