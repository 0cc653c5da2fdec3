package events

// Event is a structured state change emitted by the sale engine.
type Event interface {
	EventType() string
}

// Emitter forwards events to downstream subscribers (RPC, logs, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding everything. Components use
// it as the default so event emission stays optional.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
