package emit

import "context"

// Emitter receives observability events from the analysis loop.
//
// Implementations should be non-blocking and must not panic; a slow or
// failing observability backend must never abort an analysis run.
type Emitter interface {
	// Emit sends a single event to the configured backend.
	Emit(event Event)

	// EmitBatch sends multiple events in one call. Implementations should
	// preserve event order.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events have been delivered.
	Flush(ctx context.Context) error
}
