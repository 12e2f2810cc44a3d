package event

import "context"

// Store defines the interface for event persistence.
// Implementations live under infrastructure/storage (memory, badger).
type Store interface {
	// Append persists one or more events atomically.
	// Events are assigned sequence numbers in order of appearance.
	Append(ctx context.Context, events ...Event) error

	// LoadEvents retrieves all events for a run in sequence order.
	LoadEvents(ctx context.Context, runID string) ([]Event, error)

	// LoadEventsFrom retrieves events starting from a specific sequence number.
	// This enables incremental replay from a known checkpoint.
	LoadEventsFrom(ctx context.Context, runID string, fromSeq uint64) ([]Event, error)

	// Subscribe returns a channel that receives new events for a run.
	// The channel is closed when the context is cancelled.
	Subscribe(ctx context.Context, runID string) (<-chan Event, error)
}

// QueryOptions configures event queries.
type QueryOptions struct {
	// Types filters to specific event types (empty means all).
	Types []Type

	// FromTime filters events after this timestamp.
	FromTime int64

	// ToTime filters events before this timestamp.
	ToTime int64

	// Limit is the maximum number of events to return (0 = no limit).
	Limit int

	// Offset is the number of events to skip.
	Offset int
}

// Querier is an optional interface for stores that support advanced queries.
type Querier interface {
	// Query retrieves events matching the given options.
	Query(ctx context.Context, runID string, opts QueryOptions) ([]Event, error)

	// CountEvents returns the number of events for a run.
	CountEvents(ctx context.Context, runID string) (int64, error)

	// ListRuns returns all run IDs with events in the store.
	ListRuns(ctx context.Context) ([]string, error)
}
