package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/felixgeelhaar/droid-go/domain/event"
	"github.com/google/uuid"
)

// subscriberBuffer is the channel capacity handed to subscribers. Events
// that do not fit are dropped for that subscriber only.
const subscriberBuffer = 100

// stream is one run's event log.
type stream struct {
	events []event.Event
	seq    uint64
	subs   []chan event.Event
}

// EventStore is an in-memory implementation of event.Store.
type EventStore struct {
	streams map[string]*stream
	mu      sync.RWMutex
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{streams: make(map[string]*stream)}
}

func (s *EventStore) stream(runID string) *stream {
	st, ok := s.streams[runID]
	if !ok {
		st = &stream{}
		s.streams[runID] = st
	}
	return st
}

// Append persists one or more events atomically. Either every event is
// stored or none is.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		st := s.stream(e.RunID)
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		st.seq++
		e.Sequence = st.seq
		st.events = append(st.events, e)

		for _, sub := range st.subs {
			select {
			case sub <- e:
			default:
			}
		}
	}

	return nil
}

// LoadEvents retrieves all events for a run in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, runID string) ([]event.Event, error) {
	return s.LoadEventsFrom(ctx, runID, 0)
}

// LoadEventsFrom retrieves events starting from a specific sequence number.
func (s *EventStore) LoadEventsFrom(ctx context.Context, runID string, fromSeq uint64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []event.Event{}
	st, ok := s.streams[runID]
	if !ok {
		return result, nil
	}
	for _, e := range st.events {
		if e.Sequence >= fromSeq {
			result = append(result, e)
		}
	}
	return result, nil
}

// Subscribe returns a channel that receives new events for a run. The channel
// is closed when ctx is cancelled.
func (s *EventStore) Subscribe(ctx context.Context, runID string) (<-chan event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	ch := make(chan event.Event, subscriberBuffer)
	st := s.stream(runID)
	st.subs = append(st.subs, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.unsubscribe(runID, ch)
	}()

	return ch, nil
}

func (s *EventStore) unsubscribe(runID string, ch chan event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[runID]
	if !ok {
		return
	}
	if i := slices.Index(st.subs, ch); i >= 0 {
		st.subs = slices.Delete(st.subs, i, i+1)
		close(ch)
	}
	if len(st.subs) == 0 && len(st.events) == 0 {
		delete(s.streams, runID)
	}
}

// Query retrieves events matching the given options.
func (s *EventStore) Query(ctx context.Context, runID string, opts event.QueryOptions) ([]event.Event, error) {
	events, err := s.LoadEvents(ctx, runID)
	if err != nil {
		return nil, err
	}

	result := []event.Event{}
	for _, e := range events {
		if matchesQuery(e, opts) {
			result = append(result, e)
		}
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return []event.Event{}, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// matchesQuery checks if an event matches the type and time filters.
func matchesQuery(e event.Event, opts event.QueryOptions) bool {
	if len(opts.Types) > 0 && !slices.Contains(opts.Types, e.Type) {
		return false
	}
	ts := e.Timestamp.Unix()
	if opts.FromTime > 0 && ts < opts.FromTime {
		return false
	}
	if opts.ToTime > 0 && ts > opts.ToTime {
		return false
	}
	return true
}

// CountEvents returns the number of events for a run.
func (s *EventStore) CountEvents(ctx context.Context, runID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.streams[runID]; ok {
		return int64(len(st.events)), nil
	}
	return 0, nil
}

// ListRuns returns all run IDs with events in the store, sorted.
func (s *EventStore) ListRuns(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.streams))
	for runID, st := range s.streams {
		if len(st.events) > 0 {
			runs = append(runs, runID)
		}
	}
	slices.Sort(runs)
	return runs, nil
}

// DeleteRun removes all events for a run and closes its subscriptions.
func (s *EventStore) DeleteRun(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[runID]
	if !ok {
		return event.ErrRunNotFound
	}
	for _, ch := range st.subs {
		close(ch)
	}
	delete(s.streams, runID)
	return nil
}

// Len returns the total number of events across all runs.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	for _, st := range s.streams {
		count += len(st.events)
	}
	return count
}

// Ensure EventStore implements event.Store and event.Querier
var (
	_ event.Store   = (*EventStore)(nil)
	_ event.Querier = (*EventStore)(nil)
)
