package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/droid-go/domain/event"
)

// EventStore is a BadgerDB-backed implementation of event.Store.
//
// Key layout:
//
//	<prefix>events:<runID>:<seq, 8 bytes big-endian>  -> JSON event
//	<prefix>seq:<runID>                                -> last sequence
type EventStore struct {
	db          *badger.DB
	keyPrefix   string
	subscribers map[string][]chan event.Event
	mu          sync.RWMutex
	gcStop      chan struct{}
	gcWg        sync.WaitGroup
	closeOnce   sync.Once
}

// NewEventStore opens a BadgerDB event store with the given configuration.
func NewEventStore(cfg Config, opts ...Option) (*EventStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := NewEventStoreFromDB(db, cfg.KeyPrefix)
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

// NewEventStoreFromDB creates an event store from an existing BadgerDB database.
func NewEventStoreFromDB(db *badger.DB, keyPrefix string) *EventStore {
	return &EventStore{
		db:          db,
		keyPrefix:   keyPrefix,
		subscribers: make(map[string][]chan event.Event),
		gcStop:      make(chan struct{}),
	}
}

// startGC runs value log GC every interval until Close.
func (s *EventStore) startGC(interval time.Duration, discardRatio float64) {
	s.gcWg.Add(1)
	go func() {
		defer s.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				for s.db.RunValueLogGC(discardRatio) == nil {
				}
			}
		}
	}()
}

func (s *EventStore) runPrefix(runID string) []byte {
	return []byte(s.keyPrefix + "events:" + runID + ":")
}

func (s *EventStore) eventKey(runID string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(s.runPrefix(runID), seq)
}

func (s *EventStore) seqKey(runID string) []byte {
	return []byte(s.keyPrefix + "seq:" + runID)
}

// Append persists one or more events in a single transaction.
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

	var stored []event.Event
	err := s.db.Update(func(txn *badger.Txn) error {
		stored = stored[:0]
		seqs := make(map[string]uint64)

		for _, e := range events {
			seq, ok := seqs[e.RunID]
			if !ok {
				var err error
				if seq, err = s.lastSeq(txn, e.RunID); err != nil {
					return err
				}
			}
			seq++
			seqs[e.RunID] = seq

			if e.ID == "" {
				e.ID = uuid.New().String()
			}
			e.Sequence = seq

			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := txn.Set(s.eventKey(e.RunID, seq), data); err != nil {
				return err
			}
			stored = append(stored, e)
		}

		for runID, seq := range seqs {
			if err := txn.Set(s.seqKey(runID), binary.BigEndian.AppendUint64(nil, seq)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifySubscribers(stored)
	return nil
}

func (s *EventStore) lastSeq(txn *badger.Txn, runID string) (uint64, error) {
	item, err := txn.Get(s.seqKey(runID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var seq uint64
	err = item.Value(func(val []byte) error {
		if len(val) == 8 {
			seq = binary.BigEndian.Uint64(val)
		}
		return nil
	})
	return seq, err
}

// scan walks a run's events from fromSeq, stopping when visit returns false.
func (s *EventStore) scan(runID string, fromSeq uint64, visit func(e event.Event) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.runPrefix(runID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(s.eventKey(runID, fromSeq)); it.Valid(); it.Next() {
			var e event.Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				continue // Skip malformed entries
			}
			if !visit(e) {
				break
			}
		}
		return nil
	})
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

	events := []event.Event{}
	err := s.scan(runID, fromSeq, func(e event.Event) bool {
		events = append(events, e)
		return true
	})
	return events, err
}

// Subscribe returns a channel that receives new events for a run.
func (s *EventStore) Subscribe(ctx context.Context, runID string) (<-chan event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	ch := make(chan event.Event, 100)
	s.subscribers[runID] = append(s.subscribers[runID], ch)
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

	subs := s.subscribers[runID]
	if i := slices.Index(subs, ch); i >= 0 {
		s.subscribers[runID] = slices.Delete(subs, i, i+1)
		close(ch)
	}
	if len(s.subscribers[runID]) == 0 {
		delete(s.subscribers, runID)
	}
}

func (s *EventStore) notifySubscribers(events []event.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range events {
		for _, ch := range s.subscribers[e.RunID] {
			select {
			case ch <- e:
			default:
			}
		}
	}
}

// Query retrieves events matching the given options.
func (s *EventStore) Query(ctx context.Context, runID string, opts event.QueryOptions) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events := []event.Event{}
	skip := opts.Offset
	err := s.scan(runID, 0, func(e event.Event) bool {
		if len(opts.Types) > 0 && !slices.Contains(opts.Types, e.Type) {
			return true
		}
		ts := e.Timestamp.Unix()
		if (opts.FromTime > 0 && ts < opts.FromTime) || (opts.ToTime > 0 && ts > opts.ToTime) {
			return true
		}
		if skip > 0 {
			skip--
			return true
		}
		events = append(events, e)
		return opts.Limit <= 0 || len(events) < opts.Limit
	})
	return events, err
}

// CountEvents returns the number of events for a run.
func (s *EventStore) CountEvents(ctx context.Context, runID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = s.runPrefix(runID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// ListRuns returns all run IDs with events in the store, in key order.
func (s *EventStore) ListRuns(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "seq:")
	runs := []string{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			runs = append(runs, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return runs, err
}

// DeleteRun removes all events for a run and closes its subscriptions.
func (s *EventStore) DeleteRun(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	for _, ch := range s.subscribers[runID] {
		close(ch)
	}
	delete(s.subscribers, runID)
	s.mu.Unlock()

	if err := s.db.DropPrefix(s.runPrefix(runID)); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.seqKey(runID))
	})
}

// Close stops GC, closes all subscriber channels and the database.
func (s *EventStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.gcStop)
		s.gcWg.Wait()

		s.mu.Lock()
		for _, subs := range s.subscribers {
			for _, ch := range subs {
				close(ch)
			}
		}
		s.subscribers = make(map[string][]chan event.Event)
		s.mu.Unlock()

		err = s.db.Close()
	})
	return err
}

// Ensure EventStore implements event.Store and event.Querier
var (
	_ event.Store   = (*EventStore)(nil)
	_ event.Querier = (*EventStore)(nil)
)
