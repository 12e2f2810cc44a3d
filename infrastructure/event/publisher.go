// Package event publishes simulation events to an event store.
package event

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/droid-go/domain/event"
)

// Guard runs a store write, typically through a resilience.Executor.
type Guard interface {
	Do(ctx context.Context, op func(ctx context.Context) error) error
}

// Publisher publishes events to an event store.
type Publisher struct {
	store   event.Store
	guard   Guard
	buffer  []event.Event
	bufSize int
	mu      sync.Mutex
}

// PublisherOption configures the publisher.
type PublisherOption func(*Publisher)

// WithBufferSize sets the event buffer size.
func WithBufferSize(size int) PublisherOption {
	return func(p *Publisher) {
		p.bufSize = size
	}
}

// WithGuard routes every store append through g.
func WithGuard(g Guard) PublisherOption {
	return func(p *Publisher) {
		p.guard = g
	}
}

// NewPublisher creates a new event publisher.
func NewPublisher(store event.Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize > 0 {
		p.buffer = make([]event.Event, 0, p.bufSize)
	}
	return p
}

// Publish sends events to the event store, or buffers them until the buffer
// fills.
func (p *Publisher) Publish(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bufSize == 0 {
		return p.append(ctx, events)
	}

	p.buffer = append(p.buffer, events...)
	if len(p.buffer) >= p.bufSize {
		return p.flush(ctx)
	}
	return nil
}

// Flush writes all buffered events to the store.
func (p *Publisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flush(ctx)
}

// Pending returns the number of buffered events.
func (p *Publisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

// flush writes buffered events to the store (must hold lock).
func (p *Publisher) flush(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}
	if err := p.append(ctx, p.buffer); err != nil {
		return err
	}
	p.buffer = p.buffer[:0]
	return nil
}

func (p *Publisher) append(ctx context.Context, events []event.Event) error {
	if p.guard == nil {
		return p.store.Append(ctx, events...)
	}
	return p.guard.Do(ctx, func(ctx context.Context) error {
		return p.store.Append(ctx, events...)
	})
}

// Close flushes remaining events.
func (p *Publisher) Close() error {
	return p.Flush(context.Background())
}

// Ensure Publisher implements event.Publisher
var _ event.Publisher = (*Publisher)(nil)
