// Package events fans outbound engine events out to external indexers.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/pkg/metrics"
)

// Default bus configuration constants.
const (
	defaultSubscriberBuffer = 256
)

// Option applies a configuration option to the Bus.
type Option func(*Bus)

// WithSubscriberBuffer sets the per-subscriber channel buffer.
func WithSubscriberBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// Bus is a non-blocking publish/subscribe fanout. Publishing never blocks
// the engine's serialized transaction: a subscriber that cannot keep up
// loses events rather than stalling settlement.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan model.Event
	nextID int
	buffer int
	closed bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewBus creates a Bus with options applied.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[int]chan model.Event),
		buffer: defaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber and returns its channel plus a cancel
// function. The channel closes on cancel or bus close.
func (b *Bus) Subscribe() (<-chan model.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan model.Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch
	metrics.UpdateEventSubscribers(len(b.subs))

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
			metrics.UpdateEventSubscribers(len(b.subs))
		}
	}
	return ch, cancel
}

// Publish delivers e to every subscriber without blocking.
func (b *Bus) Publish(e model.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	b.published.Add(1)
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			metrics.UpdateEventsDropped(b.dropped.Add(1))
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Stats reports published and dropped event counts.
func (b *Bus) Stats() (published, dropped uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.published.Load(), b.dropped.Load()
}
