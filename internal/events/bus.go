// Package events provides the lifecycle-event bus for decisiond.
//
// The core publishes fire-and-forget events (arm selections, reward
// reports, embedding generations, decisions) for external logging and
// metrics pipelines. Consuming events is optional: publishing never
// blocks, and a slow subscriber drops events rather than stalling the
// decision path.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Type identifies an event kind.
type Type string

// Event types emitted by the core.
const (
	ArmSelected         Type = "arm:selected"
	RewardReported      Type = "reward:reported"
	EmbeddingGenerated  Type = "embedding:generated"
	ClusteringCompleted Type = "clustering:completed"
	DecisionMade        Type = "decision:made"
	OutcomeReported     Type = "outcome:reported"
)

// Event is one lifecycle notification. Data carries event-specific
// structured fields (ids, scores, latency).
type Event struct {
	Type Type
	At   time.Time
	Data map[string]any
}

// Bus is a non-blocking publish-subscribe fanout over Go channels.
type Bus struct {
	mu         sync.RWMutex
	nextID     int
	subs       map[int]*subscription
	bufferSize int
	dropped    atomic.Uint64
}

type subscription struct {
	id    int
	types map[Type]bool // empty = all types
	ch    chan Event
}

// Option configures the Bus.
type Option func(*Bus)

// WithBufferSize sets the per-subscriber channel buffer (default 64).
func WithBufferSize(size int) Option {
	return func(b *Bus) {
		b.bufferSize = size
	}
}

// NewBus creates an event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:       make(map[int]*subscription),
		bufferSize: 64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a subscriber for the given event types (all
// types when none are given) and returns its id and receive channel.
func (b *Bus) Subscribe(types ...Type) (int, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{
		id:    b.nextID,
		types: make(map[Type]bool, len(types)),
		ch:    make(chan Event, b.bufferSize),
	}
	for _, t := range types {
		sub.types[t] = true
	}
	b.subs[sub.id] = sub
	return sub.id, sub.ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids
// are a no-op.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Publish delivers the event to every matching subscriber without
// blocking. Events to a full subscriber buffer are dropped.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if len(sub.types) > 0 && !sub.types[ev.Type] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the number of events discarded due to full
// subscriber buffers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Emit is a convenience for Publish with the current timestamp.
func (b *Bus) Emit(t Type, data map[string]any) {
	b.Publish(Event{Type: t, At: time.Now(), Data: data})
}
