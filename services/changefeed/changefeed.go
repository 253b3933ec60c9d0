// Package changefeed fans out mutations of the pending collections to
// standing subscribers such as the moderation stream.
package changefeed

import (
	"context"
	"sync"
)

// Collections that publish changes
const (
	CollectionPendingMaterials = "pending_academic_materials"
	CollectionPendingServices  = "pending_local_services"
)

// Actions carried by an Event
const (
	ActionCreated  = "created"
	ActionApproved = "approved"
	ActionRejected = "rejected"
	// ActionResync is emitted when deliveries may have been missed
	ActionResync = "resync"
)

// Event describes one mutation
type Event struct {
	Collection string `json:"collection"`
	Action     string `json:"action"`
	ID         uint   `json:"id"`
}

// Publisher announces a mutation after it has been committed
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Broker delivers published events to every live subscription
type Broker interface {
	Publisher
	// Subscribe returns the event channel and a cancel func that must be
	// called when the subscriber goes away
	Subscribe() (<-chan Event, func())
	Close() error
}

const subscriberBuffer = 16

// MemoryBroker delivers events within the process
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	closed bool
}

// NewMemoryBroker returns a broker without subscribers
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[uint64]chan Event)}
}

// Publish never blocks. A subscriber whose buffer is full misses the event;
// subscribers re-read state on every event so later events still converge.
func (b *MemoryBroker) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Subscribers reports the number of live subscriptions
func (b *MemoryBroker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
