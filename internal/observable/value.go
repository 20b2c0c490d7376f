// Package observable provides a latest-value broadcast used to publish shared
// session state to any number of consumers.
package observable

import (
	"sync"
)

// Readable is the consumer view of a Value. Consumers read snapshots and
// subscribe to changes but cannot publish.
type Readable[T any] interface {
	// Get returns the current value
	Get() T
	// Subscribe returns a channel that first carries the current value and
	// then every later value. A slow receiver only ever sees the latest value.
	// The returned cancel function is idempotent.
	Subscribe() (<-chan T, func())
}

// Value is a single-producer, multi-consumer holder of the latest value
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	subs    map[uint64]chan T
	nextID  uint64
	closed  bool
}

// New creates a Value holding initial
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[uint64]chan T),
	}
}

// Get returns the current value
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set publishes x to every subscriber. It never blocks on a subscriber:
// a pending value that has not been received yet is replaced by x.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.current = x
	for _, ch := range v.subs {
		offer(ch, x)
	}
}

// Subscribe registers a new consumer
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan T, 1)
	if v.closed {
		close(ch)
		return ch, func() {}
	}

	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	ch <- v.current

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if sub, ok := v.subs[id]; ok {
				delete(v.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions
func (v *Value[T]) Subscribers() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subs)
}

// Close closes every subscriber channel. Later Set calls are ignored and
// later subscriptions receive an already-closed channel.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
}

// offer places x in a one-slot channel, dropping a stale pending value.
// Callers hold the write lock, so no other sender races for the slot.
func offer[T any](ch chan T, x T) {
	select {
	case ch <- x:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- x:
	default:
	}
}

var _ Readable[int] = (*Value[int])(nil)
