package bus

import (
	"sync"

	"github.com/gitforge/gitforge/core"
)

// Subscription is a live consumer registration. It owns an ordered bounded
// delivery channel that stays open until the consumer calls Close, the
// Disconnect overflow policy fires, or the process ends.
type Subscription struct {
	id  string
	ch  chan core.SystemEvent
	bus *Bus

	mu      sync.Mutex
	closed  bool
	dropped uint64
}

func newSubscription(id string, queueSize int, b *Bus) *Subscription {
	return &Subscription{
		id:  id,
		ch:  make(chan core.SystemEvent, queueSize),
		bus: b,
	}
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Events returns the delivery channel. The channel is closed when the
// subscription ends; consumers should range over it.
func (s *Subscription) Events() <-chan core.SystemEvent { return s.ch }

// Dropped reports how many events were evicted under the DropOldest policy.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close ends the subscription and detaches it from the bus. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.bus.remove(s.id)
}

// deliver enqueues the event without blocking. It reports false when the
// Disconnect policy closed the subscription; the bus then drops it from the
// registry. Called with the bus registry lock held.
func (s *Subscription) deliver(ev core.SystemEvent, policy OverflowPolicy) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}

	for {
		select {
		case s.ch <- ev:
			return true
		default:
		}

		if policy == Disconnect {
			s.closed = true
			close(s.ch)
			return false
		}

		// DropOldest: evict one queued event and retry. The consumer may be
		// draining concurrently, so the eviction itself can miss; the retry
		// loop terminates because either the send or the eviction succeeds.
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}
