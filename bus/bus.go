package bus

import (
	"sync"

	"github.com/gitforge/gitforge/core"
	"github.com/gitforge/gitforge/logging"
)

// OverflowPolicy selects what happens when a subscriber's queue is full at
// publication time.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest queued event to make room for the new
	// one. The subscriber keeps its subscription but loses history.
	DropOldest OverflowPolicy = iota
	// Disconnect closes the lagging subscription. The consumer must
	// resubscribe to keep receiving events.
	Disconnect
)

// Config holds the tunables of a Bus.
type Config struct {
	// QueueSize is the per-subscriber queue capacity.
	QueueSize int
	// Overflow is applied when a subscriber's queue is full.
	Overflow OverflowPolicy
}

// DefaultConfig mirrors the engine defaults: a generous queue with
// drop-oldest semantics so interactive consumers are never disconnected.
var DefaultConfig = Config{
	QueueSize: 1024,
	Overflow:  DropOldest,
}

// Options configures a Bus instance.
type Options struct {
	Config Config
	Logger logging.Logger
}

// Bus is the in-process publish/subscribe fan-out for SystemEvents. The
// subscriber registry may be mutated concurrently with publication; each
// published event observes a consistent registry snapshot.
type Bus struct {
	mu   sync.Mutex
	subs map[string]*Subscription

	config Config
	logger logging.Logger
}

// New constructs a Bus with optional overrides.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.QueueSize <= 0 {
		opts.Config.QueueSize = DefaultConfig.QueueSize
	}
	return &Bus{
		subs:   make(map[string]*Subscription),
		config: opts.Config,
		logger: opts.Logger,
	}
}

// Subscribe registers a consumer supporting the given major schema version
// and returns its subscription handle. The only rejection reason is a major
// version mismatch. Events published before the call are not replayed.
func (b *Bus) Subscribe(consumerMajor int) (*Subscription, error) {
	if consumerMajor != core.SchemaVersion {
		return nil, core.ErrSchemaVersionMismatch
	}

	sub := newSubscription(core.NewID(), b.config.QueueSize, b)

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	b.logger.Debug("bus subscription opened", "subscription_id", sub.id)
	return sub, nil
}

// Publish fans the event out to every current subscription without ever
// blocking. Full queues are handled per the configured overflow policy.
func (b *Bus) Publish(ev core.SystemEvent) {
	// Holding the registry lock for the whole fan-out keeps delivery of one
	// event atomic across subscribers: all of them see the same relative
	// order. Deliveries are non-blocking so the critical section stays short.
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subs {
		if sub.deliver(ev, b.config.Overflow) {
			continue
		}
		// Disconnect policy closed the subscription.
		delete(b.subs, id)
		b.logger.Warn("bus subscriber disconnected on overflow", "subscription_id", id)
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// remove detaches a subscription after the consumer closed it.
func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}
