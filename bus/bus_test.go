package bus

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge/gitforge/core"
)

func TestSubscribeVersionCheck(t *testing.T) {
	b := New()
	sub, err := b.Subscribe(core.SchemaVersion)
	require.NoError(t, err)
	defer sub.Close()

	_, err = b.Subscribe(core.SchemaVersion + 1)
	assert.ErrorIs(t, err, core.ErrSchemaVersionMismatch)
}

func TestFanOutToAllSubscribers(t *testing.T) {
	b := New()
	first, err := b.Subscribe(core.SchemaVersion)
	require.NoError(t, err)
	second, err := b.Subscribe(core.SchemaVersion)
	require.NoError(t, err)

	b.Publish(core.NewGoalStartedEvent("g-1"))
	b.Publish(core.NewGoalCompletedEvent("g-1", "ok"))

	for _, sub := range []*Subscription{first, second} {
		ev := <-sub.Events()
		assert.Equal(t, core.EventGoalStarted, ev.Kind)
		ev = <-sub.Events()
		assert.Equal(t, core.EventGoalCompleted, ev.Kind)
	}
}

func TestNoReplayBeforeSubscription(t *testing.T) {
	b := New()
	b.Publish(core.NewGoalStartedEvent("g-old"))

	sub, err := b.Subscribe(core.SchemaVersion)
	require.NoError(t, err)
	defer sub.Close()

	b.Publish(core.NewGoalStartedEvent("g-new"))
	ev := <-sub.Events()
	assert.Equal(t, "g-new", ev.GoalID)
}

func TestCloseDetachesSubscription(t *testing.T) {
	b := New()
	sub, err := b.Subscribe(core.SchemaVersion)
	require.NoError(t, err)
	assert.Equal(t, 1, b.SubscriberCount())

	sub.Close()
	sub.Close() // idempotent
	assert.Equal(t, 0, b.SubscriberCount())

	// Channel is closed.
	_, ok := <-sub.Events()
	assert.False(t, ok)

	// Publication after close must not panic.
	b.Publish(core.NewGoalStartedEvent("g-1"))
}

func TestDropOldestOverflow(t *testing.T) {
	b := New(func(o *Options) {
		o.Config = Config{QueueSize: 2, Overflow: DropOldest}
	})
	sub, err := b.Subscribe(core.SchemaVersion)
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		b.Publish(core.NewGoalProgressEvent("g-1", fmt.Sprintf("step %d", i)))
	}

	// The two newest events survive; the three oldest were evicted.
	assert.Equal(t, uint64(3), sub.Dropped())
	ev := <-sub.Events()
	assert.Equal(t, "step 3", ev.Payload["message"])
	ev = <-sub.Events()
	assert.Equal(t, "step 4", ev.Payload["message"])
	assert.Equal(t, 1, b.SubscriberCount())
}

func TestDisconnectOverflow(t *testing.T) {
	b := New(func(o *Options) {
		o.Config = Config{QueueSize: 1, Overflow: Disconnect}
	})
	sub, err := b.Subscribe(core.SchemaVersion)
	require.NoError(t, err)

	b.Publish(core.NewGoalStartedEvent("g-1"))
	b.Publish(core.NewGoalCompletedEvent("g-1", "ok")) // overflows, disconnects

	assert.Equal(t, 0, b.SubscriberCount())

	ev, ok := <-sub.Events()
	require.True(t, ok)
	assert.Equal(t, core.EventGoalStarted, ev.Kind)
	_, ok = <-sub.Events()
	assert.False(t, ok)
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	b := New(func(o *Options) {
		o.Config = Config{QueueSize: 1, Overflow: DropOldest}
	})
	slow, err := b.Subscribe(core.SchemaVersion)
	require.NoError(t, err)
	defer slow.Close()
	fast, err := b.Subscribe(core.SchemaVersion)
	require.NoError(t, err)
	defer fast.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(core.NewGoalProgressEvent("g-1", fmt.Sprintf("%d", i)))
			<-fast.Events() // fast consumer keeps up, slow one never reads
		}
	}()
	<-done
	assert.Equal(t, 2, b.SubscriberCount())
}
