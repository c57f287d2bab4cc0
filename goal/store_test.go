package goal

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge/gitforge/core"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []core.SystemEvent
}

func (c *captureEmitter) Publish(ev core.SystemEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureEmitter) kinds() []core.EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.EventKind, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Kind
	}
	return out
}

func gitTask(args string) core.TaskDescriptor {
	return core.TaskDescriptor{Kind: core.BackendGit, Command: "git " + args, Args: args}
}

func TestInsertAndGet(t *testing.T) {
	emitter := &captureEmitter{}
	s := NewStore(func(o *Options) { o.Emitter = emitter })

	g := s.Insert(gitTask("status"))
	require.NotEmpty(t, g.ID)
	assert.Equal(t, core.StatusPending, g.Status)

	got, err := s.Get(g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, []core.EventKind{core.EventGoalCreated}, emitter.kinds())
}

func TestInsertWithIDConflict(t *testing.T) {
	s := NewStore()
	_, err := s.InsertWithID("g-1", gitTask("status"))
	require.NoError(t, err)
	_, err = s.InsertWithID("g-1", gitTask("log"))
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, 1, s.Len())
}

func TestGetUnknown(t *testing.T) {
	s := NewStore()
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTransitionLifecycle(t *testing.T) {
	emitter := &captureEmitter{}
	s := NewStore(func(o *Options) { o.Emitter = emitter })

	g := s.Insert(gitTask("status"))

	running, err := s.Transition(g.ID, core.StatusRunning, nil)
	require.NoError(t, err)
	assert.Equal(t, core.StatusRunning, running.Status)

	done, err := s.Transition(g.ID, core.StatusCompleted, &core.Result{Output: "clean"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, "clean", done.Result.Output)

	assert.Equal(t, []core.EventKind{
		core.EventGoalCreated,
		core.EventGoalStarted,
		core.EventGoalCompleted,
	}, emitter.kinds())
}

func TestTerminalStateIsImmutable(t *testing.T) {
	s := NewStore()
	g := s.Insert(gitTask("status"))

	_, err := s.Transition(g.ID, core.StatusCancelled, nil)
	require.NoError(t, err)

	// A late backend completion report must be rejected.
	snap, err := s.Transition(g.ID, core.StatusCompleted, &core.Result{Output: "late"})
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.Equal(t, core.StatusCancelled, snap.Status)
	assert.Nil(t, snap.Result)
}

func TestPendingCannotComplete(t *testing.T) {
	s := NewStore()
	g := s.Insert(gitTask("status"))
	_, err := s.Transition(g.ID, core.StatusCompleted, nil)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestTransitionUnknownGoal(t *testing.T) {
	s := NewStore()
	_, err := s.Transition("missing", core.StatusRunning, nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProgressOnlyWhileRunning(t *testing.T) {
	emitter := &captureEmitter{}
	s := NewStore(func(o *Options) { o.Emitter = emitter })
	g := s.Insert(gitTask("log"))

	assert.ErrorIs(t, s.Progress(g.ID, "too early"), core.ErrInvalidTransition)

	_, err := s.Transition(g.ID, core.StatusRunning, nil)
	require.NoError(t, err)
	require.NoError(t, s.Progress(g.ID, "reading refs"))

	_, err = s.Transition(g.ID, core.StatusCompleted, &core.Result{Output: "done"})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Progress(g.ID, "too late"), core.ErrInvalidTransition)

	assert.Equal(t, []core.EventKind{
		core.EventGoalCreated,
		core.EventGoalStarted,
		core.EventGoalProgress,
		core.EventGoalCompleted,
	}, emitter.kinds())
}

func TestConcurrentDistinctGoals(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("g-%d", i)
			if _, err := s.InsertWithID(id, gitTask("status")); err != nil {
				t.Errorf("insert %s: %v", id, err)
				return
			}
			if _, err := s.Transition(id, core.StatusRunning, nil); err != nil {
				t.Errorf("start %s: %v", id, err)
			}
			if _, err := s.Transition(id, core.StatusCompleted, &core.Result{Output: "ok"}); err != nil {
				t.Errorf("complete %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}

func TestConcurrentCancelVsCompleteSingleWinner(t *testing.T) {
	// Exactly one terminal transition may win; the loser must observe
	// ErrInvalidTransition and the goal must never regress.
	for i := 0; i < 20; i++ {
		s := NewStore()
		g := s.Insert(gitTask("status"))
		_, err := s.Transition(g.ID, core.StatusRunning, nil)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = s.Transition(g.ID, core.StatusCompleted, &core.Result{Output: "ok"})
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = s.Transition(g.ID, core.StatusCancelled, nil)
		}()
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
			} else {
				assert.ErrorIs(t, err, core.ErrInvalidTransition)
			}
		}
		assert.Equal(t, 1, wins)

		snap, err := s.Get(g.ID)
		require.NoError(t, err)
		assert.True(t, snap.Status.Terminal())
	}
}
