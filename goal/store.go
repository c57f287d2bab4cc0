package goal

import (
	"sync"
	"time"

	"github.com/gitforge/gitforge/core"
)

// Emitter receives the events produced by store mutations. Publish must not
// block; the event bus satisfies this with bounded per-subscriber queues.
type Emitter interface {
	Publish(ev core.SystemEvent)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ev core.SystemEvent)

// Publish calls f(ev).
func (f EmitterFunc) Publish(ev core.SystemEvent) { f(ev) }

// entry pairs a goal with the lock that serializes its mutations.
type entry struct {
	mu   sync.Mutex
	goal core.Goal
}

// Options configures a Store.
type Options struct {
	// Emitter receives lifecycle events. Defaults to a no-op emitter.
	Emitter Emitter
	// Now supplies timestamps; overridable for deterministic tests.
	Now func() time.Time
	// NewID supplies goal identifiers. Defaults to core.NewID (uuid).
	NewID func() string
}

// Store is a volatile goal store keeping all goals in a process-local map.
// It is safe for concurrent access. Returned goals are value snapshots so
// callers can never mutate stored state.
type Store struct {
	mu    sync.RWMutex
	goals map[string]*entry

	emitter Emitter
	now     func() time.Time
	newID   func() string
}

// NewStore constructs an empty store.
func NewStore(optFns ...func(o *Options)) *Store {
	opts := Options{
		Emitter: EmitterFunc(func(core.SystemEvent) {}),
		Now:     time.Now,
		NewID:   core.NewID,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		goals:   make(map[string]*entry),
		emitter: opts.Emitter,
		now:     opts.Now,
		newID:   opts.NewID,
	}
}

// Insert stores a new Pending goal under a generated id and emits
// goal_created. Identifier collisions are treated as unreachable for
// generated ids.
func (s *Store) Insert(task core.TaskDescriptor) core.Goal {
	g, _ := s.InsertWithID(s.newID(), task)
	return g
}

// InsertWithID stores a new Pending goal under a caller-supplied id.
// Returns ErrConflict if the id is already taken.
func (s *Store) InsertWithID(id string, task core.TaskDescriptor) (core.Goal, error) {
	now := s.now().UTC()
	e := &entry{goal: core.Goal{
		ID:        id,
		Task:      task,
		Status:    core.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	s.mu.Lock()
	if _, exists := s.goals[id]; exists {
		s.mu.Unlock()
		return core.Goal{}, core.ErrConflict
	}
	s.goals[id] = e
	// Take the entry lock before releasing the map lock so no transition
	// can emit ahead of the created event.
	e.mu.Lock()
	s.mu.Unlock()
	defer e.mu.Unlock()

	s.emitter.Publish(core.NewGoalCreatedEvent(id, task))
	return e.goal, nil
}

// Get returns a snapshot of the goal or ErrNotFound.
func (s *Store) Get(id string) (core.Goal, error) {
	e, err := s.lookup(id)
	if err != nil {
		return core.Goal{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.goal, nil
}

// Transition moves a goal to a new status, enforcing the state machine, and
// emits the matching event on success. The result is attached for terminal
// Completed/Failed transitions. Returns ErrNotFound for unknown ids and
// ErrInvalidTransition when the step is illegal (including any step out of
// a terminal state).
func (s *Store) Transition(id string, next core.Status, result *core.Result) (core.Goal, error) {
	e, err := s.lookup(id)
	if err != nil {
		return core.Goal{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.goal.Status.CanTransition(next) {
		return e.goal, core.ErrInvalidTransition
	}

	e.goal.Status = next
	e.goal.UpdatedAt = s.now().UTC()
	if next == core.StatusCompleted || next == core.StatusFailed {
		e.goal.Result = result
	}

	s.emitter.Publish(transitionEvent(e.goal))
	return e.goal, nil
}

// Progress emits a goal_progress event for a running goal without changing
// its state. Progress on a goal that is not running is rejected with
// ErrInvalidTransition so late reports against terminal goals stay silent
// on the bus.
func (s *Store) Progress(id, message string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.goal.Status != core.StatusRunning {
		return core.ErrInvalidTransition
	}
	s.emitter.Publish(core.NewGoalProgressEvent(id, message))
	return nil
}

// Len reports the number of stored goals.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.goals)
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.goals[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return e, nil
}

func transitionEvent(g core.Goal) core.SystemEvent {
	switch g.Status {
	case core.StatusRunning:
		return core.NewGoalStartedEvent(g.ID)
	case core.StatusCompleted:
		output := ""
		if g.Result != nil {
			output = g.Result.Output
		}
		return core.NewGoalCompletedEvent(g.ID, output)
	case core.StatusFailed:
		detail := ""
		if g.Result != nil {
			detail = g.Result.Error
		}
		return core.NewGoalFailedEvent(g.ID, detail)
	case core.StatusCancelled:
		return core.NewGoalCancelledEvent(g.ID)
	default:
		return core.NewEvent(core.EventKind("goal_"+string(g.Status)), g.ID)
	}
}
