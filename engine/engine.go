package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/gitforge/gitforge/bus"
	"github.com/gitforge/gitforge/core"
	"github.com/gitforge/gitforge/goal"
	"github.com/gitforge/gitforge/logging"
	"github.com/gitforge/gitforge/router"
)

// Config defines the tuning parameters of the engine.
type Config struct {
	// EventQueueSize is the per-subscriber queue capacity on the event bus.
	EventQueueSize int
	// Overflow is the policy applied to a full subscriber queue. This is a
	// deliberate, documented configuration choice rather than a hidden
	// behavior; see bus.OverflowPolicy.
	Overflow bus.OverflowPolicy
}

// DefaultConfig provides production-ready defaults: a 1024-event queue per
// subscriber with drop-oldest overflow.
var DefaultConfig = Config{
	EventQueueSize: 1024,
	Overflow:       bus.DropOldest,
}

// Options configures an Engine instance using the functional options
// pattern. Unset services fall back to in-process defaults so the engine is
// usable immediately in tests and demos.
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// Git executes git-kind tasks. A nil backend fails git goals with a
	// clear error instead of panicking.
	Git core.GitBackend

	// Logger defaults to NoOpLogger so the engine has no logging
	// dependencies unless the caller wants them.
	Logger logging.Logger
}

// Engine is the core engine facade. All exported methods are safe for
// concurrent use. CreateGoal never blocks on backend execution: dispatch
// happens out-of-band and reports back through goal store transitions,
// which in turn publish SystemEvents to all subscribers.
type Engine struct {
	store  *goal.Store
	bus    *bus.Bus
	git    core.GitBackend
	logger logging.Logger

	// Agent backend registry, keyed by agent id.
	agents   map[core.AgentID]core.AgentBackend
	agentsMu sync.RWMutex

	// Cancellation signals for in-flight goals. A goal's entry is removed
	// when its dispatch goroutine exits.
	cancels   map[string]context.CancelFunc
	cancelsMu sync.Mutex
}

// New creates an Engine with optional overrides.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	b := bus.New(func(o *bus.Options) {
		o.Config = bus.Config{QueueSize: opts.Config.EventQueueSize, Overflow: opts.Config.Overflow}
		o.Logger = opts.Logger
	})

	e := &Engine{
		bus:     b,
		git:     opts.Git,
		logger:  opts.Logger,
		agents:  make(map[core.AgentID]core.AgentBackend),
		cancels: make(map[string]context.CancelFunc),
	}
	e.store = goal.NewStore(func(o *goal.Options) { o.Emitter = b })
	return e
}

// RegisterAgent makes an agent backend available under the given id. A
// later registration under the same id replaces the earlier one.
func (e *Engine) RegisterAgent(id core.AgentID, backend core.AgentBackend) {
	e.agentsMu.Lock()
	defer e.agentsMu.Unlock()
	e.agents[id] = backend
}

// agentBackend looks up the backend for an agent id.
func (e *Engine) agentBackend(id core.AgentID) (core.AgentBackend, bool) {
	e.agentsMu.RLock()
	defer e.agentsMu.RUnlock()
	b, ok := e.agents[id]
	return b, ok
}

// CreateGoal inserts a Pending goal for the task and starts asynchronous
// dispatch. The call returns as soon as the goal exists; execution progress
// is observable through SubscribeEvents and GoalStatus.
func (e *Engine) CreateGoal(task core.TaskDescriptor) core.Goal {
	g := e.store.Insert(task)
	e.dispatch(g)
	return g
}

// CreateGoalWithID behaves like CreateGoal under a caller-supplied id.
// Returns ErrConflict when the id is already taken.
func (e *Engine) CreateGoalWithID(id string, task core.TaskDescriptor) (core.Goal, error) {
	g, err := e.store.InsertWithID(id, task)
	if err != nil {
		return core.Goal{}, err
	}
	e.dispatch(g)
	return g, nil
}

// Submit routes one raw input line under the currently selected agent and
// creates the resulting goal. Empty input returns ErrEmptyInput; no goal
// and no event are produced. The selected agent is an explicit parameter on
// every call, never ambient engine state.
func (e *Engine) Submit(text string, agent core.AgentID) (core.Goal, error) {
	decision, err := router.Classify(text, agent)
	if err != nil {
		return core.Goal{}, err
	}
	return e.CreateGoal(decision.Task()), nil
}

// SubscribeEvents registers a consumer on the event bus. The subscription
// yields events indefinitely until the caller closes it. consumerMajor is
// checked against the current schema version; mismatch is the only
// rejection reason.
func (e *Engine) SubscribeEvents(consumerMajor int) (*bus.Subscription, error) {
	return e.bus.Subscribe(consumerMajor)
}

// GoalStatus returns a point-in-time snapshot of the goal.
func (e *Engine) GoalStatus(id string) (core.Goal, error) {
	return e.store.Get(id)
}

// CancelGoal requests cancellation of a goal. Cancellation is cooperative:
// the backend observes its context at the next safe checkpoint. If the goal
// is already terminal the existing terminal snapshot is returned without
// error, so calling CancelGoal twice is idempotent.
func (e *Engine) CancelGoal(id string) (core.Goal, error) {
	snap, err := e.store.Transition(id, core.StatusCancelled, nil)
	if errors.Is(err, core.ErrInvalidTransition) {
		// Already terminal: report the standing terminal state.
		return snap, nil
	}
	if err != nil {
		return core.Goal{}, err
	}

	// Signal the backend, if dispatch is still in flight.
	e.cancelsMu.Lock()
	cancel, ok := e.cancels[id]
	e.cancelsMu.Unlock()
	if ok {
		cancel()
	}

	e.logger.Info("goal cancelled", "goal_id", id)
	return snap, nil
}

// ReportProgress publishes a goal_progress event for a running goal. Used
// by external integrations that track long-running backend work.
func (e *Engine) ReportProgress(id, message string) error {
	return e.store.Progress(id, message)
}
