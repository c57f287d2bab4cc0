// Package gitforge provides a high-level façade over the core engine and
// its collaborators (goal store, event bus, router, backends) so a terminal
// workspace can be assembled in a few lines:
//  1. Create a Forge via New() (optionally pointing it at a repository and
//     registering agent backends)
//  2. Submit raw input lines under the currently selected agent
//  3. Observe progress through SubscribeEvents / GoalStatus, cancel with
//     CancelGoal
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. Defaults are safe for local development: an
// in-process local agent, no logging, in-memory goal state.
package gitforge

import (
	"github.com/gitforge/gitforge/backend/agent"
	gitbackend "github.com/gitforge/gitforge/backend/git"
	"github.com/gitforge/gitforge/bus"
	"github.com/gitforge/gitforge/core"
	"github.com/gitforge/gitforge/engine"
	"github.com/gitforge/gitforge/logging"
)

// Options configures the Forge instance.
type Options struct {
	// EngineConfig tunes event queue capacity and overflow policy.
	EngineConfig engine.Config

	// RepoPath enables the go-git backend against this repository. Ignored
	// when Git is set explicitly.
	RepoPath string

	// Git overrides the git backend entirely.
	Git core.GitBackend

	// Agents maps agent ids to backends. The local agent is always
	// registered as a fallback for core.AgentLocal unless overridden here.
	Agents map[core.AgentID]core.AgentBackend

	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Forge is the high-level façade aggregating the engine and its backends.
type Forge struct {
	opts   Options
	engine *engine.Engine
}

// New creates a Forge with optional overrides.
func New(optFns ...func(o *Options)) *Forge {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	git := opts.Git
	if git == nil && opts.RepoPath != "" {
		git = gitbackend.New(opts.RepoPath, func(o *gitbackend.Options) { o.Logger = opts.Logger })
	}

	e := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Git = git
		o.Logger = opts.Logger
	})

	if _, ok := opts.Agents[core.AgentLocal]; !ok {
		e.RegisterAgent(core.AgentLocal, agent.NewLocal(opts.RepoPath))
	}
	for id, backend := range opts.Agents {
		e.RegisterAgent(id, backend)
	}

	return &Forge{opts: opts, engine: e}
}

// Engine exposes the underlying engine for integrations that need the full
// operation surface (e.g. the MCP server).
func (f *Forge) Engine() *engine.Engine { return f.engine }

// RegisterAgent adds or replaces an agent backend.
func (f *Forge) RegisterAgent(id core.AgentID, backend core.AgentBackend) {
	f.engine.RegisterAgent(id, backend)
}

// Submit routes one input line under the selected agent and creates the
// resulting goal.
func (f *Forge) Submit(text string, agentID core.AgentID) (core.Goal, error) {
	return f.engine.Submit(text, agentID)
}

// CreateGoal creates a goal for an already-built task descriptor.
func (f *Forge) CreateGoal(task core.TaskDescriptor) core.Goal {
	return f.engine.CreateGoal(task)
}

// CreateGoalWithID creates a goal under a caller-supplied id, returning
// ErrConflict on collision.
func (f *Forge) CreateGoalWithID(id string, task core.TaskDescriptor) (core.Goal, error) {
	return f.engine.CreateGoalWithID(id, task)
}

// SubscribeEvents opens an event subscription for a consumer supporting the
// given major schema version.
func (f *Forge) SubscribeEvents(consumerMajor int) (*bus.Subscription, error) {
	return f.engine.SubscribeEvents(consumerMajor)
}

// GoalStatus returns a snapshot of the goal.
func (f *Forge) GoalStatus(id string) (core.Goal, error) {
	return f.engine.GoalStatus(id)
}

// CancelGoal requests cooperative cancellation of a goal.
func (f *Forge) CancelGoal(id string) (core.Goal, error) {
	return f.engine.CancelGoal(id)
}
