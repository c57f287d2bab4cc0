package core

import "time"

// Status represents the lifecycle state of a goal. Transitions are
// monotonic: Pending -> Running -> {Completed, Failed, Cancelled}, with
// Cancelled additionally reachable directly from Pending. Once a goal is
// terminal no further transition is permitted.
type Status string

const (
	// StatusPending marks a goal that has been created but not yet picked
	// up by its backend.
	StatusPending Status = "pending"
	// StatusRunning marks a goal whose backend dispatch has started.
	StatusRunning Status = "running"
	// StatusCompleted marks a goal whose backend finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed marks a goal whose backend reported an error.
	StatusFailed Status = "failed"
	// StatusCancelled marks a goal cancelled before or during execution.
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final. Terminal goals are
// immutable; a late backend report against a terminal goal is ignored.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is a legal step of
// the goal state machine.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusCancelled
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	default:
		return false
	}
}

// BackendKind discriminates which backend executes a task.
type BackendKind string

const (
	// BackendGit routes the task to the Git backend.
	BackendGit BackendKind = "git"
	// BackendAgent routes the task to an AI agent backend.
	BackendAgent BackendKind = "agent"
)

// AgentID identifies one of the selectable agent backends.
type AgentID string

const (
	// AgentLocal is the in-process acknowledgement agent.
	AgentLocal AgentID = "local"
	// AgentClaude is the Anthropic-backed agent.
	AgentClaude AgentID = "claude"
	// AgentCursor is the cursor-style OpenAI-compatible agent.
	AgentCursor AgentID = "cursor"
	// AgentBGPT is the OpenAI-backed agent.
	AgentBGPT AgentID = "bgpt"
)

// TaskDescriptor describes the work behind a goal. Kind selects the backend;
// Agent is the agent identifier the route was made under. For git tasks the
// selected agent is recorded for audit only and never influences dispatch.
// Command holds the raw input line; Args the arguments derived from routing
// (the remainder after the "git " prefix for git tasks, the full trimmed
// line for agent tasks).
type TaskDescriptor struct {
	Kind    BackendKind `json:"kind"`
	Agent   AgentID     `json:"agent,omitempty"`
	Command string      `json:"command"`
	Args    string      `json:"args"`
}

// Result carries the terminal output of a goal. Output is set for completed
// goals; Error holds the backend error detail for failed ones.
type Result struct {
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Goal is a trackable unit of work created from one routed input line.
// Snapshots handed out by the store are value copies and safe to retain.
type Goal struct {
	ID        string         `json:"id"`
	Task      TaskDescriptor `json:"task"`
	Status    Status         `json:"status"`
	Result    *Result        `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
