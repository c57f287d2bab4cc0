package core

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current major version of the SystemEvent wire
// contract. Adding an event kind is additive and never bumps it; removing or
// redefining one does.
const SchemaVersion = 1

// EventKind tags the variant of a SystemEvent. Consumers must tolerate
// kinds unknown to them at build time within the same major version.
type EventKind string

const (
	// EventGoalCreated is emitted when a goal is inserted into the store.
	EventGoalCreated EventKind = "goal_created"
	// EventGoalStarted is emitted when backend dispatch begins.
	EventGoalStarted EventKind = "goal_started"
	// EventGoalProgress carries an intermediate progress message.
	EventGoalProgress EventKind = "goal_progress"
	// EventGoalCompleted is emitted when a backend finishes successfully.
	EventGoalCompleted EventKind = "goal_completed"
	// EventGoalFailed is emitted when a backend reports an error.
	EventGoalFailed EventKind = "goal_failed"
	// EventGoalCancelled is emitted when a goal is cancelled.
	EventGoalCancelled EventKind = "goal_cancelled"
)

// SystemEvent is a versioned notification describing a goal state change or
// an engine-wide occurrence. After emission it must be treated as immutable.
// GoalID is empty for engine-wide events. Payload is variant specific;
// unknown payload fields are never an error for consumers.
type SystemEvent struct {
	SchemaVersion int            `json:"schema_version"`
	ID            string         `json:"id"`
	Kind          EventKind      `json:"type"`
	GoalID        string         `json:"goal_id,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// NewEvent creates a bare event of the given kind stamped with the current
// schema version and a fresh id. Prefer the kind-specific constructors.
func NewEvent(kind EventKind, goalID string) SystemEvent {
	return SystemEvent{
		SchemaVersion: SchemaVersion,
		ID:            NewID(),
		Kind:          kind,
		GoalID:        goalID,
		Timestamp:     time.Now().UTC(),
	}
}

// NewGoalCreatedEvent records the creation of a goal together with its task.
func NewGoalCreatedEvent(goalID string, task TaskDescriptor) SystemEvent {
	ev := NewEvent(EventGoalCreated, goalID)
	ev.Payload = map[string]any{
		"kind":    string(task.Kind),
		"agent":   string(task.Agent),
		"command": task.Command,
		"args":    task.Args,
	}
	return ev
}

// NewGoalStartedEvent records that backend dispatch for a goal has begun.
func NewGoalStartedEvent(goalID string) SystemEvent {
	return NewEvent(EventGoalStarted, goalID)
}

// NewGoalProgressEvent carries an intermediate message for a running goal.
func NewGoalProgressEvent(goalID, message string) SystemEvent {
	ev := NewEvent(EventGoalProgress, goalID)
	ev.Payload = map[string]any{"message": message}
	return ev
}

// NewGoalCompletedEvent records successful completion with backend output.
func NewGoalCompletedEvent(goalID, output string) SystemEvent {
	ev := NewEvent(EventGoalCompleted, goalID)
	ev.Payload = map[string]any{"output": output}
	return ev
}

// NewGoalFailedEvent records a backend failure with its error detail.
func NewGoalFailedEvent(goalID, errDetail string) SystemEvent {
	ev := NewEvent(EventGoalFailed, goalID)
	ev.Payload = map[string]any{"error": errDetail}
	return ev
}

// NewGoalCancelledEvent records cancellation of a goal.
func NewGoalCancelledEvent(goalID string) SystemEvent {
	return NewEvent(EventGoalCancelled, goalID)
}

// NewID generates a unique identifier for goals and events.
func NewID() string { return uuid.NewString() }
