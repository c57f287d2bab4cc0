package core

import "errors"

var (
	// ErrNotFound is returned when no goal exists for the given id.
	ErrNotFound = errors.New("goal not found")

	// ErrConflict is returned when a caller-supplied goal id collides with
	// an existing goal.
	ErrConflict = errors.New("goal already exists")

	// ErrInvalidTransition is returned when a requested status change
	// violates the goal state machine. It is not reachable from the external
	// operation surface; seeing it there indicates a store bug.
	ErrInvalidTransition = errors.New("invalid goal transition")

	// ErrSchemaVersionMismatch is returned when a consumer's supported major
	// version disagrees with an event's schema version.
	ErrSchemaVersionMismatch = errors.New("event schema version mismatch")

	// ErrEmptyInput is returned by the router for empty or all-whitespace
	// input. No goal and no event result from such input.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnknownAgent is returned when a task names an agent id with no
	// registered backend.
	ErrUnknownAgent = errors.New("unknown agent")
)
