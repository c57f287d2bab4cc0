package core

import "context"

// GitBackend performs a git operation against a repository. Implementations
// observe ctx at safe checkpoints; cancellation is cooperative, so an
// operation that has already produced its result may still return it.
type GitBackend interface {
	// Run executes the named operation (status, commit, log, ...) with its
	// arguments and returns the textual output.
	Run(ctx context.Context, operation string, args []string) (string, error)
}

// AgentBackend executes a free-form command through an AI agent. The agent
// id is passed through so multiplexing implementations can serve several
// identifiers.
type AgentBackend interface {
	Execute(ctx context.Context, agent AgentID, command string) (string, error)
}
