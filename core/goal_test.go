package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestStatusCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusCancelled, true},
		{StatusRunning, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusFailed, StatusRunning, false},
		{StatusCancelled, StatusCompleted, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestRouteDecisionTask(t *testing.T) {
	d := RouteDecision{Kind: BackendGit, Agent: AgentClaude, Command: "git status", Args: "status"}
	task := d.Task()
	assert.Equal(t, BackendGit, task.Kind)
	assert.Equal(t, AgentClaude, task.Agent)
	assert.Equal(t, "git status", task.Command)
	assert.Equal(t, "status", task.Args)
}
