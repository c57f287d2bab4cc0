package gitforge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge/gitforge/core"
)

func TestDefaultLocalAgent(t *testing.T) {
	f := New()

	sub, err := f.SubscribeEvents(core.SchemaVersion)
	require.NoError(t, err)
	defer sub.Close()

	g, err := f.Submit("summarize recent changes", core.AgentLocal)
	require.NoError(t, err)
	assert.Equal(t, core.BackendAgent, g.Task.Kind)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-sub.Events():
			if ev.GoalID != g.ID || ev.Kind != core.EventGoalCompleted {
				continue
			}
			assert.Contains(t, ev.Payload["output"], "local agent accepted input")
			return
		case <-deadline:
			t.Fatal("goal never completed")
		}
	}
}

func TestSubmitEmptyInputNoGoal(t *testing.T) {
	f := New()
	_, err := f.Submit("\t  ", core.AgentClaude)
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestCancelUnknownGoal(t *testing.T) {
	f := New()
	_, err := f.CancelGoal("missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
