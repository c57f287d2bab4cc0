package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge/gitforge/core"
)

// Interface compliance (compile-time assertions)
var (
	_ core.AgentBackend = (*Local)(nil)
	_ core.AgentBackend = (*Anthropic)(nil)
	_ core.AgentBackend = (*OpenAI)(nil)
)

func TestLocalExecute(t *testing.T) {
	l := NewLocal("/repo")
	out, err := l.Execute(context.Background(), core.AgentLocal, "summarize the branch")
	require.NoError(t, err)
	assert.Contains(t, out, "local agent accepted input")
	assert.Contains(t, out, "/repo")
	assert.Contains(t, out, "summarize the branch")
}

func TestLocalHonorsCancelledContext(t *testing.T) {
	l := NewLocal("/repo")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Execute(ctx, core.AgentLocal, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}
