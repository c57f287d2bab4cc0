package agent

import (
	"context"
	"fmt"

	"github.com/gitforge/gitforge/core"
)

// Local is the in-process agent: it acknowledges the command without
// calling any external model. It keeps the workspace usable offline and is
// the default backend for the "local" agent id.
type Local struct {
	workspace string
}

// NewLocal creates a Local agent labeled with the workspace it serves.
func NewLocal(workspace string) *Local {
	return &Local{workspace: workspace}
}

// Execute acknowledges the command. The context is honored so a cancelled
// goal never produces output.
func (l *Local) Execute(ctx context.Context, agent core.AgentID, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s agent accepted input for '%s': %s", agent, l.workspace, command), nil
}
