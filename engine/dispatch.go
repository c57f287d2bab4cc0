package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gitforge/gitforge/core"
)

// dispatch starts the asynchronous execution of a freshly inserted goal.
// The goroutine owns the goal's cancellation context; CancelGoal signals it
// through the cancels registry. Terminal races are resolved by the store:
// whichever transition lands first wins and the loser's report is ignored.
func (e *Engine) dispatch(g core.Goal) {
	ctx, cancel := context.WithCancel(context.Background())

	e.cancelsMu.Lock()
	e.cancels[g.ID] = cancel
	e.cancelsMu.Unlock()

	go func() {
		defer func() {
			cancel()
			e.cancelsMu.Lock()
			delete(e.cancels, g.ID)
			e.cancelsMu.Unlock()
		}()

		if _, err := e.store.Transition(g.ID, core.StatusRunning, nil); err != nil {
			// Cancelled before dispatch started; nothing to execute.
			return
		}

		output, err := e.execute(ctx, g.Task)

		switch {
		case ctx.Err() != nil:
			// Cancellation observed. The cancel path usually already moved
			// the goal to Cancelled; a failed transition here just means we
			// lost that race.
			if _, terr := e.store.Transition(g.ID, core.StatusCancelled, nil); terr != nil && !errors.Is(terr, core.ErrInvalidTransition) {
				e.logger.Error("goal cancel transition failed", "goal_id", g.ID, "error", terr)
			}
		case err != nil:
			// Backend failures are never synchronous errors: they surface
			// as a Failed goal plus a goal_failed event.
			if _, terr := e.store.Transition(g.ID, core.StatusFailed, &core.Result{Error: err.Error()}); terr != nil && !errors.Is(terr, core.ErrInvalidTransition) {
				e.logger.Error("goal fail transition failed", "goal_id", g.ID, "error", terr)
			}
		default:
			if _, terr := e.store.Transition(g.ID, core.StatusCompleted, &core.Result{Output: output}); terr != nil && !errors.Is(terr, core.ErrInvalidTransition) {
				e.logger.Error("goal complete transition failed", "goal_id", g.ID, "error", terr)
			}
		}
	}()
}

// execute runs the task against its backend. Dispatch over the backend kind
// goes through the capability interfaces, never through string matching on
// the raw input.
func (e *Engine) execute(ctx context.Context, task core.TaskDescriptor) (string, error) {
	switch task.Kind {
	case core.BackendGit:
		if e.git == nil {
			return "", fmt.Errorf("no git backend configured")
		}
		operation, args := splitGitArgs(task.Args)
		return e.git.Run(ctx, operation, args)

	case core.BackendAgent:
		backend, ok := e.agentBackend(task.Agent)
		if !ok {
			return "", fmt.Errorf("%w: %s", core.ErrUnknownAgent, task.Agent)
		}
		return backend.Execute(ctx, task.Agent, task.Args)

	default:
		return "", fmt.Errorf("unknown backend kind %q", task.Kind)
	}
}

// splitGitArgs separates the git operation from its arguments, e.g.
// "commit -m fix" -> ("commit", ["-m", "fix"]).
func splitGitArgs(args string) (string, []string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
