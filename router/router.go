// Package router classifies raw terminal input into an execution route.
// Classification is pure and deterministic: identical (text, agent) pairs
// always yield identical decisions, and no state is read beyond the
// arguments.
package router

import (
	"strings"

	"github.com/gitforge/gitforge/core"
)

// gitPrefix is matched case-sensitively against the trimmed input. The
// single trailing space is part of the contract: "gitk" or "git" alone are
// agent input, "git status" is a git route.
const gitPrefix = "git "

// Classify turns one input line and the currently selected agent into a
// route decision. Empty or all-whitespace input is rejected with
// ErrEmptyInput and produces neither a goal nor an event.
//
// Git routes ignore the selected agent for dispatch but record it on the
// decision for audit. Agent routes carry the full trimmed line as args.
func Classify(text string, agent core.AgentID) (core.RouteDecision, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return core.RouteDecision{}, core.ErrEmptyInput
	}

	if strings.HasPrefix(trimmed, gitPrefix) {
		return core.RouteDecision{
			Kind:    core.BackendGit,
			Agent:   agent,
			Command: trimmed,
			Args:    trimmed[len(gitPrefix):],
		}, nil
	}

	return core.RouteDecision{
		Kind:    core.BackendAgent,
		Agent:   agent,
		Command: trimmed,
		Args:    trimmed,
	}, nil
}
