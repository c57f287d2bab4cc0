package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gitforge/gitforge/core"
	"github.com/gitforge/gitforge/router"
)

// Execute dispatches one request to its method handler. It never panics and
// never returns a transport error: every failure is a JSON-RPC error object
// so clients always get an answer they can correlate by id.
func (s *Server) Execute(ctx context.Context, req Request) Response {
	switch req.Method {
	case "tools/list":
		return okResponse(req, toolCatalog)
	case "git_status":
		return s.gitRun(ctx, req, "status", nil)
	case "git_commit":
		return s.gitCommit(ctx, req)
	case "git_create_pr":
		return s.createPR(req)
	case "prs_list":
		return s.listPRs(req)
	case "git_worktree_create":
		return s.worktreeCreate(ctx, req)
	case "git_worktree_list":
		return s.worktreeList(req)
	case "goal_create":
		return s.goalCreate(req)
	case "goal_status":
		return s.goalStatus(req)
	case "goal_cancel":
		return s.goalCancel(req)
	default:
		return errorResponse(req, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

// toolCatalog is the static tools/list answer advertising the callable
// surface to MCP clients.
var toolCatalog = []map[string]any{
	{
		"name":        "git_status",
		"description": "Show git repository status",
		"inputSchema": map[string]any{},
	},
	{
		"name":        "git_commit",
		"description": "Create commit from current index",
		"inputSchema": map[string]any{
			"type":       "object",
			"properties": map[string]any{"message": map[string]any{"type": "string"}},
			"required":   []string{"message"},
		},
	},
	{
		"name":        "git_create_pr",
		"description": "Create pull request metadata record",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{"type": "string"},
				"from":  map[string]any{"type": "string"},
				"to":    map[string]any{"type": "string"},
			},
			"required": []string{"title", "from", "to"},
		},
	},
	{
		"name":        "git_worktree_create",
		"description": "Create branch and register worktree record",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":   map[string]any{"type": "string"},
				"path":   map[string]any{"type": "string"},
				"branch": map[string]any{"type": "string"},
			},
			"required": []string{"name", "path", "branch"},
		},
	},
	{
		"name":        "git_worktree_list",
		"description": "List registered worktree records",
		"inputSchema": map[string]any{},
	},
	{
		"name":        "prs_list",
		"description": "List pull request records",
		"inputSchema": map[string]any{},
	},
	{
		"name":        "goal_create",
		"description": "Route an input line and create a trackable goal",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":    map[string]any{"type": "string"},
				"agent":   map[string]any{"type": "string"},
				"goal_id": map[string]any{"type": "string"},
			},
			"required": []string{"text", "agent"},
		},
	},
	{
		"name":        "goal_status",
		"description": "Snapshot a goal's current state",
		"inputSchema": map[string]any{
			"type":       "object",
			"properties": map[string]any{"goal_id": map[string]any{"type": "string"}},
			"required":   []string{"goal_id"},
		},
	},
	{
		"name":        "goal_cancel",
		"description": "Request cooperative cancellation of a goal",
		"inputSchema": map[string]any{
			"type":       "object",
			"properties": map[string]any{"goal_id": map[string]any{"type": "string"}},
			"required":   []string{"goal_id"},
		},
	},
	{
		"name":        "events/subscribe",
		"description": "Stream system events as JSON-RPC notifications",
		"inputSchema": map[string]any{
			"type":       "object",
			"properties": map[string]any{"schema_version": map[string]any{"type": "integer"}},
		},
	},
}

func (s *Server) gitRun(ctx context.Context, req Request, operation string, args []string) Response {
	if s.git == nil {
		return errorResponse(req, codeDomain, "no git backend configured")
	}
	out, err := s.git.Run(ctx, operation, args)
	if err != nil {
		return errorResponse(req, codeDomain, err.Error())
	}
	return okResponse(req, map[string]any{"success": true, "output": out})
}

func (s *Server) gitCommit(ctx context.Context, req Request) Response {
	var params struct {
		Message string `json:"message"`
	}
	if err := unmarshalParams(req, &params); err != nil {
		return errorResponse(req, codeInvalidParams, err.Error())
	}
	if params.Message == "" {
		return errorResponse(req, codeInvalidParams, "missing 'message'")
	}
	return s.gitRun(ctx, req, "commit", []string{"-m", params.Message})
}

func (s *Server) createPR(req Request) Response {
	var params struct {
		Title string `json:"title"`
		From  string `json:"from"`
		To    string `json:"to"`
	}
	if err := unmarshalParams(req, &params); err != nil {
		return errorResponse(req, codeInvalidParams, err.Error())
	}
	if params.Title == "" {
		return errorResponse(req, codeInvalidParams, "missing 'title'")
	}

	pr, err := s.records.CreatePR(params.Title, params.From, params.To)
	if err != nil {
		return errorResponse(req, codeDomain, err.Error())
	}
	return okResponse(req, map[string]any{"success": true, "pr": pr})
}

func (s *Server) listPRs(req Request) Response {
	prs, err := s.records.ListPRs()
	if err != nil {
		return errorResponse(req, codeDomain, err.Error())
	}
	return okResponse(req, map[string]any{"items": prs})
}

func (s *Server) worktreeCreate(ctx context.Context, req Request) Response {
	var params struct {
		Name   string `json:"name"`
		Path   string `json:"path"`
		Branch string `json:"branch"`
	}
	if err := unmarshalParams(req, &params); err != nil {
		return errorResponse(req, codeInvalidParams, err.Error())
	}
	if params.Name == "" || params.Path == "" || params.Branch == "" {
		return errorResponse(req, codeInvalidParams, "missing 'name', 'path' or 'branch'")
	}

	// Create the branch at HEAD unless it already exists.
	if s.git != nil {
		existing, err := s.git.Run(ctx, "branch", nil)
		if err != nil {
			return errorResponse(req, codeDomain, err.Error())
		}
		if !containsLine(existing, params.Branch) {
			if _, err := s.git.Run(ctx, "branch", []string{params.Branch}); err != nil {
				return errorResponse(req, codeDomain, err.Error())
			}
		}
	}

	wt, err := s.records.AddWorktree(params.Name, params.Path, params.Branch)
	if err != nil {
		return errorResponse(req, codeDomain, err.Error())
	}
	return okResponse(req, map[string]any{"success": true, "worktree": wt})
}

func (s *Server) worktreeList(req Request) Response {
	wts, err := s.records.ListWorktrees()
	if err != nil {
		return errorResponse(req, codeDomain, err.Error())
	}
	return okResponse(req, map[string]any{"items": wts})
}

func (s *Server) goalCreate(req Request) Response {
	var params struct {
		Text   string `json:"text"`
		Agent  string `json:"agent"`
		GoalID string `json:"goal_id"`
	}
	if err := unmarshalParams(req, &params); err != nil {
		return errorResponse(req, codeInvalidParams, err.Error())
	}

	decision, err := router.Classify(params.Text, core.AgentID(params.Agent))
	if err != nil {
		return errorResponse(req, codeInvalidParams, err.Error())
	}

	var g core.Goal
	if params.GoalID != "" {
		g, err = s.engine.CreateGoalWithID(params.GoalID, decision.Task())
		if errors.Is(err, core.ErrConflict) {
			return errorResponse(req, codeConflict, err.Error())
		}
		if err != nil {
			return errorResponse(req, codeDomain, err.Error())
		}
	} else {
		g = s.engine.CreateGoal(decision.Task())
	}
	return okResponse(req, map[string]any{"goal": g})
}

func (s *Server) goalStatus(req Request) Response {
	id, resp, ok := goalIDParam(req)
	if !ok {
		return resp
	}
	g, err := s.engine.GoalStatus(id)
	if errors.Is(err, core.ErrNotFound) {
		return errorResponse(req, codeNotFound, err.Error())
	}
	if err != nil {
		return errorResponse(req, codeDomain, err.Error())
	}
	return okResponse(req, map[string]any{"goal": g})
}

func (s *Server) goalCancel(req Request) Response {
	id, resp, ok := goalIDParam(req)
	if !ok {
		return resp
	}
	g, err := s.engine.CancelGoal(id)
	if errors.Is(err, core.ErrNotFound) {
		return errorResponse(req, codeNotFound, err.Error())
	}
	if err != nil {
		return errorResponse(req, codeDomain, err.Error())
	}
	return okResponse(req, map[string]any{"goal": g})
}

func goalIDParam(req Request) (string, Response, bool) {
	var params struct {
		GoalID string `json:"goal_id"`
	}
	if err := unmarshalParams(req, &params); err != nil {
		return "", errorResponse(req, codeInvalidParams, err.Error()), false
	}
	if params.GoalID == "" {
		return "", errorResponse(req, codeInvalidParams, "missing 'goal_id'"), false
	}
	return params.GoalID, Response{}, true
}

func unmarshalParams(req Request, v any) error {
	if len(req.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func containsLine(s, line string) bool {
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}
