// Package agent provides the AgentBackend implementations behind the
// selectable agent identifiers: the in-process local agent, the Anthropic
// Messages API adapter serving the claude id, and the OpenAI Chat
// Completions adapter serving the bgpt id (and cursor-style
// OpenAI-compatible endpoints via a custom base URL).
package agent
