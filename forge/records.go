// Package forge keeps the workspace's pull request and worktree records in
// a SQLite database next to the repository. These records are workspace
// metadata, not engine state: goals and events stay in memory, while PR and
// worktree bookkeeping survives restarts.
package forge

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS prs (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	from_branch TEXT,
	to_branch TEXT,
	state TEXT DEFAULT 'open',
	created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS worktrees (
	id INTEGER PRIMARY KEY,
	name TEXT UNIQUE,
	path TEXT,
	branch TEXT,
	created_at TEXT DEFAULT CURRENT_TIMESTAMP
);`

// PullRequest is a locally tracked pull request record.
type PullRequest struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	From      string `json:"from"`
	To        string `json:"to"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
}

// Worktree is a registered worktree record.
type Worktree struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Branch    string `json:"branch"`
	CreatedAt string `json:"created_at"`
}

// RecordStore wraps the SQLite database holding PR and worktree records.
// database/sql serializes access, so the store is safe for concurrent use.
type RecordStore struct {
	db *sql.DB
}

// OpenRecordStore opens (creating if necessary) the record database at path
// and ensures the schema exists.
func OpenRecordStore(path string) (*RecordStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open record db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize record db: %w", err)
	}
	return &RecordStore{db: db}, nil
}

// Close releases the database handle.
func (s *RecordStore) Close() error { return s.db.Close() }

// CreatePR inserts an open pull request record.
func (s *RecordStore) CreatePR(title, from, to string) (PullRequest, error) {
	if title == "" {
		return PullRequest{}, fmt.Errorf("pr title must not be empty")
	}
	if from == "" {
		from = "feature"
	}
	if to == "" {
		to = "main"
	}

	res, err := s.db.Exec(
		"INSERT INTO prs (title, from_branch, to_branch) VALUES (?, ?, ?)",
		title, from, to,
	)
	if err != nil {
		return PullRequest{}, fmt.Errorf("save pr: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return PullRequest{}, fmt.Errorf("pr id: %w", err)
	}
	return PullRequest{
		ID:        id,
		Title:     title,
		From:      from,
		To:        to,
		State:     "open",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ListPRs returns all pull request records, newest first.
func (s *RecordStore) ListPRs() ([]PullRequest, error) {
	rows, err := s.db.Query(
		"SELECT id, title, from_branch, to_branch, state, created_at FROM prs ORDER BY id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list prs: %w", err)
	}
	defer rows.Close()

	var prs []PullRequest
	for rows.Next() {
		var pr PullRequest
		if err := rows.Scan(&pr.ID, &pr.Title, &pr.From, &pr.To, &pr.State, &pr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pr: %w", err)
		}
		prs = append(prs, pr)
	}
	return prs, rows.Err()
}

// AddWorktree registers (or re-registers) a worktree by name.
func (s *RecordStore) AddWorktree(name, path, branch string) (Worktree, error) {
	if name == "" || path == "" || branch == "" {
		return Worktree{}, fmt.Errorf("worktree name, path and branch are required")
	}

	res, err := s.db.Exec(
		"INSERT OR REPLACE INTO worktrees (name, path, branch) VALUES (?, ?, ?)",
		name, path, branch,
	)
	if err != nil {
		return Worktree{}, fmt.Errorf("register worktree: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Worktree{}, fmt.Errorf("worktree id: %w", err)
	}
	return Worktree{
		ID:        id,
		Name:      name,
		Path:      path,
		Branch:    branch,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ListWorktrees returns all registered worktrees, newest first.
func (s *RecordStore) ListWorktrees() ([]Worktree, error) {
	rows, err := s.db.Query(
		"SELECT id, name, path, branch, created_at FROM worktrees ORDER BY id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}
	defer rows.Close()

	var wts []Worktree
	for rows.Next() {
		var wt Worktree
		if err := rows.Scan(&wt.ID, &wt.Name, &wt.Path, &wt.Branch, &wt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan worktree: %w", err)
		}
		wts = append(wts, wt)
	}
	return wts, rows.Err()
}
