// Package git implements the engine's GitBackend capability on top of
// go-git, operating directly on a repository path without shelling out.
package git

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gitforge/gitforge/logging"
)

// defaultLogLimit bounds the commits returned by the log operation when no
// count argument is given.
const defaultLogLimit = 10

// Options configures a Backend.
type Options struct {
	// AuthorName/AuthorEmail sign commits when the repository config has no
	// identity of its own.
	AuthorName  string
	AuthorEmail string
	Logger      logging.Logger
}

// Backend runs git operations against a single repository. Cancellation is
// cooperative: the context is checked before and between repository steps,
// so an operation that has already produced its result still returns it.
type Backend struct {
	path   string
	opts   Options
	logger logging.Logger
}

// New creates a Backend for the repository at path.
func New(path string, optFns ...func(o *Options)) *Backend {
	opts := Options{
		AuthorName:  "GitForge",
		AuthorEmail: "forge@gitforge.dev",
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Backend{path: path, opts: opts, logger: opts.Logger}
}

// Run dispatches the named operation. Supported operations: status, add,
// commit, log, branch. Unknown operations return an error.
func (b *Backend) Run(ctx context.Context, operation string, args []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	repo, err := gogit.PlainOpen(b.path)
	if err != nil {
		return "", fmt.Errorf("open repository %s: %w", b.path, err)
	}

	switch operation {
	case "status":
		return b.status(ctx, repo)
	case "add":
		return b.add(ctx, repo, args)
	case "commit":
		return b.commit(ctx, repo, args)
	case "log":
		return b.log(ctx, repo, args)
	case "branch":
		return b.branch(ctx, repo, args)
	default:
		return "", fmt.Errorf("unsupported git operation %q", operation)
	}
}

func (b *Backend) status(ctx context.Context, repo *gogit.Repository) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("status: %w", err)
	}
	if status.IsClean() {
		return "working tree clean", nil
	}

	paths := make([]string, 0, len(status))
	for path := range status {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, path := range paths {
		st := status[path]
		fmt.Fprintf(&sb, "%c%c %s\n", byte(st.Staging), byte(st.Worktree), path)
	}
	return sb.String(), nil
}

func (b *Backend) add(ctx context.Context, repo *gogit.Repository, args []string) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := wt.AddGlob(pattern); err != nil {
			return "", fmt.Errorf("add %s: %w", pattern, err)
		}
	}
	return fmt.Sprintf("staged %s", strings.Join(patterns, " ")), nil
}

func (b *Backend) commit(ctx context.Context, repo *gogit.Repository, args []string) (string, error) {
	message := commitMessage(args)
	if message == "" {
		return "", fmt.Errorf("commit requires a message (-m)")
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  b.opts.AuthorName,
			Email: b.opts.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	b.logger.Info("commit created", "hash", hash.String())
	return fmt.Sprintf("[%s] %s", hash.String()[:7], message), nil
}

func (b *Backend) log(ctx context.Context, repo *gogit.Repository, args []string) (string, error) {
	limit := defaultLogLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(strings.TrimPrefix(args[0], "-"))
		if err != nil || n <= 0 {
			return "", fmt.Errorf("invalid log count %q", args[0])
		}
		limit = n
	}

	iter, err := repo.Log(&gogit.LogOptions{})
	if err != nil {
		return "", fmt.Errorf("log: %w", err)
	}
	defer iter.Close()

	var sb strings.Builder
	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if count >= limit {
			return fmt.Errorf("done")
		}
		fmt.Fprintf(&sb, "%s %s\n", c.Hash.String()[:7], firstLine(c.Message))
		count++
		return nil
	})
	if err != nil && err.Error() != "done" {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("log: %w", err)
	}
	return sb.String(), nil
}

// branch lists local branches with no arguments, or creates a branch at
// HEAD when a name is given (mirroring "git branch <name>").
func (b *Backend) branch(ctx context.Context, repo *gogit.Repository, args []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(args) == 0 {
		iter, err := repo.Branches()
		if err != nil {
			return "", fmt.Errorf("branches: %w", err)
		}
		defer iter.Close()

		var names []string
		if err := iter.ForEach(func(ref *plumbing.Reference) error {
			names = append(names, ref.Name().Short())
			return nil
		}); err != nil {
			return "", fmt.Errorf("branches: %w", err)
		}
		sort.Strings(names)
		return strings.Join(names, "\n"), nil
	}

	name := args[0]
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	if err := repo.Storer.SetReference(ref); err != nil {
		return "", fmt.Errorf("create branch %s: %w", name, err)
	}
	return fmt.Sprintf("branch %s created at %s", name, head.Hash().String()[:7]), nil
}

// commitMessage extracts the message from commit arguments, accepting both
// "-m msg words" and a bare message.
func commitMessage(args []string) string {
	for i, arg := range args {
		if arg == "-m" && i+1 < len(args) {
			return strings.Join(args[i+1:], " ")
		}
	}
	return strings.Join(args, " ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
