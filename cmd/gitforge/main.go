// Command gitforge drives the GitForge workspace from the terminal: it can
// run the MCP tool server for external agent clients, submit a single input
// line through the router and await the result, and manage local PR and
// worktree records.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gitforge/gitforge"
	"github.com/gitforge/gitforge/backend/agent"
	gitbackend "github.com/gitforge/gitforge/backend/git"
	"github.com/gitforge/gitforge/core"
	"github.com/gitforge/gitforge/engine"
	"github.com/gitforge/gitforge/forge"
	"github.com/gitforge/gitforge/logging"
	"github.com/gitforge/gitforge/mcp"
)

var (
	repoPath string
	verbose  bool
)

func main() {
	root := &cobra.Command{
		Use:   "gitforge",
		Short: "Forge your Git workflow",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; API keys may come from the environment.
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVar(&repoPath, "repo", ".", "repository path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(serveCmd(), submitCmd(), prCmd(), worktreeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() logging.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logging.NewTextLogger(os.Stderr, level)
}

// newForge assembles the façade with every agent backend that has
// credentials available.
func newForge(logger logging.Logger) *gitforge.Forge {
	agents := map[core.AgentID]core.AgentBackend{
		core.AgentLocal: agent.NewLocal(repoPath),
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		agents[core.AgentClaude] = agent.NewAnthropic(func(o *agent.AnthropicOptions) {
			o.APIKey = key
		})
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		agents[core.AgentBGPT] = agent.NewOpenAI(func(o *agent.OpenAIOptions) {
			o.APIKey = key
		})
	}
	if base := os.Getenv("CURSOR_BASE_URL"); base != "" {
		agents[core.AgentCursor] = agent.NewOpenAI(func(o *agent.OpenAIOptions) {
			o.APIKey = os.Getenv("CURSOR_API_KEY")
			o.BaseURL = base
		})
	}

	return gitforge.New(func(o *gitforge.Options) {
		o.RepoPath = repoPath
		o.Agents = agents
		o.Logger = logger
		o.EngineConfig = engine.DefaultConfig
	})
}

func openRecords() (*forge.RecordStore, error) {
	return forge.OpenRecordStore(filepath.Join(repoPath, "gitforge.db"))
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server for Claude/Cursor/GPT clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			f := newForge(logger)

			records, err := openRecords()
			if err != nil {
				return err
			}
			defer records.Close()

			git := gitbackend.New(repoPath, func(o *gitbackend.Options) { o.Logger = logger })
			server := mcp.NewServer(f.Engine(), git, records, func(o *mcp.Options) {
				o.Logger = logger
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:6767", "listen address")
	return cmd
}

func submitCmd() *cobra.Command {
	var agentID string
	cmd := &cobra.Command{
		Use:   "submit [input line]",
		Short: "Route one input line and await the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			f := newForge(logger)

			sub, err := f.SubscribeEvents(core.SchemaVersion)
			if err != nil {
				return err
			}
			defer sub.Close()

			g, err := f.Submit(strings.Join(args, " "), core.AgentID(agentID))
			if err != nil {
				return err
			}
			fmt.Printf("goal %s (%s)\n", g.ID, g.Task.Kind)

			for ev := range sub.Events() {
				if ev.GoalID != g.ID {
					continue
				}
				switch ev.Kind {
				case core.EventGoalProgress:
					fmt.Printf("... %v\n", ev.Payload["message"])
				case core.EventGoalCompleted:
					fmt.Printf("%v\n", ev.Payload["output"])
					return nil
				case core.EventGoalFailed:
					return fmt.Errorf("goal failed: %v", ev.Payload["error"])
				case core.EventGoalCancelled:
					return fmt.Errorf("goal cancelled")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", string(core.AgentLocal), "selected agent (local|claude|cursor|bgpt)")
	return cmd
}

func prCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Manage local pull request records",
	}

	var from, to string
	create := &cobra.Command{
		Use:   "create [title]",
		Short: "Record a pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := openRecords()
			if err != nil {
				return err
			}
			defer records.Close()

			pr, err := records.CreatePR(args[0], from, to)
			if err != nil {
				return err
			}
			fmt.Printf("PR #%d: %s (%s -> %s)\n", pr.ID, pr.Title, pr.From, pr.To)
			return nil
		},
	}
	create.Flags().StringVar(&from, "from", "", "source branch")
	create.Flags().StringVar(&to, "to", "", "target branch")

	list := &cobra.Command{
		Use:   "list",
		Short: "List pull request records",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := openRecords()
			if err != nil {
				return err
			}
			defer records.Close()

			prs, err := records.ListPRs()
			if err != nil {
				return err
			}
			for _, pr := range prs {
				fmt.Printf("#%d [%s] %s (%s -> %s)\n", pr.ID, pr.State, pr.Title, pr.From, pr.To)
			}
			return nil
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func worktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktree",
		Short: "Manage worktree records",
	}

	var path, branch string
	create := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a branch and register a worktree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := openRecords()
			if err != nil {
				return err
			}
			defer records.Close()

			name := args[0]
			if path == "" {
				path = filepath.Join(repoPath, ".worktrees", name)
			}
			if branch == "" {
				branch = name
			}

			git := gitbackend.New(repoPath)
			if _, err := git.Run(cmd.Context(), "branch", []string{branch}); err != nil {
				return err
			}
			wt, err := records.AddWorktree(name, path, branch)
			if err != nil {
				return err
			}
			fmt.Printf("worktree %s at %s on %s\n", wt.Name, wt.Path, wt.Branch)
			return nil
		},
	}
	create.Flags().StringVar(&path, "path", "", "worktree path")
	create.Flags().StringVar(&branch, "branch", "", "branch name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List worktree records",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := openRecords()
			if err != nil {
				return err
			}
			defer records.Close()

			wts, err := records.ListWorktrees()
			if err != nil {
				return err
			}
			for _, wt := range wts {
				fmt.Printf("%s\t%s\t%s\n", wt.Name, wt.Branch, wt.Path)
			}
			return nil
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}
