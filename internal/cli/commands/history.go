package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/datatect/internal/cli/config"
	"github.com/leapstack-labs/datatect/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	RunID string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List validation runs recorded in the report database",
		Long: `List runs recorded by validate and scan with --report, newest first.

With --run, print the failing documents of a single run and the errors found
in each.`,
		Example: `  datatect history
  datatect history --limit 5 --report ci/report.db
  datatect history --run 3f2a9c4e-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().String("report", "", "Report database (default "+config.DefaultReport+")")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "Show the failures recorded for this run")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	if opts.Limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", opts.Limit)
	}

	cc, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return err
	}

	path := cc.Cfg.Report
	if path == "" {
		path = config.DefaultReport
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no report database at %s\nHint: record runs with --report %s", path, path)
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, path, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if opts.RunID != "" {
		run, err := store.GetRun(ctx, opts.RunID)
		if err != nil {
			return err
		}
		failures, err := store.ListFailures(ctx, run.ID)
		if err != nil {
			return err
		}
		if err := cc.Renderer.Runs([]*state.Run{run}); err != nil {
			return err
		}
		return cc.Renderer.RunFailures(failures)
	}

	runs, err := store.ListRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}
	return cc.Renderer.Runs(runs)
}
