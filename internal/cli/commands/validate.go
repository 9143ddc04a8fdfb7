package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/datatect/internal/engine"
)

// ValidateOptions holds options for the validate command that are not part
// of the shared configuration.
type ValidateOptions struct {
	Watch bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate JSON documents against a closed-world schema",
		Long: `Validate JSON document files against a schema.

The schema is hardened before use: every object type rejects properties it
does not declare and requires every property it does declare. Each file is
reported as PASSED or ERROR, followed by one line per error naming the
failing location as a JSON Pointer.

Files are checked in parallel. Unreadable or malformed files are reported as
errors and the remaining files are still checked.`,
		Example: `  # Validate files
  datatect validate -s schema.yaml doc1.json doc2.json

  # Fail the command (exit 1) when any file is invalid
  datatect validate -s schema.yaml --fail-on-error docs/*.json

  # Re-validate on every save
  datatect validate -s schema.yaml --watch doc.json

  # Record the run for later inspection with 'datatect history'
  datatect validate -s schema.yaml --report .datatect/report.db docs/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, opts)
		},
	}

	cmd.Flags().StringP("schema", "s", "", "Schema file (YAML or JSON)")
	cmd.Flags().Int("workers", 0, "Files validated in parallel (default: number of CPUs)")
	cmd.Flags().Bool("fail-on-error", false, "Exit with an error when any file fails validation")
	cmd.Flags().Bool("only-errors", false, "Only print files that fail validation")
	cmd.Flags().String("report", "", "Record the run in this SQLite report database")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-validate files whenever they change")

	return cmd
}

func runValidate(cmd *cobra.Command, paths []string, opts *ValidateOptions) error {
	if opts.Watch && cmd.Flags().Changed("report") {
		return errors.New("--watch cannot be combined with --report")
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, err := cc.NewEngine()
	if err != nil {
		return err
	}

	handle := func(res engine.FileResult) {
		if res.Passed() && cc.Cfg.OnlyErrors {
			return
		}
		cc.Renderer.FileResult(res.Path, res.Passed(), res.Messages())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if opts.Watch {
		return eng.Watch(ctx, paths, handle)
	}

	summary, err := eng.ValidateFiles(ctx, paths, handle)
	if err != nil {
		return err
	}

	cc.Renderer.ValidateSummary(summary.Passed, summary.Failed)
	if summary.RunID != "" {
		cc.Logger.Info("run recorded", slog.String("run_id", summary.RunID))
	}

	if cc.Cfg.FailOnError && summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", summary.Failed, summary.Passed+summary.Failed)
	}
	return nil
}
