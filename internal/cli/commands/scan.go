package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/datatect/internal/engine"
	"github.com/leapstack-labs/datatect/pkg/elastic"
	"github.com/leapstack-labs/datatect/pkg/schema"
)

// ScanOptions holds options for the scan command that are not part of the
// shared configuration.
type ScanOptions struct {
	Details bool
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Validate every document in a search index",
		Long: `Scroll through every document of a search index and validate its _source
against a closed-world schema.

A running count is printed every --progress-every documents. At the end the
total is printed followed by the _id of every failing document. Network and
protocol errors abort the scan immediately; invalid documents never do.

The host and index default to ES_HOST and ES_INDEX from the environment or a
.env file in the working directory.`,
		Example: `  # Scan using ES_HOST and ES_INDEX from .env
  datatect scan -s schema.yaml

  # Scan an explicit index and show why each document failed
  datatect scan -s schema.yaml --host http://localhost:9200 --index events --details

  # Only print failures
  datatect scan -s schema.yaml --only-errors`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, opts)
		},
	}

	cmd.Flags().StringP("schema", "s", "", "Schema file (YAML or JSON)")
	cmd.Flags().String("host", "", "Search backend root URL (default: $ES_HOST)")
	cmd.Flags().StringP("index", "i", "", "Index to scan (default: $ES_INDEX)")
	cmd.Flags().Bool("only-errors", false, "Only print failures and the summary")
	cmd.Flags().Int("page-size", 0, "Documents per scroll page (default 100)")
	cmd.Flags().String("scroll-keepalive", "", "How long the backend keeps the cursor alive (default 1m)")
	cmd.Flags().Duration("timeout", 0, "Timeout for each request (default 30s)")
	cmd.Flags().Int("progress-every", 0, "Print a running count every N documents (default 1000)")
	cmd.Flags().String("username", "", "Basic auth username")
	cmd.Flags().String("password", "", "Basic auth password")
	cmd.Flags().String("api-key", "", "API key, sent instead of basic auth")
	cmd.Flags().Bool("fail-on-error", false, "Exit with an error when any document fails validation")
	cmd.Flags().String("report", "", "Record the run in this SQLite report database")
	cmd.Flags().BoolVar(&opts.Details, "details", false, "Print the errors of each failing document as it is found")

	return cmd
}

func runScan(cmd *cobra.Command, opts *ScanOptions) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateScan(); err != nil {
		return err
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

	if cfg.APIKey != "" && cfg.Username != "" {
		cc.Renderer.Warning("both an API key and a username are set; authenticating with the API key")
	}

	client := elastic.New(elastic.Config{
		KeepAlive: cfg.ScrollKeepAlive,
		Timeout:   cfg.Timeout,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Logger:    cc.Logger,
	})

	var hooks engine.ScanHooks
	if !cfg.OnlyErrors {
		hooks.Progress = cc.Renderer.Progress
	}
	if opts.Details {
		hooks.Failure = func(id string, errs []schema.ValidationError) {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			cc.Renderer.ScanFailure(id, msgs)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	target := engine.ScanTarget{Host: cfg.Host, Index: cfg.Index, PageSize: cfg.PageSize}
	cc.Logger.Debug("starting scan", slog.String("target", target.String()), slog.Int("page_size", cfg.PageSize))

	res, err := eng.Scan(ctx, client, target, hooks)
	if err != nil {
		return fmt.Errorf("scan of %s aborted after %d documents: %w", target, res.Validated, err)
	}

	cc.Renderer.ScanSummary(res.Validated, res.Failures)
	if res.RunID != "" {
		cc.Logger.Info("run recorded", slog.String("run_id", res.RunID))
	}

	if cfg.FailOnError && len(res.Failures) > 0 {
		return fmt.Errorf("%d of %d documents failed validation", len(res.Failures), res.Validated)
	}
	return nil
}
