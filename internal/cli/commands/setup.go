package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/datatect/internal/cli/config"
	"github.com/leapstack-labs/datatect/internal/cli/output"
	"github.com/leapstack-labs/datatect/internal/engine"
	"github.com/leapstack-labs/datatect/internal/state"
	"github.com/leapstack-labs/datatect/pkg/schema"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	// Store is nil unless a report path is configured.
	Store state.Store
}

// NewCommandContext creates a CommandContext, opening the report store when
// one is configured. The cleanup function must be called (typically via
// defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if cc.Cfg.Report != "" {
		store, err := openStore(cmd.Context(), cc.Cfg.Report, cc.Logger)
		if err != nil {
			return nil, nil, err
		}
		cc.Store = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				cc.Renderer.Warning(fmt.Sprintf("failed to close report %s: %v", cc.Cfg.Report, err))
			}
		}
	}

	return cc, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without a report
// store. Useful for commands that never record runs.
func NewCommandContextWithoutStore(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}, nil
}

// NewEngine loads and compiles the configured schema and builds an engine
// around it.
func (c *CommandContext) NewEngine() (*engine.Engine, error) {
	if err := c.Cfg.ValidateSchema(); err != nil {
		return nil, err
	}
	validator, err := loadValidator(c.Cfg.Schema)
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Checker:       validator,
		SchemaPath:    c.Cfg.Schema,
		Workers:       c.Cfg.Workers,
		ProgressEvery: c.Cfg.ProgressEvery,
		Store:         c.Store,
		Logger:        c.Logger,
	})
}

// Helper functions shared across commands

// getConfig returns the configuration loaded by the root command, or loads it
// from the command's own flags when the command runs on its own.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", cmd.Flags())
}

func loadValidator(path string) (*schema.Validator, error) {
	node, err := schema.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return schema.New(node)
}

func openStore(ctx context.Context, path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	// Ensure report directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(ctx, path); err != nil {
		return nil, fmt.Errorf("failed to open report %s: %w", path, err)
	}
	return store, nil
}
