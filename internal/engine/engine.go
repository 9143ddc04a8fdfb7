// Package engine runs validation jobs: a set of document files checked in
// parallel, or every document behind a scroll cursor checked in stream order.
// Results can be recorded in a report store.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/leapstack-labs/datatect/internal/state"
	"github.com/leapstack-labs/datatect/pkg/schema"
)

// DefaultProgressEvery is how many scanned documents pass between progress
// callbacks.
const DefaultProgressEvery = 1000

// Checker validates one decoded document. *schema.Validator implements it.
type Checker interface {
	Validate(doc any) []schema.ValidationError
}

// Engine runs validation jobs against a single compiled schema.
type Engine struct {
	checker       Checker
	schemaPath    string
	workers       int
	progressEvery int
	store         state.Store
	logger        *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Checker validates documents. Required.
	Checker Checker
	// SchemaPath is recorded with every run in the report store.
	SchemaPath string
	// Workers bounds concurrent file validation. Zero means runtime.NumCPU().
	Workers int
	// ProgressEvery is the scan progress interval. Zero means DefaultProgressEvery.
	ProgressEvery int
	// Store receives run reports (optional).
	Store state.Store
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine from cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Checker == nil {
		return nil, errors.New("engine: a checker is required")
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("engine: workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.ProgressEvery < 0 {
		return nil, fmt.Errorf("engine: progress interval must not be negative, got %d", cfg.ProgressEvery)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	progressEvery := cfg.ProgressEvery
	if progressEvery == 0 {
		progressEvery = DefaultProgressEvery
	}

	return &Engine{
		checker:       cfg.Checker,
		schemaPath:    cfg.SchemaPath,
		workers:       workers,
		progressEvery: progressEvery,
		store:         cfg.Store,
		logger:        logger,
	}, nil
}

// Workers returns the effective worker count.
func (e *Engine) Workers() int { return e.workers }

// errorStrings renders validation errors the way they are printed.
func errorStrings(errs []schema.ValidationError) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
