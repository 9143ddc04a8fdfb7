// Package state records validation runs and the documents that failed them.
// Runs are kept in a local SQLite database so earlier results can be listed
// with the history command.
package state

import (
	"context"
	"time"
)

// RunStatus is the outcome of a run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusPassed  RunStatus = "passed"
	RunStatusFailed  RunStatus = "failed"
	// RunStatusAborted means the run stopped on a fatal error before every
	// document was checked.
	RunStatusAborted RunStatus = "aborted"
)

// Run is one invocation of validate or scan.
type Run struct {
	ID          string
	Command     string // "validate" or "scan"
	Source      string // file list or host/index
	Schema      string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Validated   int
	Failures    int
	Error       string
}

// Duration returns how long the run took, or zero while it is still running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Failure is a document that did not satisfy the schema.
type Failure struct {
	RunID    string
	Document string // file path or document _id
	Errors   []string
}

// Store persists runs and failures.
type Store interface {
	CreateRun(ctx context.Context, command, source, schema string) (*Run, error)
	RecordFailure(ctx context.Context, runID, document string, errs []string) error
	CompleteRun(ctx context.Context, id string, status RunStatus, validated, failures int, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	ListFailures(ctx context.Context, runID string) ([]Failure, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
