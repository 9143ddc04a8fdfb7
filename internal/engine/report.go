package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/datatect/internal/state"
)

// recorder writes one run to the report store. Without a store every method
// is a no-op.
type recorder struct {
	store  state.Store
	run    *state.Run
	logger *slog.Logger
	err    error
}

func (e *Engine) startRun(ctx context.Context, command, source string) (*recorder, error) {
	rec := &recorder{store: e.store, logger: e.logger}
	if e.store == nil {
		return rec, nil
	}

	// Report writes are bookkeeping and outlive cancellation of the run.
	ctx = context.WithoutCancel(ctx)
	run, err := e.store.CreateRun(ctx, command, source, e.schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	rec.run = run
	e.logger.Debug("recording run", slog.String("id", run.ID), slog.String("command", command))
	return rec, nil
}

func (r *recorder) id() string {
	if r.run == nil {
		return ""
	}
	return r.run.ID
}

// failure records a failing document. Store errors are logged once and
// surfaced by finish; validation carries on.
func (r *recorder) failure(ctx context.Context, document string, errs []string) {
	if r.run == nil || r.err != nil {
		return
	}
	if err := r.store.RecordFailure(context.WithoutCancel(ctx), r.run.ID, document, errs); err != nil {
		r.logger.Warn("failed to record failure", slog.String("document", document), slog.String("error", err.Error()))
		r.err = err
	}
}

func (r *recorder) finish(ctx context.Context, validated, failures int, runErr error) error {
	if r.run == nil {
		return nil
	}

	status := state.RunStatusPassed
	var msg string
	switch {
	case runErr != nil:
		status = state.RunStatusAborted
		msg = runErr.Error()
	case failures > 0:
		status = state.RunStatusFailed
	}

	if err := r.store.CompleteRun(context.WithoutCancel(ctx), r.run.ID, status, validated, failures, msg); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if r.err != nil {
		return fmt.Errorf("report is incomplete: %w", r.err)
	}
	return nil
}
