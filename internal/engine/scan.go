package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/datatect/pkg/schema"
	"github.com/leapstack-labs/datatect/pkg/scroll"
)

// ScanTarget names the index to scan.
type ScanTarget struct {
	Host     string
	Index    string
	PageSize int
}

func (t ScanTarget) String() string {
	return strings.TrimRight(t.Host, "/") + "/" + t.Index
}

// ScanHooks receive scan events as they happen. Both are optional.
type ScanHooks struct {
	// Progress is called after every ProgressEvery documents.
	Progress func(validated, failures int)
	// Failure is called for each document that does not satisfy the schema.
	Failure func(id string, errs []schema.ValidationError)
}

// ScanResult summarizes a scan. Failures holds the _id of every failing
// document in stream order.
type ScanResult struct {
	RunID     string
	Validated int
	Failures  []string
}

// Scan validates the _source of every document behind a scroll cursor. Any
// protocol or network error aborts the scan; the partial result is returned
// with the error. The cursor is released on return when the client supports
// it.
func (e *Engine) Scan(ctx context.Context, client scroll.Client, target ScanTarget, hooks ScanHooks) (ScanResult, error) {
	rec, err := e.startRun(ctx, "scan", target.String())
	if err != nil {
		return ScanResult{}, err
	}

	start := time.Now()
	res := ScanResult{RunID: rec.id()}

	it := scroll.New(client, target.Host, target.Index,
		scroll.WithPageSize(target.PageSize),
		scroll.WithLogger(e.logger),
	)

	var scanErr error
	for hit, err := range it.All(ctx) {
		if err != nil {
			scanErr = err
			break
		}
		if err := ctx.Err(); err != nil {
			scanErr = err
			break
		}

		res.Validated++
		if errs := e.checker.Validate(hit.Source); len(errs) > 0 {
			res.Failures = append(res.Failures, hit.ID)
			rec.failure(ctx, hit.ID, errorStrings(errs))
			if hooks.Failure != nil {
				hooks.Failure(hit.ID, errs)
			}
		}

		if hooks.Progress != nil && res.Validated%e.progressEvery == 0 {
			hooks.Progress(res.Validated, len(res.Failures))
		}
	}

	if err := it.Close(context.WithoutCancel(ctx)); err != nil {
		e.logger.Warn("failed to release scroll cursor", slog.String("error", err.Error()))
	}

	e.logger.Debug("scan finished",
		slog.String("target", target.String()),
		slog.Int("validated", res.Validated),
		slog.Int("failures", len(res.Failures)),
		slog.Duration("elapsed", time.Since(start)),
	)

	if err := rec.finish(ctx, res.Validated, len(res.Failures), scanErr); err != nil {
		return res, errors.Join(scanErr, err)
	}
	return res, scanErr
}
