package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/datatect/pkg/schema"
)

// FileResult is the outcome of validating one document file.
type FileResult struct {
	Path   string
	Errors []schema.ValidationError
	// Err is set when the file could not be read or decoded.
	Err error
}

// Passed reports whether the file was readable and valid.
func (r FileResult) Passed() bool {
	return r.Err == nil && len(r.Errors) == 0
}

// Messages returns the lines describing why the file failed.
func (r FileResult) Messages() []string {
	if r.Err != nil {
		return []string{r.Err.Error()}
	}
	return errorStrings(r.Errors)
}

// FileSummary counts the outcomes of ValidateFiles.
type FileSummary struct {
	RunID  string
	Passed int
	Failed int
}

// ValidateFile reads, decodes and validates a single document file.
func (e *Engine) ValidateFile(path string) FileResult {
	doc, err := schema.LoadDocument(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	return FileResult{Path: path, Errors: e.checker.Validate(doc)}
}

// ValidateFiles validates paths on up to Workers goroutines. handle is called
// once per file, never concurrently, in completion order. An unreadable file
// is reported as a failed result; only cancellation stops the run early.
func (e *Engine) ValidateFiles(ctx context.Context, paths []string, handle func(FileResult)) (FileSummary, error) {
	rec, err := e.startRun(ctx, "validate", strings.Join(paths, ","))
	if err != nil {
		return FileSummary{}, err
	}

	start := time.Now()
	summary := FileSummary{RunID: rec.id()}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := e.ValidateFile(path)

			mu.Lock()
			defer mu.Unlock()

			if res.Passed() {
				summary.Passed++
			} else {
				summary.Failed++
				rec.failure(ctx, res.Path, res.Messages())
			}
			if handle != nil {
				handle(res)
			}
			return nil
		})
	}

	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	e.logger.Debug("validated files",
		slog.Int("passed", summary.Passed),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", time.Since(start)),
	)

	if err := rec.finish(ctx, summary.Passed+summary.Failed, summary.Failed, runErr); err != nil {
		return summary, errors.Join(runErr, err)
	}
	return summary, runErr
}
