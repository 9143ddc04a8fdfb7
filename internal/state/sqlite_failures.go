package state

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
)

// RecordFailure stores a failing document and its error messages.
func (s *SQLiteStore) RecordFailure(ctx context.Context, runID, document string, errs []string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if errs == nil {
		errs = []string{}
	}

	encoded, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("failed to encode errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO failures (run_id, document, errors) VALUES (?, ?, ?)`,
		runID, document, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return nil
}

// ListFailures returns the failures of a run in the order they were recorded.
func (s *SQLiteStore) ListFailures(ctx context.Context, runID string) ([]Failure, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT document, errors FROM failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var failures []Failure
	for rows.Next() {
		f := Failure{RunID: runID}
		var encoded string
		if err := rows.Scan(&f.Document, &encoded); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &f.Errors); err != nil {
			return nil, fmt.Errorf("failed to decode errors for %s: %w", f.Document, err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}

	return failures, nil
}
