package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pubsubgen/internal/index"
)

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, created_at, ruleset_hash, rules, seed, workers, publications, subscriptions, generator_version, record_version`

// ReadRun returns the metadata of one run.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// LatestRun returns the most recently recorded run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id COLLATE BINARY DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run, newest first.
// Run IDs are UUIDv7, so ID order is creation order.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id COLLATE BINARY DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadIndex rebuilds the frequency index snapshot of a run, including field
// and value order.
func (s *Store) ReadIndex(ctx context.Context, runID string) (*index.FrequencyIndex, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	idx := index.New()
	idx.TotalPubs = run.Publications

	rows, err := s.db.QueryContext(ctx, `
		SELECT field, kind, value, count
		FROM frequencies
		WHERE run_id = ?
		ORDER BY field_ord ASC, value_ord ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query frequencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var field, kind, text string
		var count int
		if err := rows.Scan(&field, &kind, &text, &count); err != nil {
			return nil, fmt.Errorf("scan frequency: %w", err)
		}
		v, err := decodeScalar(kind, text)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		idx.AddCount(field, v, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frequencies: %w", err)
	}

	dtRows, err := s.db.QueryContext(ctx, `SELECT value FROM datetimes WHERE run_id = ? ORDER BY ord ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query datetimes: %w", err)
	}
	defer dtRows.Close()

	for dtRows.Next() {
		var ts string
		if err := dtRows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("scan datetime: %w", err)
		}
		idx.ObserveDatetime(ts)
	}
	if err := dtRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datetimes: %w", err)
	}

	return idx, nil
}

// FieldSummary aggregates the stored counts of one field.
type FieldSummary struct {
	Field    string
	Distinct int
	Total    int
}

// SummarizeFields returns one summary per counted field, in first-seen order.
func (s *Store) SummarizeFields(ctx context.Context, runID string) ([]FieldSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT field, COUNT(*), SUM(count)
		FROM frequencies
		WHERE run_id = ?
		GROUP BY field
		ORDER BY MIN(field_ord) ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query field summaries: %w", err)
	}
	defer rows.Close()

	out := []FieldSummary{}
	for rows.Next() {
		var fs FieldSummary
		if err := rows.Scan(&fs.Field, &fs.Distinct, &fs.Total); err != nil {
			return nil, fmt.Errorf("scan field summary: %w", err)
		}
		out = append(out, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field summaries: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var createdAt string
	var seed int64

	if err := row.Scan(
		&run.ID, &createdAt, &run.RuleSetHash, &run.Rules, &seed, &run.Workers,
		&run.Publications, &run.Subscriptions, &run.GeneratorVersion, &run.RecordVersion,
	); err != nil {
		return Run{}, err
	}

	t, err := decodeTime(createdAt)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt = t
	run.Seed = decodeSeed(seed)
	return run, nil
}
