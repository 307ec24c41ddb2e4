package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/pubsubgen/internal/index"
)

// Run is the metadata of one recorded generation run.
type Run struct {
	ID               string
	CreatedAt        time.Time
	RuleSetHash      string
	Rules            string // canonical JSON of the compiled rule file
	Seed             uint64
	Workers          int
	Publications     int
	Subscriptions    int
	GeneratorVersion string
	RecordVersion    string
}

// NewRunID returns a UUIDv7 run identifier. IDs sort by creation time.
func NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}

// WriteRun stores a run and its index snapshot in one transaction.
// Writing the same run ID twice fails with a constraint error.
func (s *Store) WriteRun(ctx context.Context, run Run, idx *index.FrequencyIndex) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, ruleset_hash, rules, seed, workers, publications, subscriptions, generator_version, record_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		encodeTime(run.CreatedAt),
		run.RuleSetHash,
		run.Rules,
		encodeSeed(run.Seed),
		run.Workers,
		run.Publications,
		run.Subscriptions,
		run.GeneratorVersion,
		run.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	if idx != nil {
		if err = writeFrequencies(ctx, tx, run.ID, idx); err != nil {
			return err
		}
		if err = writeDatetimes(ctx, tx, run.ID, idx.Datetimes); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

func writeFrequencies(ctx context.Context, tx *sql.Tx, runID string, idx *index.FrequencyIndex) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO frequencies (run_id, field, field_ord, value_ord, kind, value, count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write frequencies: prepare: %w", err)
	}
	defer stmt.Close()

	for fieldOrd, field := range idx.Fields() {
		t := idx.Tally(field)
		for valueOrd, v := range t.Values() {
			kind, text := encodeScalar(v)
			if _, err := stmt.ExecContext(ctx, runID, field, fieldOrd, valueOrd, kind, text, t.Count(v)); err != nil {
				return fmt.Errorf("write frequencies: %s=%s: %w", field, text, err)
			}
		}
	}
	return nil
}

func writeDatetimes(ctx context.Context, tx *sql.Tx, runID string, datetimes []string) error {
	if len(datetimes) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO datetimes (run_id, ord, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("write datetimes: prepare: %w", err)
	}
	defer stmt.Close()

	for ord, ts := range datetimes {
		if _, err := stmt.ExecContext(ctx, runID, ord, ts); err != nil {
			return fmt.Errorf("write datetimes: %w", err)
		}
	}
	return nil
}
