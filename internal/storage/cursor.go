package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/customs-ai/internal/model"
)

// Attempt is one fetched candidate ruling ID.
type Attempt struct {
	RulingNumber string
	Prefix       string
	Outcome      model.Outcome
	Number       int
	StatusCode   int
}

// LoadCursor returns the sweep position for prefix. The bool is false when
// the prefix has never been swept.
func (s *SQLiteStorage) LoadCursor(ctx context.Context, prefix string) (model.CursorState, bool, error) {
	if err := validateContext(ctx); err != nil {
		return model.CursorState{}, false, err
	}
	if err := validateString(prefix, "prefix"); err != nil {
		return model.CursorState{}, false, err
	}

	var (
		state   model.CursorState
		outcome string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT prefix, last_number, last_outcome, updated_at FROM ingest_cursor WHERE prefix = ?`,
		prefix,
	).Scan(&state.Prefix, &state.LastNumber, &outcome, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CursorState{}, false, nil
	}
	if err != nil {
		return model.CursorState{}, false, fmt.Errorf("failed to load cursor for %s: %w", prefix, err)
	}
	state.LastOutcome = model.Outcome(outcome)
	return state, true, nil
}

// RecordAttempt logs the outcome for one ID and advances the prefix cursor
// in the same transaction. The cursor never moves backwards.
func (s *SQLiteStorage) RecordAttempt(ctx context.Context, a Attempt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(a.RulingNumber, "rulingNumber"); err != nil {
		return err
	}
	if err := validateString(a.Prefix, "prefix"); err != nil {
		return err
	}
	if err := validateOutcome(a.Outcome); err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ingest_attempts (ruling_number, prefix, number, outcome, status_code, attempted_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(ruling_number) DO UPDATE SET
				outcome = excluded.outcome,
				status_code = excluded.status_code,
				attempted_at = excluded.attempted_at`,
			a.RulingNumber, a.Prefix, a.Number, string(a.Outcome), a.StatusCode, now)
		if err != nil {
			return fmt.Errorf("failed to record attempt %s: %w", a.RulingNumber, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO ingest_cursor (prefix, last_number, last_outcome, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(prefix) DO UPDATE SET
				last_number = excluded.last_number,
				last_outcome = excluded.last_outcome,
				updated_at = excluded.updated_at
			WHERE excluded.last_number >= ingest_cursor.last_number`,
			a.Prefix, a.Number, string(a.Outcome), now)
		if err != nil {
			return fmt.Errorf("failed to advance cursor for %s: %w", a.Prefix, err)
		}
		return nil
	})
}

// ResetCursor forgets all sweep positions and attempts.
func (s *SQLiteStorage) ResetCursor(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{`DELETE FROM ingest_attempts`, `DELETE FROM ingest_cursor`} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("failed to reset cursor: %w", err)
			}
		}
		return nil
	})
}

// OutcomeCounts tallies recorded attempts by outcome.
func (s *SQLiteStorage) OutcomeCounts(ctx context.Context) (map[model.Outcome]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM ingest_attempts GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.Outcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[model.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}
