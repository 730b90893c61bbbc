package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Run is one recorded scenario run.
type Run struct {
	ID        string
	Scenario  string
	StartedAt time.Time
	Pass      bool
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scenario, started_at, pass FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			started string
			pass    int
		)
		if err := rows.Scan(&r.ID, &r.Scenario, &started, &pass); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at for run %s: %w", r.ID, err)
		}
		r.Pass = pass != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Calls returns the recorded calls of a run in sequence order.
func (s *Store) Calls(ctx context.Context, runID string) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, operation, identity, status, expected_status, pass, mismatches
		 FROM calls WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list calls for run %s: %w", runID, err)
	}
	defer rows.Close()

	var calls []CallRecord
	for rows.Next() {
		var (
			rec        CallRecord
			pass       int
			mismatches sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Operation, &rec.Identity,
			&rec.Status, &rec.ExpectedStatus, &pass, &mismatches); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		rec.Pass = pass != 0
		if mismatches.Valid {
			if err := json.Unmarshal([]byte(mismatches.String), &rec.Mismatches); err != nil {
				return nil, fmt.Errorf("decode mismatches for call %d of run %s: %w", rec.Seq, runID, err)
			}
		}
		calls = append(calls, rec)
	}
	return calls, rows.Err()
}
