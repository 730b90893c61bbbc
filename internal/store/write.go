package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CallRecord is one dispatched call within a run.
type CallRecord struct {
	RunID          string
	Seq            int
	Operation      string
	Identity       string
	Status         int
	ExpectedStatus int
	Pass           bool
	Mismatches     []string
}

// BeginRun inserts the run row before any calls are recorded.
func (s *Store) BeginRun(ctx context.Context, id, scenario string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, started_at, pass) VALUES (?, ?, ?, 0)`,
		id, scenario, startedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("begin run %s: %w", id, err)
	}
	return nil
}

// FinishRun sets the run verdict once every call has been recorded.
func (s *Store) FinishRun(ctx context.Context, id string, pass bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET pass = ? WHERE id = ?`, boolInt(pass), id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: run not found", id)
	}
	return nil
}

// RecordCall appends one call to its run.
func (s *Store) RecordCall(ctx context.Context, rec CallRecord) error {
	var mismatches any
	if len(rec.Mismatches) > 0 {
		data, err := json.Marshal(rec.Mismatches)
		if err != nil {
			return fmt.Errorf("encode mismatches: %w", err)
		}
		mismatches = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calls (run_id, seq, operation, identity, status, expected_status, pass, mismatches)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Seq, rec.Operation, rec.Identity,
		rec.Status, rec.ExpectedStatus, boolInt(rec.Pass), mismatches)
	if err != nil {
		return fmt.Errorf("record call %d of run %s: %w", rec.Seq, rec.RunID, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
