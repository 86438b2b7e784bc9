package profilestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Run records one tokenize, detokenize or render invocation.
type Run struct {
	ID          string    `json:"id"`
	Command     string    `json:"command"`
	Language    string    `json:"language"`
	InputCount  int       `json:"input_count"`
	OutputCount int       `json:"output_count"`
	Unresolved  int       `json:"unresolved"`
	StartedAt   time.Time `json:"started_at"`
}

// RecordRun stores a run, assigning an ID and start time when unset.
func (s *Store) RecordRun(ctx context.Context, run Run) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, language, input_count, output_count, unresolved, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Language, run.InputCount, run.OutputCount, run.Unresolved, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	s.logger.Debug("recorded run", slog.String("id", run.ID), slog.String("command", run.Command))
	return &run, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, language, input_count, output_count, unresolved, started_at
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Command, &r.Language, &r.InputCount, &r.OutputCount, &r.Unresolved, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
