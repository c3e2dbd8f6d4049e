package storage

import (
	"sheetsync/internal/etl"

	"github.com/google/uuid"
)

// RunStore persists pipeline run history. It implements etl.RunRecorder.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// RecordRun inserts one run log row, assigning its id.
func (s *RunStore) RecordRun(run *etl.RunLog) error {
	run.ID = uuid.New().String()
	_, err := s.db.conn.Exec(
		`INSERT INTO pipeline_runs (id, started_at, finished_at, stage, status, rows_read, rows_dropped, rows_loaded, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, string(run.Stage), run.Status,
		run.RowsRead, run.RowsDropped, run.RowsLoaded, run.Error,
	)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(limit int) ([]etl.RunLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.conn.Query(
		`SELECT id, started_at, finished_at, stage, status, rows_read, rows_dropped, rows_loaded, error
		 FROM pipeline_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []etl.RunLog
	for rows.Next() {
		var r etl.RunLog
		var stage string
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &stage, &r.Status,
			&r.RowsRead, &r.RowsDropped, &r.RowsLoaded, &r.Error); err != nil {
			return nil, err
		}
		r.Stage = etl.Stage(stage)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
