package storage_test

import (
	"path/filepath"
	"testing"
	"time"

	"sheetsync/internal/etl"
	"sheetsync/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunStore_RecordAndList(t *testing.T) {
	store := storage.NewRunStore(openTestDB(t))

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	first := &etl.RunLog{
		StartedAt:  base,
		FinishedAt: base.Add(time.Minute),
		Stage:      etl.StageComplete,
		Status:     "success",
		RowsRead:   10, RowsDropped: 1, RowsLoaded: 9,
	}
	second := &etl.RunLog{
		StartedAt:  base.Add(time.Hour),
		FinishedAt: base.Add(time.Hour + time.Minute),
		Stage:      etl.StageLoadingDocument,
		Status:     "error",
		RowsRead:   10, RowsDropped: 1, RowsLoaded: 9,
		Error:      "mongodb insert: duplicate key",
	}

	if err := store.RecordRun(first); err != nil {
		t.Fatalf("record first: %v", err)
	}
	if err := store.RecordRun(second); err != nil {
		t.Fatalf("record second: %v", err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct assigned ids, got %q / %q", first.ID, second.ID)
	}

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	// Newest first.
	if runs[0].Status != "error" || runs[1].Status != "success" {
		t.Errorf("runs not ordered by start time: %+v", runs)
	}
	if runs[0].Stage != etl.StageLoadingDocument {
		t.Errorf("stage not round-tripped: %s", runs[0].Stage)
	}
	if runs[0].Error != "mongodb insert: duplicate key" {
		t.Errorf("error not round-tripped: %q", runs[0].Error)
	}
}

func TestRunStore_ListLimit(t *testing.T) {
	store := storage.NewRunStore(openTestDB(t))

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		run := &etl.RunLog{
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
			Stage:      etl.StageComplete,
			Status:     "success",
		}
		if err := store.RecordRun(run); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	runs, err := store.ListRuns(3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("limit not applied: got %d", len(runs))
	}
}

func TestRunStore_EmptyHistory(t *testing.T) {
	store := storage.NewRunStore(openTestDB(t))
	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty history, got %d", len(runs))
	}
}
