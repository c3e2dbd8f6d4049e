package etl_test

import (
	"context"
	"errors"
	"testing"

	"sheetsync/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Pipeline orchestration tests
// Small fakes stand in for the source and both stores.
// ─────────────────────────────────────────────────────────────

type fakeSource struct {
	schema *etl.Schema
	rows   []etl.Record
	err    error
}

func (s *fakeSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{Type: "fake", Label: "Fake"}
}

func (s *fakeSource) Discover(ctx context.Context, cfg etl.SourceConfig) (*etl.Schema, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.schema, nil
}

func (s *fakeSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.Record, <-chan error) {
	out := make(chan etl.Record, len(s.rows))
	errCh := make(chan error, 1)
	for _, r := range s.rows {
		out <- r
	}
	close(out)
	close(errCh)
	return out, errCh
}

type fakeDestination struct {
	name   string
	err    error
	called bool
	got    []etl.CanonicalRecord
	mode   etl.SyncMode
	order  *[]string
}

func (d *fakeDestination) Name() string { return d.name }

func (d *fakeDestination) Load(ctx context.Context, records []etl.CanonicalRecord, mode etl.SyncMode) (int, error) {
	d.called = true
	d.got = records
	d.mode = mode
	if d.order != nil {
		*d.order = append(*d.order, d.name)
	}
	if d.err != nil {
		return 0, d.err
	}
	return len(records), nil
}

type fakeRecorder struct {
	run *etl.RunLog
	err error
}

func (r *fakeRecorder) RecordRun(run *etl.RunLog) error {
	r.run = run
	return r.err
}

func newPipeline(src etl.Source, rel, doc etl.Destination, runs etl.RunRecorder) *etl.Pipeline {
	return &etl.Pipeline{
		Source:     src,
		SourceCfg:  etl.SourceConfig{},
		Normalizer: etl.NewNormalizer(testLogger()),
		Relational: rel,
		Document:   doc,
		Mode:       etl.SyncReplace,
		Log:        testLogger(),
		Runs:       runs,
	}
}

func TestPipeline_Success(t *testing.T) {
	src := &fakeSource{
		schema: salesSchema(),
		rows: []etl.Record{
			row("A1", "3", "Widget", "9.5", "cash", "retail"),
			row("", "1", "x", "1", "cash", "retail"),
			row("A2", "1", "Gadget", "4", "card", "b2b"),
		},
	}

	var order []string
	rel := &fakeDestination{name: "postgres", order: &order}
	doc := &fakeDestination{name: "mongodb", order: &order}
	rec := &fakeRecorder{}

	p := newPipeline(src, rel, doc, rec)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Stage() != etl.StageComplete {
		t.Errorf("expected stage complete, got %s", p.Stage())
	}
	if len(order) != 2 || order[0] != "postgres" || order[1] != "mongodb" {
		t.Errorf("expected relational before document, got %v", order)
	}
	if rel.mode != etl.SyncReplace || doc.mode != etl.SyncReplace {
		t.Errorf("sync mode not passed through: %s / %s", rel.mode, doc.mode)
	}
	if len(rel.got) != 2 || len(doc.got) != 2 {
		t.Errorf("both loaders must see the same 2 canonical records, got %d / %d",
			len(rel.got), len(doc.got))
	}

	if rec.run == nil {
		t.Fatal("run was not recorded")
	}
	if rec.run.Status != "success" || rec.run.Stage != etl.StageComplete {
		t.Errorf("run log: %+v", rec.run)
	}
	if rec.run.RowsRead != 3 || rec.run.RowsDropped != 1 || rec.run.RowsLoaded != 2 {
		t.Errorf("run counts wrong: %+v", rec.run)
	}
}

func TestPipeline_RelationalFailureAbortsDocumentLoad(t *testing.T) {
	src := &fakeSource{
		schema: salesSchema(),
		rows:   []etl.Record{row("A1", "3", "Widget", "9.5", "cash", "retail")},
	}

	werr := &etl.WriteError{Store: "postgres", Op: "upsert", Err: errors.New("boom")}
	rel := &fakeDestination{name: "postgres", err: werr}
	doc := &fakeDestination{name: "mongodb"}
	rec := &fakeRecorder{}

	p := newPipeline(src, rel, doc, rec)
	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	// The original error kind must survive to the caller.
	var got *etl.WriteError
	if !errors.As(err, &got) || got.Op != "upsert" {
		t.Fatalf("expected the loader's WriteError unchanged, got %v", err)
	}
	if doc.called {
		t.Error("document load must not run after a relational failure")
	}
	if p.Stage() != etl.StageFailed {
		t.Errorf("expected stage failed, got %s", p.Stage())
	}
	if rec.run.Stage != etl.StageLoadingRelational || rec.run.Status != "error" {
		t.Errorf("run log should record the failing stage: %+v", rec.run)
	}
}

func TestPipeline_SchemaErrorSkipsBothLoads(t *testing.T) {
	src := &fakeSource{
		schema: &etl.Schema{Fields: []etl.Field{{Name: "id", Type: "text"}}},
		rows:   []etl.Record{{Data: map[string]any{"id": "A1"}}},
	}
	rel := &fakeDestination{name: "postgres"}
	doc := &fakeDestination{name: "mongodb"}

	p := newPipeline(src, rel, doc, nil)
	err := p.Run(context.Background())

	var serr *etl.SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if rel.called || doc.called {
		t.Error("no loader may run after a schema failure")
	}
}

func TestPipeline_SourceErrorPropagates(t *testing.T) {
	src := &fakeSource{err: errors.New("credentials rejected")}
	rel := &fakeDestination{name: "postgres"}
	doc := &fakeDestination{name: "mongodb"}
	rec := &fakeRecorder{}

	p := newPipeline(src, rel, doc, rec)
	err := p.Run(context.Background())
	if err == nil || !errors.Is(err, src.err) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	if rel.called || doc.called {
		t.Error("loaders must not run after an extraction failure")
	}
	if rec.run.Stage != etl.StageExtracting {
		t.Errorf("run log should stop at extracting, got %s", rec.run.Stage)
	}
}

func TestPipeline_RecorderFailureDoesNotMaskResult(t *testing.T) {
	src := &fakeSource{
		schema: salesSchema(),
		rows:   []etl.Record{row("A1", "3", "Widget", "9.5", "cash", "retail")},
	}
	rel := &fakeDestination{name: "postgres"}
	doc := &fakeDestination{name: "mongodb"}
	rec := &fakeRecorder{err: errors.New("history db locked")}

	p := newPipeline(src, rel, doc, rec)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("history failure must not fail the run: %v", err)
	}
}
