package etl

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ── Pipeline ───────────────────────────────────────────────
// Orchestrates: source.Read → Normalizer → relational load →
// document load. Single-threaded and sequential: each stage runs to
// completion before the next begins, and any failure aborts all
// subsequent stages. No compensation across stores is attempted — a
// committed relational load stays committed when the document load
// later fails.

// Stage identifies where the pipeline currently is (or stopped).
type Stage string

const (
	StageIdle              Stage = "idle"
	StageExtracting        Stage = "extracting"
	StageTransforming      Stage = "transforming"
	StageLoadingRelational Stage = "loading_relational"
	StageLoadingDocument   Stage = "loading_document"
	StageComplete          Stage = "complete"
	StageFailed            Stage = "failed"
)

// RunLog is a historical record of one pipeline run.
type RunLog struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Stage       Stage     `json:"stage"` // last stage reached
	Status      string    `json:"status"`
	RowsRead    int       `json:"rowsRead"`
	RowsDropped int       `json:"rowsDropped"`
	RowsLoaded  int       `json:"rowsLoaded"`
	Error       string    `json:"error,omitempty"`
}

// RunRecorder persists RunLogs for later inspection.
type RunRecorder interface {
	RecordRun(run *RunLog) error
}

// Pipeline wires the components of a single synchronization run.
// Concurrent invocations are unsafe: both loaders perform destructive
// drop/delete operations and must be externally serialized.
type Pipeline struct {
	Source     Source
	SourceCfg  SourceConfig
	Normalizer *Normalizer
	Relational Destination
	Document   Destination
	Mode       SyncMode
	Log        *slog.Logger
	Runs       RunRecorder // optional, best-effort

	stage Stage
}

// Stage returns the stage the last Run reached.
func (p *Pipeline) Stage() Stage {
	if p.stage == "" {
		return StageIdle
	}
	return p.stage
}

// Run executes the pipeline end to end and returns the first failure
// unchanged after logging it. The run outcome is recorded via Runs when
// set; a history write failure never masks the pipeline result.
func (p *Pipeline) Run(ctx context.Context) error {
	run := &RunLog{StartedAt: time.Now(), Stage: StageIdle}
	p.stage = StageIdle
	p.Log.Info("pipeline started",
		"source", p.Source.Spec().Type,
		"mode", string(p.Mode),
	)

	err := p.execute(ctx, run)
	run.FinishedAt = time.Now()

	if err != nil {
		p.stage = StageFailed
		run.Status = "error"
		run.Error = err.Error()
		p.Log.Error("pipeline failed", "stage", string(run.Stage), "error", err)
	} else {
		run.Status = "success"
		p.Log.Info("pipeline completed",
			"rows_loaded", run.RowsLoaded,
			"duration", run.FinishedAt.Sub(run.StartedAt).String(),
		)
	}

	if p.Runs != nil {
		if rerr := p.Runs.RecordRun(run); rerr != nil {
			p.Log.Warn("record run history", "error", rerr)
		}
	}
	return err
}

func (p *Pipeline) execute(ctx context.Context, run *RunLog) error {
	p.setStage(StageExtracting, run)
	schema, rows, err := p.extract(ctx)
	if err != nil {
		return err
	}
	run.RowsRead = len(rows)

	p.setStage(StageTransforming, run)
	records, err := p.Normalizer.Normalize(schema, rows)
	if err != nil {
		return err
	}
	run.RowsDropped = run.RowsRead - len(records)

	p.setStage(StageLoadingRelational, run)
	written, err := p.Relational.Load(ctx, records, p.Mode)
	if err != nil {
		return err
	}
	p.Log.Info("relational load complete", "store", p.Relational.Name(), "rows", written)
	run.RowsLoaded = written

	p.setStage(StageLoadingDocument, run)
	written, err = p.Document.Load(ctx, records, p.Mode)
	if err != nil {
		return err
	}
	p.Log.Info("document load complete", "store", p.Document.Name(), "documents", written)
	run.RowsLoaded = written

	p.setStage(StageComplete, run)
	return nil
}

func (p *Pipeline) setStage(s Stage, run *RunLog) {
	p.stage = s
	run.Stage = s
	p.Log.Info("stage started", "stage", string(s))
}

func (p *Pipeline) extract(ctx context.Context) (*Schema, []Record, error) {
	schema, err := p.Source.Discover(ctx, p.SourceCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("discover: %w", err)
	}

	recCh, errCh := p.Source.Read(ctx, p.SourceCfg)
	var rows []Record
	for rec := range recCh {
		rows = append(rows, rec)
	}
	if err := <-errCh; err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}

	p.Log.Info("extraction complete", "rows", len(rows), "columns", schema.FieldNames())
	return schema, rows, nil
}
