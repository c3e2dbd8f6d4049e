package destinations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sheetsync/internal/dbclient"
	"sheetsync/internal/etl"
)

// ── Relational Loader ──────────────────────────────────────
// Batched upsert-by-primary-key into the sales_data table.
// In replace mode the table is dropped and recreated first: this is a
// snapshot replace, not an incremental sync.

const (
	tableName        = "sales_data"
	defaultBatchSize = 1000
)

var recordColumns = []string{
	"id", "quantity", "product_name", "total_amount", "payment_method", "customer_type",
}

// Same DDL works for both supported dialects.
const createTableStmt = `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	id VARCHAR(255) PRIMARY KEY,
	quantity NUMERIC,
	product_name VARCHAR(255),
	total_amount NUMERIC,
	payment_method VARCHAR(100),
	customer_type VARCHAR(100),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// RelationalLoader writes canonical records to Postgres or MySQL.
type RelationalLoader struct {
	cfg       dbclient.SQLConfig
	batchSize int
	log       *slog.Logger
}

// NewRelationalLoader creates a loader. batchSize <= 0 selects the
// default of 1000.
func NewRelationalLoader(cfg dbclient.SQLConfig, batchSize int, log *slog.Logger) *RelationalLoader {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &RelationalLoader{cfg: cfg, batchSize: batchSize, log: log}
}

func (l *RelationalLoader) Name() string { return l.cfg.Driver }

// Load guarantees that on success the table holds exactly one row per
// record id with the input's values. Batches commit independently, so a
// failure in batch k leaves batches 1..k-1 committed. The connection is
// released on every exit path.
func (l *RelationalLoader) Load(ctx context.Context, records []etl.CanonicalRecord, mode etl.SyncMode) (int, error) {
	l.log.Info("connecting to relational store",
		"driver", l.cfg.Driver, "host", l.cfg.Host, "database", l.cfg.Database)

	db, err := dbclient.OpenSQL(ctx, l.cfg)
	if err != nil {
		return 0, &etl.ConnectionError{Store: l.cfg.Driver, Err: err}
	}
	defer db.Close()

	if err := l.ensureTable(ctx, db, mode); err != nil {
		return 0, err
	}

	total := len(records)
	l.log.Info("loading rows", "rows", total, "batch_size", l.batchSize)

	written, err := loadInBatches(l.batchSize, records,
		func(batch []etl.CanonicalRecord) error {
			return l.upsertBatch(ctx, db, batch)
		},
		func(done int) {
			l.log.Info("batch committed",
				"store", l.cfg.Driver,
				"rows", done,
				"total", total,
				"progress", fmt.Sprintf("%.1f%%", float64(done)/float64(total)*100),
			)
		},
	)
	if err != nil {
		return written, err
	}
	return written, nil
}

// ensureTable prepares the target table. Replace mode drops it first so
// nothing from a prior run survives.
func (l *RelationalLoader) ensureTable(ctx context.Context, db *sql.DB, mode etl.SyncMode) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range tableStmts(mode) {
		op := "create"
		if strings.HasPrefix(stmt, "DROP") {
			op = "drop"
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return &etl.WriteError{Store: l.cfg.Driver, Op: op, Err: err}
		}
	}
	if mode == etl.SyncReplace {
		l.log.Info("dropped existing table", "table", tableName)
	}
	return nil
}

// tableStmts returns the DDL to run before loading. Only replace mode
// drops the table; incremental mode upserts onto existing data.
func tableStmts(mode etl.SyncMode) []string {
	if mode == etl.SyncReplace {
		return []string{"DROP TABLE IF EXISTS " + tableName, createTableStmt}
	}
	return []string{createTableStmt}
}

// upsertBatch writes one batch inside its own transaction. Rows sharing
// an id within the batch are collapsed to the last occurrence: Postgres
// rejects a multi-row ON CONFLICT statement that updates the same row
// twice, so last-writer-in-batch-order must be resolved before binding.
func (l *RelationalLoader) upsertBatch(ctx context.Context, db *sql.DB, batch []etl.CanonicalRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	batch = dedupeLastWins(batch)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &etl.WriteError{Store: l.cfg.Driver, Op: "upsert", Err: err}
	}
	if _, err := tx.ExecContext(ctx, upsertStmt(l.cfg.Driver, len(batch)), batchArgs(batch)...); err != nil {
		tx.Rollback()
		return &etl.WriteError{Store: l.cfg.Driver, Op: "upsert", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &etl.WriteError{Store: l.cfg.Driver, Op: "upsert", Err: err}
	}
	return nil
}

// dedupeLastWins keeps one row per id, with the last occurrence's values
// at the first occurrence's position.
func dedupeLastWins(batch []etl.CanonicalRecord) []etl.CanonicalRecord {
	seen := make(map[string]int, len(batch))
	out := batch[:0:0]
	for _, r := range batch {
		if i, ok := seen[r.ID]; ok {
			out[i] = r
			continue
		}
		seen[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

// loadInBatches partitions records into fixed-size batches submitted in
// input order. It stops at the first failing batch and reports how many
// rows were durably written before it.
func loadInBatches(size int, records []etl.CanonicalRecord, exec func([]etl.CanonicalRecord) error, progress func(done int)) (int, error) {
	written := 0
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		if err := exec(records[start:end]); err != nil {
			return written, err
		}
		written = end
		progress(written)
	}
	return written, nil
}

// upsertStmt builds a multi-row upsert keyed on id for n rows.
// On an id conflict the incoming row's non-key fields win.
func upsertStmt(driver string, n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO " + tableName + " (" + strings.Join(recordColumns, ", ") + ") VALUES ")

	cols := len(recordColumns)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := 0; j < cols; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			if driver == "mysql" {
				b.WriteString("?")
			} else {
				fmt.Fprintf(&b, "$%d", i*cols+j+1)
			}
		}
		b.WriteString(")")
	}

	if driver == "mysql" {
		b.WriteString(" ON DUPLICATE KEY UPDATE")
		for i, col := range recordColumns[1:] {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %s = VALUES(%s)", col, col)
		}
	} else {
		b.WriteString(" ON CONFLICT (id) DO UPDATE SET")
		for i, col := range recordColumns[1:] {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %s = EXCLUDED.%s", col, col)
		}
	}
	return b.String()
}

func batchArgs(batch []etl.CanonicalRecord) []any {
	args := make([]any, 0, len(batch)*len(recordColumns))
	for _, r := range batch {
		args = append(args, r.ID, r.Quantity, r.ProductName, r.TotalAmount, r.PaymentMethod, r.CustomerType)
	}
	return args
}
