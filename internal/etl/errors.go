package etl

import (
	"fmt"
	"strings"
)

// ── Error taxonomy ─────────────────────────────────────────
// Fatal errors carry a concrete type so callers can tell a bad
// dataset apart from a bad store. Dropped/defaulted rows are not
// errors at all — they are logged counts only.

// SchemaError reports required columns missing from the source dataset.
// It is fatal: the loaders assume the canonical shape.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ConnectionError reports a failure to reach or authenticate against a
// store. It always occurs before any state was mutated.
type ConnectionError struct {
	Store string // "postgres" | "mysql" | "mongodb"
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Store, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// WriteError reports a store-side failure mid-load (constraint or type
// violation, rejected batch, failed index build). Prior committed
// batches in the relational loader stay committed.
type WriteError struct {
	Store string
	Op    string // "drop" | "create" | "upsert" | "delete" | "insert" | "index"
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Store, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
