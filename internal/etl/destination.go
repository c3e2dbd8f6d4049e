package etl

import "context"

// ── Destination ────────────────────────────────────────────
// A Destination writes canonical records into a target store.
// Implementations live in etl/destinations/ — one file per store.
//
// Pattern: Singer target protocol.

// SyncMode determines how records are written to the destination.
type SyncMode string

const (
	// SyncReplace drops/deletes everything in the target first, then
	// writes the full current set (snapshot replace).
	SyncReplace SyncMode = "replace"

	// SyncIncremental keeps existing data and upserts the current set
	// on top of it. Only meaningful for keyed stores.
	SyncIncremental SyncMode = "incremental"
)

// Destination writes records to a target store. Each call owns exactly
// one store connection: acquired at call start, released on every exit
// path. Returns the number of records written.
type Destination interface {
	// Name identifies the destination in logs and errors.
	Name() string

	Load(ctx context.Context, records []CanonicalRecord, mode SyncMode) (int, error)
}
