package store

import (
	"context"
	"database/sql"
)

// WatermarkStore tracks, per ingestion source, the highest-ordered record
// cursor already ingested. Cursors are opaque strings compared
// lexicographically.
// Version: 1.0
type WatermarkStore interface {
	// Get retrieves the stored cursor for the source.
	// Returns ErrNotFound when the source has never been ingested.
	Get(ctx context.Context, source string) (string, error)

	// Advance records newCursor as the source's watermark. The stored
	// value never regresses: if newCursor is not strictly greater than the
	// current one, the existing value is kept and no error is returned.
	// Must be called inside the same transaction as the data it describes.
	Advance(ctx context.Context, source, newCursor string) error

	// WithTx returns a new WatermarkStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) WatermarkStore
}
