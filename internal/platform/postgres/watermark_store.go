package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/admitlab/admit-api/internal/platform/logger"
	"github.com/admitlab/admit-api/internal/store"
)

// PostgresWatermarkStore implements the store.WatermarkStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWatermarkStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWatermarkStore creates a new PostgreSQL implementation of the
// WatermarkStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresWatermarkStore(db store.DBTX, logger *slog.Logger) *PostgresWatermarkStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWatermarkStore{
		db:     db,
		logger: logger.With(slog.String("component", "watermark_store")),
	}
}

// Ensure PostgresWatermarkStore implements store.WatermarkStore interface
var _ store.WatermarkStore = (*PostgresWatermarkStore)(nil)

// Get implements store.WatermarkStore.Get.
// Returns store.ErrNotFound when the source has never been ingested.
func (s *PostgresWatermarkStore) Get(ctx context.Context, source string) (string, error) {
	query := `
		SELECT last_seen
		FROM ingestion_watermarks
		WHERE source = $1
	`

	var lastSeen string
	err := s.db.QueryRowContext(ctx, query, source).Scan(&lastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: watermark for source %q", store.ErrNotFound, source)
		}
		return "", fmt.Errorf("failed to get watermark: %w", MapError(err))
	}

	return lastSeen, nil
}

// Advance implements store.WatermarkStore.Advance.
// The WHERE guard on the upsert enforces monotonicity in the database
// itself: a duplicate or out-of-order task execution can never lower the
// stored cursor, regardless of execution order.
func (s *PostgresWatermarkStore) Advance(ctx context.Context, source, newCursor string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO ingestion_watermarks (source, last_seen, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (source)
		DO UPDATE SET last_seen = EXCLUDED.last_seen, updated_at = now()
		WHERE ingestion_watermarks.last_seen < EXCLUDED.last_seen
	`

	result, err := s.db.ExecContext(ctx, query, source, newCursor)
	if err != nil {
		log.Error("failed to advance watermark",
			slog.String("source", source),
			slog.String("cursor", newCursor),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to advance watermark: %w", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// The stored cursor was already >= newCursor; keeping it is the
		// correct outcome, not a failure.
		log.Debug("watermark unchanged, stored cursor is newer",
			slog.String("source", source),
			slog.String("cursor", newCursor))
	}

	return nil
}

// WithTx implements store.WatermarkStore.WithTx.
func (s *PostgresWatermarkStore) WithTx(tx *sql.Tx) store.WatermarkStore {
	return &PostgresWatermarkStore{
		db:     tx,
		logger: s.logger,
	}
}
