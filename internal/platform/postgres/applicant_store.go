package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/admitlab/admit-api/internal/domain"
	"github.com/admitlab/admit-api/internal/platform/logger"
	"github.com/admitlab/admit-api/internal/store"
)

// PostgresApplicantStore implements the store.ApplicantStore interface
// using a PostgreSQL database as the storage backend.
type PostgresApplicantStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresApplicantStore creates a new PostgreSQL implementation of the
// ApplicantStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresApplicantStore(db store.DBTX, logger *slog.Logger) *PostgresApplicantStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresApplicantStore{
		db:     db,
		logger: logger.With(slog.String("component", "applicant_store")),
	}
}

// Ensure PostgresApplicantStore implements store.ApplicantStore interface
var _ store.ApplicantStore = (*PostgresApplicantStore)(nil)

// InsertBatch implements store.ApplicantStore.InsertBatch.
// Rows whose URL already exists are skipped via ON CONFLICT DO NOTHING, so
// re-inserting an already-seen batch is a no-op rather than an error. That
// is the idempotence mechanism relied on under at-least-once delivery.
func (s *PostgresApplicantStore) InsertBatch(
	ctx context.Context,
	applicants []*domain.Applicant,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, a := range applicants {
		if err := a.Validate(); err != nil {
			log.Warn("applicant validation failed during batch insert",
				slog.String("error", err.Error()),
				slog.String("url", a.URL))
			return 0, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	query := `
		INSERT INTO applicants (
			program, comments, date_added, url, status, term,
			us_or_international, gpa, gre, gre_v, gre_aw, degree,
			llm_generated_program, llm_generated_university, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (url) DO NOTHING
	`

	now := time.Now().UTC()
	var inserted int64

	for _, a := range applicants {
		result, err := s.db.ExecContext(ctx, query,
			a.Program,
			a.Comments,
			a.DateAdded,
			a.URL,
			a.Status,
			a.Term,
			a.USOrInternational,
			a.GPA,
			a.GRE,
			a.GREV,
			a.GREAW,
			a.Degree,
			a.StandardProgram,
			a.StandardUniversity,
			now,
		)
		if err != nil {
			log.Error("failed to insert applicant",
				slog.String("url", a.URL),
				slog.String("error", err.Error()))
			return inserted, fmt.Errorf("failed to insert applicant: %w", MapError(err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += rows
	}

	log.Debug("applicant batch inserted",
		slog.Int("batch_size", len(applicants)),
		slog.Int64("inserted", inserted))
	return inserted, nil
}

// Count implements store.ApplicantStore.Count.
func (s *PostgresApplicantStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applicants`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count applicants: %w", MapError(err))
	}
	return count, nil
}

// WithTx implements store.ApplicantStore.WithTx.
func (s *PostgresApplicantStore) WithTx(tx *sql.Tx) store.ApplicantStore {
	return &PostgresApplicantStore{
		db:     tx,
		logger: s.logger,
	}
}
