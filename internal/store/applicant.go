package store

import (
	"context"
	"database/sql"

	"github.com/admitlab/admit-api/internal/domain"
)

// ApplicantStore defines the interface for applicant data persistence.
// Version: 1.0
type ApplicantStore interface {
	// InsertBatch saves a batch of applicants, silently skipping any whose
	// URL is already present (first write wins). Returns the number of
	// rows actually inserted. Records failing domain validation are
	// rejected with ErrInvalidEntity before any row is written.
	InsertBatch(ctx context.Context, applicants []*domain.Applicant) (int64, error)

	// Count returns the total number of stored applicants.
	Count(ctx context.Context) (int64, error)

	// WithTx returns a new ApplicantStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller
	// (typically the dispatcher).
	WithTx(tx *sql.Tx) ApplicantStore
}
