package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/admitlab/admit-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermarkStoreGet(t *testing.T) {
	t.Run("returns stored cursor", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(`SELECT last_seen`).
			WithArgs("applicant_data_json").
			WillReturnRows(sqlmock.NewRows([]string{"last_seen"}).AddRow("2026-02-14"))

		s := NewPostgresWatermarkStore(db, nil)
		cursor, err := s.Get(context.Background(), "applicant_data_json")
		require.NoError(t, err)
		assert.Equal(t, "2026-02-14", cursor)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown source maps to ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(`SELECT last_seen`).
			WithArgs("never_ingested").
			WillReturnRows(sqlmock.NewRows([]string{"last_seen"}))

		s := NewPostgresWatermarkStore(db, nil)
		_, err = s.Get(context.Background(), "never_ingested")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestWatermarkStoreAdvance(t *testing.T) {
	t.Run("advances to newer cursor", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec(`INSERT INTO ingestion_watermarks`).
			WithArgs("applicant_data_json", "2026-03-01").
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := NewPostgresWatermarkStore(db, nil)
		err = s.Advance(context.Background(), "applicant_data_json", "2026-03-01")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("older cursor is a no-op, not an error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		// The guarded upsert matches zero rows when the stored cursor is
		// already newer.
		mock.ExpectExec(`INSERT INTO ingestion_watermarks`).
			WithArgs("applicant_data_json", "2025-01-01").
			WillReturnResult(sqlmock.NewResult(0, 0))

		s := NewPostgresWatermarkStore(db, nil)
		err = s.Advance(context.Background(), "applicant_data_json", "2025-01-01")
		assert.NoError(t, err)
	})

	t.Run("monotonic guard is part of the query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec(`WHERE ingestion_watermarks\.last_seen < EXCLUDED\.last_seen`).
			WithArgs("applicant_data_json", "2026-03-01").
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := NewPostgresWatermarkStore(db, nil)
		err = s.Advance(context.Background(), "applicant_data_json", "2026-03-01")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
