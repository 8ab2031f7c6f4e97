package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/admitlab/admit-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsStoreSummary(t *testing.T) {
	t.Run("serves from cache when present", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		gpa := 3.71
		cached, err := json.Marshal(&store.AnalysisSummary{
			ApplicantCount: 10,
			AvgGPA:         &gpa,
			ComputedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT value FROM analytics_cache`).
			WithArgs(summaryCacheKey).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(cached))

		s := NewPostgresAnalyticsStore(db, nil)
		summary, err := s.Summary(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(10), summary.ApplicantCount)
		require.NotNil(t, summary.AvgGPA)
		assert.InDelta(t, 3.71, *summary.AvgGPA, 0.001)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("computes and caches on miss", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(`SELECT value FROM analytics_cache`).
			WithArgs(summaryCacheKey).
			WillReturnRows(sqlmock.NewRows([]string{"value"}))
		mock.ExpectQuery(`FROM applicants`).
			WillReturnRows(sqlmock.NewRows(
				[]string{"count", "avg_gpa", "avg_gre", "pct_intl"},
			).AddRow(5, 3.5, 320.0, 40.0))
		mock.ExpectExec(`INSERT INTO analytics_cache`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := NewPostgresAnalyticsStore(db, nil)
		summary, err := s.Summary(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(5), summary.ApplicantCount)
		require.NotNil(t, summary.PctInternational)
		assert.InDelta(t, 40.0, *summary.PctInternational, 0.001)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table yields null aggregates", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(`SELECT value FROM analytics_cache`).
			WithArgs(summaryCacheKey).
			WillReturnRows(sqlmock.NewRows([]string{"value"}))
		mock.ExpectQuery(`FROM applicants`).
			WillReturnRows(sqlmock.NewRows(
				[]string{"count", "avg_gpa", "avg_gre", "pct_intl"},
			).AddRow(0, nil, nil, nil))
		mock.ExpectExec(`INSERT INTO analytics_cache`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := NewPostgresAnalyticsStore(db, nil)
		summary, err := s.Summary(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(0), summary.ApplicantCount)
		assert.Nil(t, summary.AvgGPA)
		assert.Nil(t, summary.PctInternational)
	})
}

func TestAnalyticsStoreInvalidateAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`DELETE FROM analytics_cache`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	s := NewPostgresAnalyticsStore(db, nil)
	assert.NoError(t, s.InvalidateAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
