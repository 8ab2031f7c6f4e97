package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/admitlab/admit-api/internal/platform/logger"
	"github.com/admitlab/admit-api/internal/store"
)

// summaryCacheKey identifies the aggregate summary row in analytics_cache.
const summaryCacheKey = "analysis_summary"

// PostgresAnalyticsStore implements the store.AnalyticsStore interface.
// Derived aggregates are cached in the analytics_cache table; the
// recompute_analytics task clears that cache so the next read recomputes
// against fresh applicant data.
type PostgresAnalyticsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnalyticsStore creates a new PostgreSQL implementation of the
// AnalyticsStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresAnalyticsStore(db store.DBTX, logger *slog.Logger) *PostgresAnalyticsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnalyticsStore{
		db:     db,
		logger: logger.With(slog.String("component", "analytics_store")),
	}
}

// Ensure PostgresAnalyticsStore implements store.AnalyticsStore interface
var _ store.AnalyticsStore = (*PostgresAnalyticsStore)(nil)

// Summary implements store.AnalyticsStore.Summary.
func (s *PostgresAnalyticsStore) Summary(ctx context.Context) (*store.AnalysisSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cached, err := s.readCached(ctx)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.writeCache(ctx, summary); err != nil {
		// Serving a freshly computed summary matters more than caching it.
		log.Warn("failed to cache analysis summary",
			slog.String("error", err.Error()))
	}

	return summary, nil
}

// InvalidateAll implements store.AnalyticsStore.InvalidateAll.
func (s *PostgresAnalyticsStore) InvalidateAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM analytics_cache`)
	if err != nil {
		return fmt.Errorf("failed to invalidate analytics cache: %w", MapError(err))
	}
	return nil
}

// WithTx implements store.AnalyticsStore.WithTx.
func (s *PostgresAnalyticsStore) WithTx(tx *sql.Tx) store.AnalyticsStore {
	return &PostgresAnalyticsStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresAnalyticsStore) readCached(ctx context.Context) (*store.AnalysisSummary, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM analytics_cache WHERE key = $1`, summaryCacheKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: cached analysis summary", store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read analytics cache: %w", MapError(err))
	}

	var summary store.AnalysisSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode cached summary: %w", err)
	}
	return &summary, nil
}

func (s *PostgresAnalyticsStore) compute(ctx context.Context) (*store.AnalysisSummary, error) {
	query := `
		SELECT
			COUNT(*),
			AVG(gpa),
			AVG(gre),
			100.0 * COUNT(*) FILTER (WHERE us_or_international = 'International')
				/ NULLIF(COUNT(*), 0)
		FROM applicants
	`

	summary := &store.AnalysisSummary{ComputedAt: time.Now().UTC()}
	var avgGPA, avgGRE, pctIntl sql.NullFloat64

	err := s.db.QueryRowContext(ctx, query).
		Scan(&summary.ApplicantCount, &avgGPA, &avgGRE, &pctIntl)
	if err != nil {
		return nil, fmt.Errorf("failed to compute analysis summary: %w", MapError(err))
	}

	if avgGPA.Valid {
		summary.AvgGPA = &avgGPA.Float64
	}
	if avgGRE.Valid {
		summary.AvgGRE = &avgGRE.Float64
	}
	if pctIntl.Valid {
		summary.PctInternational = &pctIntl.Float64
	}

	return summary, nil
}

func (s *PostgresAnalyticsStore) writeCache(ctx context.Context, summary *store.AnalysisSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analytics_cache (key, value, computed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, computed_at = EXCLUDED.computed_at
	`, summaryCacheKey, raw, summary.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to write analytics cache: %w", MapError(err))
	}
	return nil
}
