package store

import (
	"context"
	"database/sql"
	"time"
)

// AnalysisSummary holds the derived aggregates served by the analysis
// endpoint. Percentages are pre-formatted ratios in [0, 100].
type AnalysisSummary struct {
	ApplicantCount   int64     `json:"applicant_count"`
	AvgGPA           *float64  `json:"avg_gpa"`
	AvgGRE           *float64  `json:"avg_gre"`
	PctInternational *float64  `json:"pct_international"`
	ComputedAt       time.Time `json:"computed_at"`
}

// AnalyticsStore serves cached derived aggregates over the applicant data.
// Aggregates are computed on demand and cached; InvalidateAll clears the
// cache so the next read recomputes against fresh data.
// Version: 1.0
type AnalyticsStore interface {
	// Summary returns the cached aggregate summary, computing and caching
	// it when absent.
	Summary(ctx context.Context) (*AnalysisSummary, error)

	// InvalidateAll discards every cached aggregate. Called by the
	// recompute_analytics task handler inside its transaction.
	InvalidateAll(ctx context.Context) error

	// WithTx returns a new AnalyticsStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) AnalyticsStore
}
