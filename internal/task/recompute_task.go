package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/admitlab/admit-api/internal/platform/logger"
	"github.com/admitlab/admit-api/internal/queue"
	"github.com/admitlab/admit-api/internal/store"
)

// ErrNilAnalyticsStore indicates a missing analytics store dependency.
var ErrNilAnalyticsStore = errors.New("analytics store cannot be nil")

// RecomputeTask handles recompute_analytics by discarding the cached
// aggregates. The next analysis read computes fresh values and re-fills the
// cache; doing the invalidation here rather than recomputing eagerly keeps
// the task cheap and idempotent.
type RecomputeTask struct {
	analytics store.AnalyticsStore
	logger    *slog.Logger
}

// NewRecomputeTask creates the recompute_analytics handler.
func NewRecomputeTask(analytics store.AnalyticsStore, log *slog.Logger) (*RecomputeTask, error) {
	if analytics == nil {
		return nil, ErrNilAnalyticsStore
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	return &RecomputeTask{analytics: analytics, logger: log}, nil
}

// Kind implements Handler.
func (t *RecomputeTask) Kind() queue.TaskKind {
	return queue.KindRecomputeAnalytics
}

// Handle implements Handler.
func (t *RecomputeTask) Handle(ctx context.Context, tx *sql.Tx, msg queue.TaskMessage) error {
	if err := t.analytics.WithTx(tx).InvalidateAll(ctx); err != nil {
		return fmt.Errorf("invalidating analytics cache: %w", err)
	}

	logger.FromContextOrDefault(ctx, t.logger).Info("analytics cache invalidated")
	return nil
}
