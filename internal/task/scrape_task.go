package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/admitlab/admit-api/internal/domain"
	"github.com/admitlab/admit-api/internal/ingest"
	"github.com/admitlab/admit-api/internal/lock"
	"github.com/admitlab/admit-api/internal/platform/logger"
	"github.com/admitlab/admit-api/internal/queue"
	"github.com/admitlab/admit-api/internal/store"
)

// Common errors
var (
	ErrNilSource         = errors.New("ingest source cannot be nil")
	ErrNilApplicantStore = errors.New("applicant store cannot be nil")
	ErrNilWatermarkStore = errors.New("watermark store cannot be nil")
	ErrNilLock           = errors.New("pull lock cannot be nil")
)

// ScrapeTask handles scrape_new_data: fetch records newer than the source's
// watermark, insert them, and advance the watermark to the highest cursor
// seen. Inserts and the watermark update share one transaction, and the url
// uniqueness constraint absorbs redelivery, so processing the same message
// twice cannot duplicate rows.
type ScrapeTask struct {
	source     ingest.Source
	applicants store.ApplicantStore
	watermarks store.WatermarkStore
	pullLock   *lock.PullLock
	logger     *slog.Logger
}

// NewScrapeTask creates the scrape_new_data handler.
func NewScrapeTask(
	source ingest.Source,
	applicants store.ApplicantStore,
	watermarks store.WatermarkStore,
	pullLock *lock.PullLock,
	log *slog.Logger,
) (*ScrapeTask, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if applicants == nil {
		return nil, ErrNilApplicantStore
	}
	if watermarks == nil {
		return nil, ErrNilWatermarkStore
	}
	if pullLock == nil {
		return nil, ErrNilLock
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	return &ScrapeTask{
		source:     source,
		applicants: applicants,
		watermarks: watermarks,
		pullLock:   pullLock,
		logger:     log,
	}, nil
}

// Kind implements Handler.
func (t *ScrapeTask) Kind() queue.TaskKind {
	return queue.KindScrapeNewData
}

// Handle implements Handler. The pull lock is released on every exit path,
// success or failure, so a failed run never leaves the system stuck busy.
func (t *ScrapeTask) Handle(ctx context.Context, tx *sql.Tx, msg queue.TaskMessage) error {
	log := logger.FromContextOrDefault(ctx, t.logger)

	defer func() {
		if err := t.pullLock.Stop(); err != nil {
			log.Error("failed to release pull lock", "error", err)
		}
	}()

	source := msg.PayloadString("source")
	if source == "" {
		source = t.source.Name()
	}

	since := msg.PayloadString("since")
	if since == "" {
		stored, err := t.watermarks.WithTx(tx).Get(ctx, source)
		if err != nil && !store.IsNotFoundError(err) {
			return fmt.Errorf("reading watermark for %s: %w", source, err)
		}
		since = stored
	}

	rows, err := t.source.FetchSince(ctx, since)
	if err != nil {
		return fmt.Errorf("fetching records since %q: %w", since, err)
	}
	if len(rows) == 0 {
		log.Info("no new records", "source", source, "since", since)
		return nil
	}

	applicants := make([]*domain.Applicant, 0, len(rows))
	maxSeen := ""
	for _, row := range rows {
		if key := row.SortKey(); key > maxSeen {
			maxSeen = key
		}
		a := ingest.Normalize(row)
		if a.URL == "" {
			log.Warn("skipping record without url", "source", source)
			continue
		}
		applicants = append(applicants, a)
	}

	inserted, err := t.applicants.WithTx(tx).InsertBatch(ctx, applicants)
	if err != nil {
		return fmt.Errorf("inserting applicants: %w", err)
	}

	if maxSeen != "" {
		if err := t.watermarks.WithTx(tx).Advance(ctx, source, maxSeen); err != nil {
			return fmt.Errorf("advancing watermark for %s: %w", source, err)
		}
		queue.ObserveWatermark(source, maxSeen)
	}

	log.Info("scrape task processed",
		"source", source,
		"fetched", len(rows),
		"inserted", inserted,
		"watermark", maxSeen)
	return nil
}
