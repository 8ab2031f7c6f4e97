package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/admitlab/admit-api/internal/config"
	"github.com/admitlab/admit-api/internal/ingest"
	"github.com/admitlab/admit-api/internal/lock"
	"github.com/admitlab/admit-api/internal/platform/logger"
	"github.com/admitlab/admit-api/internal/platform/postgres"
	"github.com/admitlab/admit-api/internal/queue"
	"github.com/admitlab/admit-api/internal/task"
)

// worker bundles the consumer process dependencies.
type worker struct {
	config     *config.Config
	logger     *slog.Logger
	db         *sql.DB
	brokerConn *amqp.Connection
	brokerChan *amqp.Channel
	consumer   *queue.Consumer
}

// newWorker loads configuration and constructs the consumer with its task
// handlers.
func newWorker(ctx context.Context) (*worker, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("Worker configuration loaded",
		"prefetch", cfg.Worker.Prefetch,
		"metrics_port", cfg.Worker.MetricsPort,
		"source", cfg.Ingest.Source)

	db, err := postgres.NewDB(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgres.MigrateUp(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := queue.Dial(ctx, cfg.Broker.URL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open broker channel: %w", err)
	}
	if err := queue.DeclareTopology(ch); err != nil {
		return nil, fmt.Errorf("failed to declare broker topology: %w", err)
	}

	pullLock := lock.New(
		cfg.Ingest.LockPath,
		time.Duration(cfg.Ingest.LockTTLMinutes)*time.Minute,
	)
	source := ingest.NewFileSource(cfg.Ingest.Source, cfg.Ingest.DataFile)

	scrapeTask, err := task.NewScrapeTask(
		source,
		postgres.NewPostgresApplicantStore(db, log),
		postgres.NewPostgresWatermarkStore(db, log),
		pullLock,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build scrape handler: %w", err)
	}

	recomputeTask, err := task.NewRecomputeTask(postgres.NewPostgresAnalyticsStore(db, log), log)
	if err != nil {
		return nil, fmt.Errorf("failed to build recompute handler: %w", err)
	}

	dispatcher, err := task.NewDispatcher(db, log, scrapeTask, recomputeTask)
	if err != nil {
		return nil, fmt.Errorf("failed to build dispatcher: %w", err)
	}

	return &worker{
		config:     cfg,
		logger:     log,
		db:         db,
		brokerConn: conn,
		brokerChan: ch,
		consumer:   queue.NewConsumer(ch, dispatcher, cfg.Worker.Prefetch, log),
	}, nil
}

// run serves metrics in the background and consumes tasks until ctx is
// cancelled.
func (w *worker) run(ctx context.Context) error {
	startMetricsServer(ctx, w.config.Worker.MetricsPort, w.logger)
	return w.consumer.Run(ctx)
}

// cleanup releases long-lived resources in reverse construction order.
func (w *worker) cleanup() {
	if w.brokerChan != nil {
		if err := w.brokerChan.Close(); err != nil {
			w.logger.Error("failed to close broker channel", "error", err)
		}
	}
	if w.brokerConn != nil {
		if err := w.brokerConn.Close(); err != nil {
			w.logger.Error("failed to close broker connection", "error", err)
		}
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			w.logger.Error("failed to close database", "error", err)
		}
	}
}
