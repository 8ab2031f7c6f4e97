package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"

	"github.com/admitlab/admit-api/internal/config"
	"github.com/admitlab/admit-api/internal/lock"
	"github.com/admitlab/admit-api/internal/platform/logger"
	"github.com/admitlab/admit-api/internal/platform/postgres"
	"github.com/admitlab/admit-api/internal/queue"
	"github.com/admitlab/admit-api/internal/store"
)

// application bundles the web service's dependencies, wired once at startup
// and injected into handlers by the router.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	db         *sql.DB
	brokerConn *amqp.Connection
	brokerChan *amqp.Channel
	publisher  *queue.Publisher
	pullLock   *lock.PullLock
	analytics  store.AnalyticsStore
	scheduler  *cron.Cron
}

// newApplication loads configuration and constructs every dependency the
// server needs. Fails fast: a missing database or broker at startup is a
// deployment problem, not something to limp through.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

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

	app := &application{
		config:     cfg,
		logger:     log,
		db:         db,
		brokerConn: conn,
		brokerChan: ch,
		publisher:  queue.NewPublisher(ch, log),
		pullLock: lock.New(
			cfg.Ingest.LockPath,
			time.Duration(cfg.Ingest.LockTTLMinutes)*time.Minute,
		),
		analytics: postgres.NewPostgresAnalyticsStore(db, log),
	}

	if cfg.Server.ScrapeCron != "" {
		if err := app.startScheduler(); err != nil {
			return nil, fmt.Errorf("failed to start scrape scheduler: %w", err)
		}
	}

	return app, nil
}

// startScheduler enqueues a scrape task on the configured cron schedule. A
// tick that finds the system busy is skipped; the next one catches up, since
// every run scrapes everything past the watermark.
func (app *application) startScheduler() error {
	app.scheduler = cron.New()

	_, err := app.scheduler.AddFunc(app.config.Server.ScrapeCron, func() {
		acquired, err := app.pullLock.TryStart()
		if err != nil {
			app.logger.Error("scheduled scrape: lock check failed", "error", err)
			return
		}
		if !acquired {
			app.logger.Info("scheduled scrape skipped: pull already running")
			return
		}

		msg := queue.NewTaskMessage(queue.KindScrapeNewData, nil)
		if err := app.publisher.Enqueue(context.Background(), msg); err != nil {
			app.logger.Error("scheduled scrape: enqueue failed", "error", err)
			if stopErr := app.pullLock.Stop(); stopErr != nil {
				app.logger.Error("scheduled scrape: lock release failed", "error", stopErr)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", app.config.Server.ScrapeCron, err)
	}

	app.scheduler.Start()
	app.logger.Info("scrape scheduler started", "schedule", app.config.Server.ScrapeCron)
	return nil
}

// cleanup releases long-lived resources in reverse construction order.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.brokerChan != nil {
		if err := app.brokerChan.Close(); err != nil {
			app.logger.Error("failed to close broker channel", "error", err)
		}
	}
	if app.brokerConn != nil {
		if err := app.brokerConn.Close(); err != nil {
			app.logger.Error("failed to close broker connection", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
