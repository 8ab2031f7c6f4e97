package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/admitlab/admit-api/internal/platform/logger"
	"github.com/admitlab/admit-api/internal/queue"
	"github.com/admitlab/admit-api/internal/store"
)

// Common errors
var (
	ErrUnknownKind   = errors.New("unknown task kind")
	ErrNilDB         = errors.New("database cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
	ErrDuplicateKind = errors.New("duplicate handler for task kind")
)

// Handler executes one task kind. Handle runs inside a transaction opened by
// the dispatcher; returning an error rolls everything back.
// Version: 1.0
type Handler interface {
	// Kind returns the task kind this handler serves.
	Kind() queue.TaskKind

	// Handle performs the task's work against the given transaction.
	Handle(ctx context.Context, tx *sql.Tx, msg queue.TaskMessage) error
}

// Dispatcher routes task messages to registered handlers, wrapping each run
// in its own database transaction.
type Dispatcher struct {
	db       *sql.DB
	handlers map[queue.TaskKind]Handler
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher with the given handlers.
func NewDispatcher(db *sql.DB, log *slog.Logger, handlers ...Handler) (*Dispatcher, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if log == nil {
		return nil, ErrNilLogger
	}

	m := make(map[queue.TaskKind]Handler, len(handlers))
	for _, h := range handlers {
		if _, exists := m[h.Kind()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKind, h.Kind())
		}
		m[h.Kind()] = h
	}

	return &Dispatcher{db: db, handlers: m, logger: log}, nil
}

// Dispatch implements queue.Dispatcher. An unknown kind is a routing error,
// returned without touching the database; the consumer drops such messages.
func (d *Dispatcher) Dispatch(ctx context.Context, msg queue.TaskMessage) error {
	h, ok := d.handlers[msg.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, msg.Kind)
	}

	log := logger.FromContextOrDefault(ctx, d.logger).With("task_id", msg.ID, "kind", msg.Kind)
	ctx = logger.WithLogger(ctx, log)

	start := time.Now()
	err := store.RunInTransaction(ctx, d.db, func(ctx context.Context, tx *sql.Tx) error {
		return h.Handle(ctx, tx, msg)
	})
	if err != nil {
		log.Error("task handler failed",
			"duration", time.Since(start).String(),
			"error", err)
		return err
	}

	log.Info("task handled", "duration", time.Since(start).String())
	return nil
}
