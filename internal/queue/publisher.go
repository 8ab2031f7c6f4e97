package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/admitlab/admit-api/internal/platform/logger"
)

// ErrPublishFailed indicates the broker rejected or never received a task
// message. The caller decides whether to surface this as a service error;
// there is no retry here because the HTTP client can simply re-enqueue.
var ErrPublishFailed = errors.New("failed to publish task message")

// TaskEnqueuer is the publishing capability handlers depend on.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, msg TaskMessage) error
}

// Publisher sends persistent task messages to the broker over a shared
// channel.
type Publisher struct {
	ch  Channel
	log *slog.Logger
}

// NewPublisher creates a Publisher on an already-declared topology.
func NewPublisher(ch Channel, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{ch: ch, log: log}
}

// Enqueue implements TaskEnqueuer. The message is published with persistent
// delivery so it survives a broker restart once routed to the durable queue.
// A single attempt is made; on failure the original message is never
// partially delivered, so the caller can safely retry.
func (p *Publisher) Enqueue(ctx context.Context, msg TaskMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.TS.IsZero() {
		msg.TS = time.Now().UTC()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling task message: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, ExchangeName, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID.String(),
		Timestamp:    msg.TS,
		Body:         body,
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, p.log).Error("task publish failed",
			"task_id", msg.ID,
			"kind", msg.Kind,
			"error", err)
		return fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	tasksPublishedTotal.WithLabelValues(string(msg.Kind)).Inc()
	logger.FromContextOrDefault(ctx, p.log).Info("task enqueued",
		"task_id", msg.ID,
		"kind", msg.Kind,
		"exchange", ExchangeName,
		"routing_key", RoutingKey)
	return nil
}
