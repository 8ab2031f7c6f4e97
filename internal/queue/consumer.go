package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/admitlab/admit-api/internal/platform/logger"
)

// Dispatcher routes a decoded task message to its handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg TaskMessage) error
}

// Consumer pulls task messages off the durable queue and hands each one to
// the dispatcher. Prefetch caps how many unacknowledged deliveries a single
// worker holds, which is the backpressure mechanism: with prefetch 1 the
// broker sends the next task only after the previous one is acked or nacked.
type Consumer struct {
	ch         Channel
	dispatcher Dispatcher
	prefetch   int
	log        *slog.Logger
}

// NewConsumer creates a Consumer on an already-declared topology.
func NewConsumer(ch Channel, dispatcher Dispatcher, prefetch int, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{ch: ch, dispatcher: dispatcher, prefetch: prefetch, log: log}
}

// Run consumes until ctx is cancelled or the delivery channel closes (broker
// connection lost). Every delivery is explicitly acked or nacked; failed and
// malformed messages are nacked without requeue so a poison message cannot
// loop forever.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("setting prefetch: %w", err)
	}

	deliveries, err := c.ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("starting consume on %s: %w", QueueName, err)
	}

	c.log.Info("consuming task queue", "queue", QueueName, "prefetch", c.prefetch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", QueueName)
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	log := logger.FromContextOrDefault(ctx, c.log)

	var msg TaskMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Warn("dropping malformed task message", "error", err)
		tasksConsumedTotal.WithLabelValues("unknown", outcomeInvalid).Inc()
		c.nack(d, log)
		return
	}
	if err := msg.Validate(); err != nil {
		log.Warn("dropping invalid task message", "error", err)
		tasksConsumedTotal.WithLabelValues(string(msg.Kind), outcomeInvalid).Inc()
		c.nack(d, log)
		return
	}

	if err := c.dispatcher.Dispatch(ctx, msg); err != nil {
		log.Error("task failed", "kind", msg.Kind, "error", err)
		tasksConsumedTotal.WithLabelValues(string(msg.Kind), outcomeFailure).Inc()
		c.nack(d, log)
		return
	}

	tasksConsumedTotal.WithLabelValues(string(msg.Kind), outcomeSuccess).Inc()
	if err := d.Ack(false); err != nil {
		log.Error("ack failed", "kind", msg.Kind, "error", err)
	}
}

// nack drops the delivery without requeue. Requeueing a message its handler
// cannot process would make the worker spin on it under prefetch 1.
func (c *Consumer) nack(d amqp.Delivery, log *slog.Logger) {
	if err := d.Nack(false, false); err != nil {
		log.Error("nack failed", "error", err)
	}
}
