package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const dialAttempts = 10

// Dial connects to the broker, retrying with linear backoff. The broker and
// the services usually start together, so the first attempts routinely fail
// while the broker boots.
func Dial(ctx context.Context, url string, log *slog.Logger) (*amqp.Connection, error) {
	if log == nil {
		log = slog.Default()
	}

	var lastErr error
	for i := 0; i < dialAttempts; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		log.Warn("broker dial failed, retrying",
			"attempt", i+1,
			"of", dialAttempts,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second * time.Duration(i+1)):
		}
	}
	return nil, fmt.Errorf("dialing broker after %d attempts: %w", dialAttempts, lastErr)
}
