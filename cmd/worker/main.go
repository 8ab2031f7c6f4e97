// Package main implements the entry point for the admit-api worker, which
// consumes background tasks from the broker and processes them against the
// database one at a time.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := newWorker(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize worker: %v", err)
	}
	defer w.cleanup()

	if err := w.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Worker error: %v", err)
	}
}
