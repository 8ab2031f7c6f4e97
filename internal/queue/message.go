package queue

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskKind identifies a background task type.
type TaskKind string

// Task kinds the worker understands.
const (
	KindScrapeNewData      TaskKind = "scrape_new_data"
	KindRecomputeAnalytics TaskKind = "recompute_analytics"
)

// ErrEmptyKind indicates a task message without a kind.
var ErrEmptyKind = errors.New("task message kind cannot be empty")

// TaskMessage is the JSON envelope carried on the queue. ID correlates a
// message across producer and worker logs; Payload holds kind-specific
// parameters and may be empty.
type TaskMessage struct {
	ID      uuid.UUID      `json:"id"`
	Kind    TaskKind       `json:"kind"`
	TS      time.Time      `json:"ts"`
	Payload map[string]any `json:"payload,omitempty"`
}

// NewTaskMessage builds an envelope with a fresh ID, stamped with the
// current UTC time.
func NewTaskMessage(kind TaskKind, payload map[string]any) TaskMessage {
	return TaskMessage{
		ID:      uuid.New(),
		Kind:    kind,
		TS:      time.Now().UTC(),
		Payload: payload,
	}
}

// Validate checks structural validity of the envelope. Whether the kind is
// routable is the dispatcher's call, not the transport's.
func (m TaskMessage) Validate() error {
	if m.Kind == "" {
		return ErrEmptyKind
	}
	return nil
}

// PayloadString reads a string field from the payload, tolerating absence.
func (m TaskMessage) PayloadString(key string) string {
	v, ok := m.Payload[key]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
