// Package store defines the persistence interfaces used by the task
// handlers and the API layer, together with shared error values and the
// transaction helper. Concrete implementations live under
// internal/platform/postgres.
package store
