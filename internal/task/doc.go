// Package task contains the background task handlers and the dispatcher that
// routes queue messages to them. The dispatcher owns the transaction
// boundary: a handler's database work either all commits or all rolls back,
// and the surrounding delivery is acked only on commit.
package task
