// Package queue implements the task transport: the durable broker topology,
// the message envelope, a publisher for enqueueing tasks from the API, and a
// consumer that feeds deliveries to the task dispatcher one at a time.
package queue
