// Package api contains the HTTP handlers of the web service: the enqueue
// endpoints that hand work to the task queue and the read endpoint serving
// the analysis summary.
package api
