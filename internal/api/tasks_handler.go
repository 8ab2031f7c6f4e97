package api

import (
	"log/slog"
	"net/http"

	"github.com/admitlab/admit-api/internal/api/shared"
	"github.com/admitlab/admit-api/internal/lock"
	"github.com/admitlab/admit-api/internal/queue"
)

// EnqueueResponse is returned when a task was accepted onto the queue.
type EnqueueResponse struct {
	OK     bool   `json:"ok"`
	Queued bool   `json:"queued"`
	Kind   string `json:"kind"`
}

// BusyResponse signals that an ingestion run is already in progress.
type BusyResponse struct {
	Busy bool `json:"busy"`
}

// TasksHandler handles the endpoints that enqueue background tasks.
type TasksHandler struct {
	enqueuer queue.TaskEnqueuer
	pullLock *lock.PullLock
	logger   *slog.Logger
}

// NewTasksHandler creates a new TasksHandler.
func NewTasksHandler(enqueuer queue.TaskEnqueuer, pullLock *lock.PullLock, logger *slog.Logger) *TasksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TasksHandler{enqueuer: enqueuer, pullLock: pullLock, logger: logger}
}

// PullData handles POST /api/pull-data requests. It acquires the pull lock
// before publishing so two overlapping requests cannot both enqueue a scrape
// run; the worker releases the lock when the run finishes. If the publish
// fails the lock is released immediately so the client can retry.
func (h *TasksHandler) PullData(w http.ResponseWriter, r *http.Request) {
	acquired, err := h.pullLock.TryStart()
	if err != nil {
		h.logger.Error("failed to acquire pull lock", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to check pull state")
		return
	}
	if !acquired {
		shared.RespondWithJSON(w, r, http.StatusConflict, BusyResponse{Busy: true})
		return
	}

	msg := queue.NewTaskMessage(queue.KindScrapeNewData, nil)
	if err := h.enqueuer.Enqueue(r.Context(), msg); err != nil {
		h.logger.Error("failed to enqueue scrape task", "error", err)
		if stopErr := h.pullLock.Stop(); stopErr != nil {
			h.logger.Error("failed to release pull lock after publish failure", "error", stopErr)
		}
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Task queue unavailable, please retry")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, EnqueueResponse{
		OK:     true,
		Queued: true,
		Kind:   string(queue.KindScrapeNewData),
	})
}

// UpdateAnalysis handles POST /api/update-analysis requests. The endpoint is
// gated on the pull lock but does not take it: a recompute while data is
// being pulled would cache aggregates over a half-finished batch.
func (h *TasksHandler) UpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.pullLock.IsRunning() {
		shared.RespondWithJSON(w, r, http.StatusConflict, BusyResponse{Busy: true})
		return
	}

	msg := queue.NewTaskMessage(queue.KindRecomputeAnalytics, nil)
	if err := h.enqueuer.Enqueue(r.Context(), msg); err != nil {
		h.logger.Error("failed to enqueue recompute task", "error", err)
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Task queue unavailable, please retry")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, EnqueueResponse{
		OK:     true,
		Queued: true,
		Kind:   string(queue.KindRecomputeAnalytics),
	})
}
