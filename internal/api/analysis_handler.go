package api

import (
	"log/slog"
	"net/http"

	"github.com/admitlab/admit-api/internal/api/shared"
	"github.com/admitlab/admit-api/internal/lock"
	"github.com/admitlab/admit-api/internal/store"
)

// AnalysisResponse wraps the aggregate summary together with the busy flag
// clients use to disable the pull/update actions.
type AnalysisResponse struct {
	Analysis    *store.AnalysisSummary `json:"analysis"`
	PullRunning bool                   `json:"pull_running"`
}

// AnalysisHandler serves the read side: cached aggregates over the stored
// applicant data.
type AnalysisHandler struct {
	analytics store.AnalyticsStore
	pullLock  *lock.PullLock
	logger    *slog.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analytics store.AnalyticsStore, pullLock *lock.PullLock, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{analytics: analytics, pullLock: pullLock, logger: logger}
}

// GetAnalysis handles GET /api/analysis requests.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.Context())
	if err != nil {
		h.logger.Error("failed to load analysis summary", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to load analysis")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AnalysisResponse{
		Analysis:    summary,
		PullRunning: h.pullLock.IsRunning(),
	})
}
