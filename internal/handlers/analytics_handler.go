package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
)

// AnalyticsHandler serves the search analytics API.
type AnalyticsHandler struct {
	analytics interfaces.AnalyticsService
	logger    arbor.ILogger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics interfaces.AnalyticsService, logger arbor.ILogger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    logger,
	}
}

// ReportHandler handles GET /api/analytics
func (h *AnalyticsHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.analytics.Analytics())
}

// ClickHandler handles POST /api/analytics/click
func (h *AnalyticsHandler) ClickHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		SearchID string `json:"search_id"`
		ResultID string `json:"result_id"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.SearchID == "" || req.ResultID == "" {
		WriteError(w, http.StatusBadRequest, "'search_id' and 'result_id' are required")
		return
	}

	if !h.analytics.RecordResultClick(req.SearchID, req.ResultID) {
		WriteError(w, http.StatusNotFound, "Unknown search id")
		return
	}
	WriteSuccess(w, "Click recorded")
}

// RefinementHandler handles POST /api/analytics/refinement
func (h *AnalyticsHandler) RefinementHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		SearchID string `json:"search_id"`
		NewQuery string `json:"new_query"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.SearchID == "" || req.NewQuery == "" {
		WriteError(w, http.StatusBadRequest, "'search_id' and 'new_query' are required")
		return
	}

	if !h.analytics.RecordQueryRefinement(req.SearchID, req.NewQuery) {
		WriteError(w, http.StatusNotFound, "Unknown search id")
		return
	}
	WriteSuccess(w, "Refinement recorded")
}

// SuggestionsHandler handles GET /api/analytics/suggestions
func (h *AnalyticsHandler) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	suggestions := h.analytics.GenerateSuggestions(r.URL.Query().Get("q"))
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// PerformanceHandler handles GET /api/analytics/performance
func (h *AnalyticsHandler) PerformanceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		WriteError(w, http.StatusBadRequest, "'query' parameter is required")
		return
	}

	perf := h.analytics.QueryPerformance(query)
	if perf == nil {
		WriteError(w, http.StatusNotFound, "No performance record for query")
		return
	}
	WriteJSON(w, http.StatusOK, perf)
}

// RecommendationsHandler handles GET /api/analytics/recommendations
func (h *AnalyticsHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.analytics.OptimizationRecommendations())
}

// ClearHandler handles POST /api/analytics/clear
func (h *AnalyticsHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	h.analytics.Clear()
	WriteSuccess(w, "Analytics cleared")
}
