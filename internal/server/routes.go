package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (activity stream)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Search
	mux.HandleFunc("/api/search", s.app.SearchHandler.SearchHandler)                  // POST - natural language or structured search
	mux.HandleFunc("/api/search/parse", s.app.SearchHandler.ParseHandler)             // POST - parse query without executing
	mux.HandleFunc("/api/search/suggestions", s.app.SearchHandler.SuggestionsHandler) // GET - autocomplete terms and templates

	// API routes - Documents
	mux.HandleFunc("/api/documents/stats", s.app.DocumentHandler.StatsHandler)
	mux.HandleFunc("/api/documents", s.app.DocumentHandler.CaptureHandler)  // POST - capture a document
	mux.HandleFunc("/api/documents/", s.app.DocumentHandler.DocumentRoutes) // PUT/DELETE /{id}
	mux.HandleFunc("/api/index/clear", s.app.DocumentHandler.ClearHandler)

	// API routes - Analytics
	mux.HandleFunc("/api/analytics", s.app.AnalyticsHandler.ReportHandler)
	mux.HandleFunc("/api/analytics/click", s.app.AnalyticsHandler.ClickHandler)
	mux.HandleFunc("/api/analytics/refinement", s.app.AnalyticsHandler.RefinementHandler)
	mux.HandleFunc("/api/analytics/suggestions", s.app.AnalyticsHandler.SuggestionsHandler)
	mux.HandleFunc("/api/analytics/performance", s.app.AnalyticsHandler.PerformanceHandler)
	mux.HandleFunc("/api/analytics/recommendations", s.app.AnalyticsHandler.RecommendationsHandler)
	mux.HandleFunc("/api/analytics/clear", s.app.AnalyticsHandler.ClearHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
