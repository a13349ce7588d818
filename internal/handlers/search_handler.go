package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// SearchHandler serves the search API: free-text search through the
// natural-language parser, structured search, and suggestions.
type SearchHandler struct {
	index     interfaces.SearchService
	processor interfaces.QueryProcessor
	analytics interfaces.AnalyticsService
	events    interfaces.EventService
	logger    arbor.ILogger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(index interfaces.SearchService, processor interfaces.QueryProcessor, analytics interfaces.AnalyticsService, events interfaces.EventService, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{
		index:     index,
		processor: processor,
		analytics: analytics,
		events:    events,
		logger:    logger,
	}
}

// searchRequest accepts either free text (parsed by the NLP layer) or a
// structured query. Text wins when both are present.
type searchRequest struct {
	Text      string              `json:"text,omitempty"`
	Query     *models.SearchQuery `json:"query,omitempty"`
	SessionID string              `json:"session_id,omitempty"`
}

type searchResponse struct {
	SearchID string                 `json:"search_id"`
	Parsed   *models.ParsedQuery    `json:"parsed,omitempty"`
	Results  []*models.SearchResult `json:"results"`
	Count    int                    `json:"count"`
}

// SearchHandler handles GET and POST /api/search. GET takes free text in the
// q parameter; POST takes a JSON body with free text or a structured query.
func (h *SearchHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest

	limit, offset := 0, 0

	switch r.Method {
	case http.MethodGet:
		req.Text = r.URL.Query().Get("q")
		req.SessionID = r.URL.Query().Get("session_id")
		limit = queryInt(r, "limit")
		offset = queryInt(r, "offset")
	case http.MethodPost:
		if !DecodeJSON(w, r, &req) {
			return
		}
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var parsed *models.ParsedQuery
	query := req.Query
	rawQuery := ""

	switch {
	case req.Text != "":
		parsed = h.processor.ParseQuery(req.Text)
		query = h.processor.ToSearchQuery(parsed)
		rawQuery = req.Text
	case query != nil:
		rawQuery = query.Query
	default:
		WriteError(w, http.StatusBadRequest, "Either 'text' or 'query' is required")
		return
	}

	if limit > 0 {
		query.Limit = limit
	}
	if offset > 0 {
		query.Offset = offset
	}

	results := h.index.Search(query)

	// Telemetry is best-effort and never fails the search
	searchID := h.analytics.RecordSearch(rawQuery, results, query.Metadata, req.SessionID, r.UserAgent())

	h.publishSearch(r, rawQuery, len(results))

	WriteJSON(w, http.StatusOK, searchResponse{
		SearchID: searchID,
		Parsed:   parsed,
		Results:  results,
		Count:    len(results),
	})
}

// ParseHandler handles POST /api/search/parse, exposing the parser output
// without executing a search.
func (h *SearchHandler) ParseHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		WriteError(w, http.StatusBadRequest, "'text' is required")
		return
	}

	parsed := h.processor.ParseQuery(req.Text)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"parsed": parsed,
		"query":  h.processor.ToSearchQuery(parsed),
	})
}

// SuggestionsHandler handles GET /api/search/suggestions. The prefix
// parameter drives index vocabulary completion; the full partial query
// drives template suggestions.
func (h *SearchHandler) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	partial := r.URL.Query().Get("q")
	limit := queryInt(r, "limit")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"terms":     h.index.Suggestions(partial, limit),
		"templates": h.processor.Suggestions(partial),
		"history":   h.analytics.GenerateSuggestions(partial),
	})
}

func (h *SearchHandler) publishSearch(r *http.Request, query string, resultCount int) {
	if h.events == nil {
		return
	}
	err := h.events.Publish(r.Context(), interfaces.Event{
		Type: interfaces.EventSearchExecuted,
		Payload: map[string]interface{}{
			"query":        query,
			"result_count": resultCount,
		},
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to publish search event")
	}
}
