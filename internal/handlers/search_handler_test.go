package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
	"github.com/ternarybob/invenio/internal/services/analytics"
	"github.com/ternarybob/invenio/internal/services/documents"
	"github.com/ternarybob/invenio/internal/services/index"
	"github.com/ternarybob/invenio/internal/services/nlp"
)

// newTestHandlers wires real services against in-memory state so handler
// tests exercise the full request path.
func newTestHandlers(t *testing.T) (*SearchHandler, *DocumentHandler, *AnalyticsHandler) {
	t.Helper()

	logger := arbor.NewLogger()
	cfg := common.NewDefaultConfig()

	idx := index.NewService(logger, nil, &cfg.Search)
	processor := nlp.NewProcessor(logger, &cfg.Parser)
	engine := analytics.NewEngine(logger, nil, &cfg.Analytics, &cfg.Suggestions)
	docs := documents.NewService(logger, idx, nil)

	search := NewSearchHandler(idx, processor, engine, nil, logger)
	document := NewDocumentHandler(docs, idx, nil, logger)
	analyticsHandler := NewAnalyticsHandler(engine, logger)
	return search, document, analyticsHandler
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func captureDocument(t *testing.T, document *DocumentHandler, doc *models.SearchDocument) string {
	t.Helper()

	rec := postJSON(t, document.CaptureHandler, "/api/documents", doc)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp["id"]
}

func TestSearchHandlerFreeText(t *testing.T) {
	search, document, _ := newTestHandlers(t)

	captureDocument(t, document, &models.SearchDocument{
		Title:     "Grocery receipt",
		Content:   "Bought groceries at the supermarket",
		Type:      "expense",
		Timestamp: time.Now(),
	})

	rec := postJSON(t, search.SearchHandler, "/api/search", map[string]string{
		"text": "find grocery expenses",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		SearchID string                 `json:"search_id"`
		Parsed   *models.ParsedQuery    `json:"parsed"`
		Results  []*models.SearchResult `json:"results"`
		Count    int                    `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.NotEmpty(t, resp.SearchID)
	require.NotNil(t, resp.Parsed)
	assert.Equal(t, models.IntentSearch, resp.Parsed.Intent)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Grocery receipt", resp.Results[0].Document.Title)
}

func TestSearchHandlerStructuredQuery(t *testing.T) {
	search, document, _ := newTestHandlers(t)

	captureDocument(t, document, &models.SearchDocument{
		Title:     "Team meeting notes",
		Content:   "Discussed roadmap",
		Type:      "diary",
		Timestamp: time.Now(),
	})

	rec := postJSON(t, search.SearchHandler, "/api/search", map[string]interface{}{
		"query": map[string]interface{}{
			"query": "roadmap",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Parsed *models.ParsedQuery `json:"parsed"`
		Count  int                 `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Nil(t, resp.Parsed)
	assert.Equal(t, 1, resp.Count)
}

func TestSearchHandlerRequiresInput(t *testing.T) {
	search, _, _ := newTestHandlers(t)

	rec := postJSON(t, search.SearchHandler, "/api/search", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandlerGetFreeText(t *testing.T) {
	search, document, _ := newTestHandlers(t)

	captureDocument(t, document, &models.SearchDocument{
		Title:     "Team meeting notes",
		Content:   "Discussed roadmap",
		Type:      "diary",
		Timestamp: time.Now(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=roadmap&limit=5", nil)
	rec := httptest.NewRecorder()
	search.SearchHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)

	req = httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec = httptest.NewRecorder()
	search.SearchHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/search", nil)
	rec = httptest.NewRecorder()
	search.SearchHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSuggestionsHandlerMergesSources(t *testing.T) {
	search, document, _ := newTestHandlers(t)

	captureDocument(t, document, &models.SearchDocument{
		Title:     "Grocery receipt",
		Content:   "groceries",
		Type:      "expense",
		Timestamp: time.Now(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=groc", nil)
	rec := httptest.NewRecorder()
	search.SuggestionsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Terms     []string `json:"terms"`
		Templates []string `json:"templates"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Terms, "groceries")

	req = httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=expense", nil)
	rec = httptest.NewRecorder()
	search.SuggestionsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	resp.Templates = nil
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Templates)
}

func TestDocumentRoutesUpdateAndDelete(t *testing.T) {
	search, document, _ := newTestHandlers(t)

	id := captureDocument(t, document, &models.SearchDocument{
		Title:     "Old title",
		Content:   "original content",
		Type:      "diary",
		Timestamp: time.Now(),
	})

	body, err := json.Marshal(&models.SearchDocument{
		Title:     "New title",
		Content:   "replacement content",
		Type:      "diary",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/documents/"+id, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	document.DocumentRoutes(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = postJSON(t, search.SearchHandler, "/api/search", map[string]interface{}{
		"query": map[string]interface{}{"query": "replacement"},
	})
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)

	req = httptest.NewRequest(http.MethodDelete, "/api/documents/"+id, nil)
	rec2 := httptest.NewRecorder()
	document.DocumentRoutes(rec2, req)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestCaptureHandlerRejectsInvalidDocument(t *testing.T) {
	_, document, _ := newTestHandlers(t)

	rec := postJSON(t, document.CaptureHandler, "/api/documents", &models.SearchDocument{
		Title:     "Mystery",
		Content:   "no such type",
		Type:      "spreadsheet",
		Timestamp: time.Now(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClickHandlerUnknownSearch(t *testing.T) {
	_, _, analyticsHandler := newTestHandlers(t)

	rec := postJSON(t, analyticsHandler.ClickHandler, "/api/analytics/click", map[string]string{
		"search_id": "search_missing",
		"result_id": "doc_1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyticsFlowThroughHandlers(t *testing.T) {
	search, document, analyticsHandler := newTestHandlers(t)

	captureDocument(t, document, &models.SearchDocument{
		Title:     "Coffee receipt",
		Content:   "coffee at the cafe",
		Type:      "expense",
		Timestamp: time.Now(),
	})

	rec := postJSON(t, search.SearchHandler, "/api/search", map[string]string{"text": "find coffee"})
	require.Equal(t, http.StatusOK, rec.Code)

	var searchResp struct {
		SearchID string                 `json:"search_id"`
		Results  []*models.SearchResult `json:"results"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&searchResp))
	require.NotEmpty(t, searchResp.Results)

	rec = postJSON(t, analyticsHandler.ClickHandler, "/api/analytics/click", map[string]string{
		"search_id": searchResp.SearchID,
		"result_id": searchResp.Results[0].Document.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/performance?query=find+coffee", nil)
	rec2 := httptest.NewRecorder()
	analyticsHandler.PerformanceHandler(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code)

	var perf models.QueryPerformance
	require.NoError(t, json.NewDecoder(rec2.Body).Decode(&perf))
	assert.Equal(t, 1.0, perf.ClickThroughRate)
}

// recordingAnalytics captures the arguments the handler forwards.
type recordingAnalytics struct {
	interfaces.AnalyticsService
	lastUserAgent string
}

func (r *recordingAnalytics) RecordSearch(query string, results []*models.SearchResult, filters map[string]string, sessionID, userAgent string) string {
	r.lastUserAgent = userAgent
	return r.AnalyticsService.RecordSearch(query, results, filters, sessionID, userAgent)
}

func TestSearchHandlerForwardsUserAgent(t *testing.T) {
	logger := arbor.NewLogger()
	cfg := common.NewDefaultConfig()

	idx := index.NewService(logger, nil, &cfg.Search)
	processor := nlp.NewProcessor(logger, &cfg.Parser)
	engine := &recordingAnalytics{AnalyticsService: analytics.NewEngine(logger, nil, &cfg.Analytics, &cfg.Suggestions)}
	search := NewSearchHandler(idx, processor, engine, nil, logger)

	data, err := json.Marshal(map[string]string{"text": "coffee"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader(data))
	req.Header.Set("User-Agent", "invenio-client/1.0")
	rec := httptest.NewRecorder()
	search.SearchHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "invenio-client/1.0", engine.lastUserAgent)
}
