package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// DocumentHandler serves the document ingest API.
type DocumentHandler struct {
	documents interfaces.DocumentService
	index     interfaces.SearchService
	events    interfaces.EventService
	logger    arbor.ILogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents interfaces.DocumentService, index interfaces.SearchService, events interfaces.EventService, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		index:     index,
		events:    events,
		logger:    logger,
	}
}

// CaptureHandler handles POST /api/documents
func (h *DocumentHandler) CaptureHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var doc models.SearchDocument
	if !DecodeJSON(w, r, &doc) {
		return
	}

	id, err := h.documents.Capture(&doc)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"status": "success",
		"id":     id,
	})
}

// DocumentRoutes handles PUT and DELETE on /api/documents/{id}
func (h *DocumentHandler) DocumentRoutes(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var doc models.SearchDocument
		if !DecodeJSON(w, r, &doc) {
			return
		}
		doc.ID = id
		if err := h.documents.Update(&doc); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteSuccess(w, "Document updated")

	case http.MethodDelete:
		h.documents.Delete(id)
		WriteSuccess(w, "Document removed")

	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// StatsHandler handles GET /api/documents/stats
func (h *DocumentHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.documents.Stats())
}

// ClearHandler handles POST /api/index/clear
func (h *DocumentHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	h.index.Clear()

	if h.events != nil {
		if err := h.events.Publish(context.Background(), interfaces.Event{Type: interfaces.EventIndexCleared}); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to publish index cleared event")
		}
	}

	WriteSuccess(w, "Search index cleared")
}
