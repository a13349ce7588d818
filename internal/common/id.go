package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewSearchID generates a unique search event ID with the "search_" prefix
// Format: search_<uuid>
func NewSearchID() string {
	return "search_" + uuid.New().String()
}

// NewSessionID generates a unique search session ID with the "session_" prefix
// Format: session_<uuid>
func NewSessionID() string {
	return "session_" + uuid.New().String()
}
