package models

import (
	"fmt"
	"strings"
	"time"
)

// DocumentType identifies the domain a document came from.
// The set is closed: collaborators must map their own records onto one of these.
type DocumentType string

const (
	TypeExpense      DocumentType = "expense"
	TypeContact      DocumentType = "contact"
	TypeDiary        DocumentType = "diary"
	TypeCalendar     DocumentType = "calendar"
	TypeShoppingList DocumentType = "shopping-list"
	TypePhoto        DocumentType = "photo"
	TypeEmail        DocumentType = "email"
)

// DocumentTypes lists every valid document type.
var DocumentTypes = []DocumentType{
	TypeExpense,
	TypeContact,
	TypeDiary,
	TypeCalendar,
	TypeShoppingList,
	TypePhoto,
	TypeEmail,
}

// Valid reports whether t is one of the closed document type set.
func (t DocumentType) Valid() bool {
	for _, dt := range DocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// ParseDocumentType converts a string to a DocumentType, case-insensitively.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown document type: %q", s)
	}
	return t, nil
}

// SearchDocument is a unit of indexed content.
// ID is the stable identity across updates. Searchable is the flattened text
// the index tokenizes; it must be regenerated whenever Title, Content, or
// Metadata change (the document service owns that invariant).
type SearchDocument struct {
	ID         string                 `json:"id" validate:"required"`
	Type       DocumentType           `json:"type" validate:"required"`
	Title      string                 `json:"title"`
	Content    string                 `json:"content"`
	Searchable string                 `json:"searchable"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp" validate:"required"`
	Tags       []string               `json:"tags,omitempty"`
}

// NormalizedTags returns the document's tags lower-cased, trimmed, and
// deduplicated. Tags are case-insensitive labels throughout the index.
func (d *SearchDocument) NormalizedTags() []string {
	if len(d.Tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(d.Tags))
	tags := make([]string, 0, len(d.Tags))
	for _, tag := range d.Tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

// DateKey returns the UTC calendar date (YYYY-MM-DD) the document is
// bucketed under in the date index.
func (d *SearchDocument) DateKey() string {
	return d.Timestamp.UTC().Format("2006-01-02")
}

// IndexStats summarizes the state of the search index.
type IndexStats struct {
	TotalDocuments  int            `json:"total_documents"`
	DocumentsByType map[string]int `json:"documents_by_type"`
	TagCount        int            `json:"tag_count"`
	WordCount       int            `json:"word_count"`
	ApproxSize      string         `json:"approx_size"`
}

// IndexState is the persisted form of the search index: the primary document
// map serialized as a single JSON blob under a fixed key. Secondary indices
// (word, tag, type, date) are deterministic projections of the documents and
// are rebuilt on load.
type IndexState struct {
	Documents map[string]*SearchDocument `json:"documents"`
}
