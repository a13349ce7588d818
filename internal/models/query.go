package models

import "time"

// MatchType classifies why a result matched.
type MatchType string

const (
	// MatchExact means the full query string appears in the title or
	// searchable text.
	MatchExact MatchType = "exact"
	// MatchFuzzy means individual terms matched exactly or by prefix.
	MatchFuzzy MatchType = "fuzzy"
	// MatchTag means a requested tag matched one of the document's tags.
	MatchTag MatchType = "tag"
)

// DateRange is an inclusive [Start, End] time window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the range, inclusive of both ends.
func (r *DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// SearchQuery is the structured query the index consumes. Absent filters are
// skipped during candidate selection; they never empty the candidate set.
type SearchQuery struct {
	Query     string            `json:"query,omitempty"`
	Types     []DocumentType    `json:"types,omitempty"`
	DateRange *DateRange        `json:"date_range,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Limit     int               `json:"limit,omitempty"`
	Offset    int               `json:"offset,omitempty"`
}

// HasFilters reports whether any filter or text is set. A query with no
// filters at all matches every document.
func (q *SearchQuery) HasFilters() bool {
	return q.Query != "" || len(q.Types) > 0 || q.DateRange != nil ||
		len(q.Tags) > 0 || len(q.Metadata) > 0
}

// SearchResult pairs a matched document with its relevance score.
// Score is an unbounded non-negative float; zero-score documents are never
// returned.
type SearchResult struct {
	Document   *SearchDocument `json:"document"`
	Score      float64         `json:"score"`
	Highlights []string        `json:"highlights,omitempty"`
	MatchType  MatchType       `json:"match_type"`
}
