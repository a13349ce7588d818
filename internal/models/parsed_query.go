package models

import "time"

// QueryIntent is the coarse classification of what the user is asking for.
type QueryIntent string

const (
	IntentSearch  QueryIntent = "search"
	IntentFilter  QueryIntent = "filter"
	IntentAnalyze QueryIntent = "analyze"
	IntentCompare QueryIntent = "compare"
)

// AmountRange is a monetary constraint extracted from a query.
// Min and Max are nil when the corresponding bound was not stated.
type AmountRange struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// TimeRange is a named time window extracted from a query
// (e.g. "last month").
type TimeRange struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
}

// QueryEntities holds the typed entities extracted from free text.
// Every field is optional; extraction passes leave unmatched fields unset.
type QueryEntities struct {
	Amount     *AmountRange   `json:"amount,omitempty"`
	TimeRange  *TimeRange     `json:"time_range,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Types      []DocumentType `json:"types,omitempty"`
	People     []string       `json:"people,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Locations  []string       `json:"locations,omitempty"`
}

// QueryFilters carries sort directives extracted from the query.
type QueryFilters struct {
	SortBy    string `json:"sort_by,omitempty"`    // "date" or "amount"
	SortOrder string `json:"sort_order,omitempty"` // "asc" or "desc"
}

// ParsedQuery is the output of the natural-language processor.
// Confidence is an additive 0-100 heuristic signal, not a calibrated
// probability; callers must not treat it as one.
type ParsedQuery struct {
	Intent        QueryIntent   `json:"intent"`
	Entities      QueryEntities `json:"entities"`
	Filters       QueryFilters  `json:"filters"`
	OriginalQuery string        `json:"original_query"`
	Confidence    int           `json:"confidence"`
}
