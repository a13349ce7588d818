package models

import "time"

// SearchEvent records a single executed search. Events are append-only,
// capped in memory and again when persisted.
type SearchEvent struct {
	ID             string            `json:"id"`
	Query          string            `json:"query"` // normalized: lower-cased, trimmed
	Timestamp      time.Time         `json:"timestamp"`
	ResultCount    int               `json:"result_count"`
	ResultTypes    map[string]int    `json:"result_types,omitempty"` // result count per document type
	AvgScore       float64           `json:"avg_score"`
	ClickedResults []string          `json:"clicked_results,omitempty"`
	Refinements    []string          `json:"refinements,omitempty"`
	SessionID      string            `json:"session_id"`
	UserAgent      string            `json:"user_agent,omitempty"`
	Filters        map[string]string `json:"filters,omitempty"`
}

// SearchSession groups consecutive searches for click-rate and duration
// analytics. A session ends when a newer session replaces it or the
// maintenance sweep closes it after inactivity.
type SearchSession struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	LastActivity time.Time  `json:"last_activity"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	SearchCount  int        `json:"search_count"`
	ClickCount   int        `json:"click_count"`
}

// QueryPerformance tracks aggregate behaviour of one normalized query string.
// AvgResultCount and AvgRelevanceScore use the historical smoothing where
// each new observation is averaged with the prior aggregate rather than a
// true cumulative mean; changing that silently changes every stored figure.
type QueryPerformance struct {
	Query             string    `json:"query"`
	SearchCount       int       `json:"search_count"`
	AvgResultCount    float64   `json:"avg_result_count"`
	AvgRelevanceScore float64   `json:"avg_relevance_score"`
	ClickThroughRate  float64   `json:"click_through_rate"`
	RefinementRate    float64   `json:"refinement_rate"`
	LastSearched      time.Time `json:"last_searched"`
}

// QueryFrequency is a query ranked by how often it was issued.
type QueryFrequency struct {
	Query    string    `json:"query"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"last_used"`
}

// QueryClickRate is a query ranked by click-through rate.
type QueryClickRate struct {
	Query            string  `json:"query"`
	ClickThroughRate float64 `json:"click_through_rate"`
	Searches         int     `json:"searches"`
}

// FilterUsage counts how often a filter key/value was applied.
type FilterUsage struct {
	Filter string `json:"filter"`
	Count  int    `json:"count"`
}

// TrendPoint is one day of search volume.
type TrendPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// HourCount is search volume for one local hour of day (0-23).
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// SearchAnalytics is the aggregate report computed from the event log.
type SearchAnalytics struct {
	TotalSearches          int                `json:"total_searches"`
	UniqueQueries          int                `json:"unique_queries"`
	AvgResultsPerSearch    float64            `json:"avg_results_per_search"`
	TopQueries             []QueryFrequency   `json:"top_queries"`
	SearchTrend            []TrendPoint       `json:"search_trend"`
	TopClickRates          []QueryClickRate   `json:"top_click_rates"`
	TopFilters             []FilterUsage      `json:"top_filters"`
	AvgQueryLength         float64            `json:"avg_query_length"`
	ResultTypeDistribution map[string]float64 `json:"result_type_distribution"`
	PeakHours              []HourCount        `json:"peak_hours"`
	AvgSessionDuration     float64            `json:"avg_session_duration_seconds"`
}

// SuggestionType classifies where a suggestion came from.
type SuggestionType string

const (
	SuggestionSimilar      SuggestionType = "similar"
	SuggestionTrending     SuggestionType = "trending"
	SuggestionPersonalized SuggestionType = "personalized"
	SuggestionFilter       SuggestionType = "filter"
)

// SearchSuggestion is a recommended query. Confidence is a fixed per-category
// constant in [0,1], not computed from the data.
type SearchSuggestion struct {
	Query      string         `json:"query"`
	Type       SuggestionType `json:"type"`
	Confidence float64        `json:"confidence"`
}

// RecommendationType classifies an optimization recommendation.
type RecommendationType string

const (
	RecommendationLowClickRate   RecommendationType = "low_click_rate"
	RecommendationHighRefinement RecommendationType = "high_refinement"
	RecommendationPeakHour       RecommendationType = "peak_hour"
	RecommendationLowDiversity   RecommendationType = "low_diversity"
)

// Recommendation is a rule-based observation about search behaviour.
type Recommendation struct {
	Type     RecommendationType `json:"type"`
	Severity string             `json:"severity"` // "info" or "warning"
	Query    string             `json:"query,omitempty"`
	Message  string             `json:"message"`
}

// AnalyticsState is the persisted form of the analytics engine: a single
// JSON blob under a fixed key. The current-session id is not persisted;
// sessions do not survive a process restart.
type AnalyticsState struct {
	Events      []*SearchEvent               `json:"events"`
	Sessions    map[string]*SearchSession    `json:"sessions"`
	Performance map[string]*QueryPerformance `json:"performance"`
}
