package interfaces

import (
	"time"

	"github.com/ternarybob/invenio/internal/models"
)

// SearchService is the inverted-index document store. Mutators never fail
// the caller: malformed fields are normalized at the boundary and persistence
// failures degrade to logged warnings, leaving in-memory state authoritative.
type SearchService interface {
	AddDocument(doc *models.SearchDocument)
	UpdateDocument(doc *models.SearchDocument)
	RemoveDocument(id string)

	Search(query *models.SearchQuery) []*models.SearchResult
	Suggestions(prefix string, limit int) []string
	Stats() *models.IndexStats
	Clear()
}

// QueryProcessor parses free text into structured intent, entities, and
// filters, and converts the parse into a query the index can execute.
type QueryProcessor interface {
	ParseQuery(text string) *models.ParsedQuery
	ToSearchQuery(parsed *models.ParsedQuery) *models.SearchQuery
	Suggestions(partialQuery string) []string
}

// AnalyticsService records search telemetry and derives aggregate analytics,
// suggestions, and optimization recommendations. Recording is best-effort:
// it never blocks or fails a search.
type AnalyticsService interface {
	RecordSearch(query string, results []*models.SearchResult, filters map[string]string, sessionID, userAgent string) string
	RecordResultClick(searchID, resultID string) bool
	RecordQueryRefinement(searchID, newQuery string) bool

	Analytics() *models.SearchAnalytics
	GenerateSuggestions(currentQuery string) []models.SearchSuggestion
	QueryPerformance(query string) *models.QueryPerformance
	OptimizationRecommendations() []models.Recommendation

	// CloseIdleSessions ends open sessions with no activity for the given
	// duration; the maintenance job calls this periodically.
	CloseIdleSessions(idle time.Duration) int
	Clear()
}
