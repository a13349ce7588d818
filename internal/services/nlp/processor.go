package nlp

import (
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// Processor parses free-text queries into structured intent, entities, and
// filters. Parsing is purely functional: no pass can fail, it simply leaves
// its field unset when nothing matches. Confidence accumulates additively
// across passes and is capped at the configured maximum.
type Processor struct {
	logger arbor.ILogger
	config *common.ParserConfig

	now func() time.Time
}

// NewProcessor creates a natural-language query processor.
func NewProcessor(logger arbor.ILogger, config *common.ParserConfig) interfaces.QueryProcessor {
	return &Processor{
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

var (
	searchIntentPattern  = regexp.MustCompile(`^(find|show( me)?|search( for)?|look( for)?|get( me)?|list)\b`)
	filterIntentPattern  = regexp.MustCompile(`^(only|just|filter)\b`)
	analyzeIntentPattern = regexp.MustCompile(`^(how much|how many|total|sum|average|count)\b`)
	compareIntentPattern = regexp.MustCompile(`^(compare|difference between)\b`)
)

// ParseQuery runs the extraction passes in order: intent, entities, time
// range, filters. Each contributes its configured confidence weight.
func (p *Processor) ParseQuery(text string) *models.ParsedQuery {
	parsed := &models.ParsedQuery{
		Intent:        models.IntentSearch,
		OriginalQuery: text,
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return parsed
	}

	parsed.Intent = detectIntent(lower)
	parsed.Confidence += p.config.IntentConfidence

	entityCount := p.extractEntities(lower, &parsed.Entities)
	parsed.Confidence += entityCount * p.config.EntityConfidence

	if timeRange := resolveTimeRange(lower, p.now()); timeRange != nil {
		parsed.Entities.TimeRange = timeRange
		parsed.Confidence += p.config.TimeRangeConfidence
	}

	parsed.Confidence += p.extractFilters(lower, &parsed.Filters) * p.config.FilterConfidence

	if parsed.Confidence > p.config.MaxConfidence {
		parsed.Confidence = p.config.MaxConfidence
	}

	p.logger.Debug().
		Str("intent", string(parsed.Intent)).
		Int("confidence", parsed.Confidence).
		Msg("Query parsed")

	return parsed
}

// detectIntent tests ordered prefix patterns, then falls back to keyword
// heuristics. There is always an answer; "search" is the default.
func detectIntent(lower string) models.QueryIntent {
	switch {
	case analyzeIntentPattern.MatchString(lower):
		return models.IntentAnalyze
	case compareIntentPattern.MatchString(lower):
		return models.IntentCompare
	case filterIntentPattern.MatchString(lower):
		return models.IntentFilter
	case searchIntentPattern.MatchString(lower):
		return models.IntentSearch
	}

	switch {
	case strings.Contains(lower, "total") || strings.Contains(lower, "sum") || strings.Contains(lower, "how much"):
		return models.IntentAnalyze
	case strings.Contains(lower, "compare") || strings.Contains(lower, " vs "):
		return models.IntentCompare
	case strings.Contains(lower, "only") || strings.Contains(lower, "just") || strings.Contains(lower, "filter"):
		return models.IntentFilter
	}
	return models.IntentSearch
}

// extractFilters maps recency/magnitude keywords onto sort directives.
// Returns the number of filter keys populated.
func (p *Processor) extractFilters(lower string, filters *models.QueryFilters) int {
	switch {
	case containsAny(lower, "most recent", "recent", "latest", "newest"):
		filters.SortBy = "date"
		filters.SortOrder = "desc"
	case containsAny(lower, "oldest", "earliest"):
		filters.SortBy = "date"
		filters.SortOrder = "asc"
	case containsAny(lower, "highest", "most expensive", "largest", "biggest"):
		filters.SortBy = "amount"
		filters.SortOrder = "desc"
	case containsAny(lower, "lowest", "cheapest", "smallest"):
		filters.SortBy = "amount"
		filters.SortOrder = "asc"
	}

	count := 0
	if filters.SortBy != "" {
		count++
	}
	if filters.SortOrder != "" {
		count++
	}
	return count
}

// ToSearchQuery converts a parse into the structured query the index
// consumes. Recognized entity substrings and leading intent keywords are
// stripped from the original text to leave the residual free-text query.
func (p *Processor) ToSearchQuery(parsed *models.ParsedQuery) *models.SearchQuery {
	query := &models.SearchQuery{
		Types: parsed.Entities.Types,
		Tags:  parsed.Entities.Tags,
	}

	if tr := parsed.Entities.TimeRange; tr != nil {
		query.DateRange = &models.DateRange{Start: tr.Start, End: tr.End}
	}

	metadata := make(map[string]string)
	if len(parsed.Entities.Categories) > 0 {
		metadata["category"] = parsed.Entities.Categories[0]
	}
	if len(parsed.Entities.Locations) > 0 {
		metadata["location"] = parsed.Entities.Locations[0]
	}
	if amount := parsed.Entities.Amount; amount != nil && amount.Min != nil && amount.Max != nil && *amount.Min == *amount.Max {
		// Metadata matching is exact equality, so only a point amount
		// can be expressed as a filter
		metadata["amount"] = trimFloat(*amount.Min)
	}
	if len(metadata) > 0 {
		query.Metadata = metadata
	}

	query.Query = p.residualText(parsed)
	return query
}

// residualText strips everything the parser recognized from the original
// query, leaving the free text the index should match.
func (p *Processor) residualText(parsed *models.ParsedQuery) string {
	text := strings.ToLower(strings.TrimSpace(parsed.OriginalQuery))

	text = searchIntentPattern.ReplaceAllString(text, " ")
	text = analyzeIntentPattern.ReplaceAllString(text, " ")
	text = compareIntentPattern.ReplaceAllString(text, " ")
	text = filterIntentPattern.ReplaceAllString(text, " ")

	if tr := parsed.Entities.TimeRange; tr != nil && tr.Description != "" {
		text = strings.ReplaceAll(text, tr.Description, " ")
	}
	if parsed.Entities.Amount != nil {
		text = amountPattern.ReplaceAllString(text, " ")
		for _, keyword := range amountContextKeywords {
			text = removeWord(text, keyword)
		}
	}

	text = handlePattern.ReplaceAllString(text, " ")
	text = hashtagPattern.ReplaceAllString(text, " ")

	for _, category := range parsed.Entities.Categories {
		for _, keyword := range categoryKeywords(category) {
			text = removeWord(text, keyword)
		}
	}
	for _, docType := range parsed.Entities.Types {
		for _, keyword := range typeKeywords(docType) {
			text = removeWord(text, keyword)
		}
	}
	for _, location := range parsed.Entities.Locations {
		text = removeWord(text, location)
	}
	if parsed.Filters.SortBy != "" {
		for _, keyword := range sortKeywords {
			text = strings.ReplaceAll(text, keyword, " ")
		}
	}

	for _, noise := range []string{" on ", " from ", " in ", " at ", " did i spend ", " i spent ", " spent "} {
		text = strings.ReplaceAll(text, noise, " ")
	}

	return strings.Join(strings.Fields(text), " ")
}

var sortKeywords = []string{
	"most recent", "most expensive", "recent", "latest", "newest",
	"oldest", "earliest", "highest", "largest", "biggest",
	"lowest", "cheapest", "smallest",
}

func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// removeWord removes whole-word occurrences of keyword (and its plural)
// from text.
func removeWord(text, keyword string) string {
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `s?\b`)
	return pattern.ReplaceAllString(text, " ")
}
