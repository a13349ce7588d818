package analytics

import (
	"sort"
	"strings"

	"github.com/ternarybob/invenio/internal/models"
)

const (
	similarSuggestionCount      = 3
	trendingSuggestionCount     = 3
	personalizedSuggestionCount = 3
	filterSuggestionCount       = 2
)

// GenerateSuggestions merges similar, trending, personalized, and
// filter-based suggestions, sorted by confidence descending and capped at
// the configured maximum. Each category carries a fixed confidence constant.
// A query may appear under more than one category; duplicates are only
// dropped within a category.
func (e *Engine) GenerateSuggestions(currentQuery string) []models.SearchSuggestion {
	current := normalizeQuery(currentQuery)

	e.mu.Lock()
	defer e.mu.Unlock()

	suggestions := make([]models.SearchSuggestion, 0, 8)
	seen := make(map[models.SuggestionType]map[string]struct{})

	add := func(query string, kind models.SuggestionType, confidence float64) {
		if query == "" || query == current {
			return
		}
		if seen[kind] == nil {
			seen[kind] = make(map[string]struct{})
		}
		if _, dup := seen[kind][query]; dup {
			return
		}
		seen[kind][query] = struct{}{}
		suggestions = append(suggestions, models.SearchSuggestion{
			Query:      query,
			Type:       kind,
			Confidence: confidence,
		})
	}

	if current != "" {
		for _, query := range e.similarQueries(current, similarSuggestionCount) {
			add(query, models.SuggestionSimilar, e.suggestConfig.SimilarConfidence)
		}
	}
	for _, query := range e.trendingQueries(trendingSuggestionCount) {
		add(query, models.SuggestionTrending, e.suggestConfig.TrendingConfidence)
	}
	for _, query := range e.repeatedQueries(personalizedSuggestionCount) {
		add(query, models.SuggestionPersonalized, e.suggestConfig.PersonalizedConfidence)
	}
	for _, filter := range e.popularFilters(filterSuggestionCount) {
		add(filter, models.SuggestionFilter, e.suggestConfig.FilterConfidence)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	if max := e.suggestConfig.MaxSuggestions; max > 0 && len(suggestions) > max {
		suggestions = suggestions[:max]
	}
	return suggestions
}

// similarQueries ranks historical queries by word overlap with the current
// query, keeping those above the similarity threshold and excluding the
// exact query itself. Caller holds the lock.
func (e *Engine) similarQueries(current string, limit int) []string {
	currentWords := queryWordSet(current)
	if len(currentWords) == 0 {
		return nil
	}

	type scored struct {
		query      string
		similarity float64
	}

	seen := make(map[string]struct{})
	candidates := make([]scored, 0)
	for _, event := range e.events {
		if event.Query == current || event.Query == "" {
			continue
		}
		if _, dup := seen[event.Query]; dup {
			continue
		}
		seen[event.Query] = struct{}{}

		similarity := wordOverlap(currentWords, queryWordSet(event.Query))
		if similarity > e.suggestConfig.SimilarityThreshold {
			candidates = append(candidates, scored{event.Query, similarity})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})

	queries := make([]string, 0, limit)
	for _, c := range candidates {
		queries = append(queries, c.query)
		if len(queries) >= limit {
			break
		}
	}
	return queries
}

// trendingQueries returns the most frequent queries within the trailing
// trending window. Caller holds the lock.
func (e *Engine) trendingQueries(limit int) []string {
	days := e.config.TrendingWindowDays
	if days <= 0 {
		days = 7
	}
	recent := e.eventsSince(e.now().AddDate(0, 0, -days))

	counts := make(map[string]int)
	for _, event := range recent {
		if event.Query != "" {
			counts[event.Query]++
		}
	}
	return rankedQueries(counts, limit, 1)
}

// repeatedQueries returns historical queries issued more than once, by
// frequency. Caller holds the lock.
func (e *Engine) repeatedQueries(limit int) []string {
	counts := make(map[string]int)
	for _, event := range e.events {
		if event.Query != "" {
			counts[event.Query]++
		}
	}
	return rankedQueries(counts, limit, 2)
}

// popularFilters returns the most used filter expressions as suggestion
// text. Caller holds the lock.
func (e *Engine) popularFilters(limit int) []string {
	counts := make(map[string]int)
	for _, event := range e.events {
		for key, value := range event.Filters {
			counts[key+":"+value]++
		}
	}

	filters := rankedQueries(counts, limit, 1)
	suggestions := make([]string, 0, len(filters))
	for _, filter := range filters {
		suggestions = append(suggestions, "filter by "+filter)
	}
	return suggestions
}

// rankedQueries sorts count-map keys by count descending (ties
// alphabetically) and keeps those with at least minCount occurrences.
func rankedQueries(counts map[string]int, limit, minCount int) []string {
	type entry struct {
		key   string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for key, count := range counts {
		if count >= minCount {
			entries = append(entries, entry{key, count})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})

	keys := make([]string, 0, limit)
	for _, ent := range entries {
		keys = append(keys, ent.key)
		if len(keys) >= limit {
			break
		}
	}
	return keys
}

func queryWordSet(query string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(query) {
		words[word] = struct{}{}
	}
	return words
}

// wordOverlap is intersection size over union size of the two word sets.
func wordOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for word := range a {
		if _, ok := b[word]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
