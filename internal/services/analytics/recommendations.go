package analytics

import (
	"fmt"
	"sort"

	"github.com/ternarybob/invenio/internal/models"
)

// OptimizationRecommendations derives rule-based observations from the
// recorded history: poorly clicked queries, heavily refined queries, the
// peak search hour, and low query diversity.
func (e *Engine) OptimizationRecommendations() []models.Recommendation {
	e.mu.Lock()
	defer e.mu.Unlock()

	recommendations := make([]models.Recommendation, 0)

	queries := make([]string, 0, len(e.performance))
	for query := range e.performance {
		queries = append(queries, query)
	}
	sort.Strings(queries)

	for _, query := range queries {
		perf := e.performance[query]
		if perf.SearchCount <= 2 {
			continue
		}
		if perf.ClickThroughRate < 0.1 {
			recommendations = append(recommendations, models.Recommendation{
				Type:     models.RecommendationLowClickRate,
				Severity: "warning",
				Query:    query,
				Message:  fmt.Sprintf("Results for %q are rarely clicked; its result ranking may not match what you are looking for", query),
			})
		}
		if perf.RefinementRate > 0.5 {
			recommendations = append(recommendations, models.Recommendation{
				Type:     models.RecommendationHighRefinement,
				Severity: "warning",
				Query:    query,
				Message:  fmt.Sprintf("Searches for %q are usually refined; try a more specific starting query", query),
			})
		}
	}

	if hour, count, ok := e.peakSearchHour(); ok {
		recommendations = append(recommendations, models.Recommendation{
			Type:     models.RecommendationPeakHour,
			Severity: "info",
			Message:  fmt.Sprintf("Most searches happen around %02d:00 (%d searches)", hour, count),
		})
	}

	if len(e.events) > 0 {
		unique := make(map[string]struct{})
		for _, event := range e.events {
			unique[event.Query] = struct{}{}
		}
		ratio := float64(len(unique)) / float64(len(e.events))
		if ratio < 0.3 {
			recommendations = append(recommendations, models.Recommendation{
				Type:     models.RecommendationLowDiversity,
				Severity: "info",
				Message:  "You repeat a small set of searches often; saved searches could save you typing",
			})
		}
	}

	return recommendations
}

// peakSearchHour returns the single busiest hour of day. Caller holds the
// lock.
func (e *Engine) peakSearchHour() (int, int, bool) {
	if len(e.events) == 0 {
		return 0, 0, false
	}

	counts := make(map[int]int)
	for _, event := range e.events {
		counts[event.Timestamp.Hour()]++
	}

	bestHour, bestCount := 0, 0
	for hour, count := range counts {
		if count > bestCount || (count == bestCount && hour < bestHour) {
			bestHour, bestCount = hour, count
		}
	}
	return bestHour, bestCount, true
}
