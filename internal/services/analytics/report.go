package analytics

import (
	"sort"
	"time"

	"github.com/ternarybob/invenio/internal/models"
)

const (
	topQueryCount  = 10
	topFilterCount = 5
	peakHourCount  = 5
)

// Analytics computes the aggregate report from the full event log.
func (e *Engine) Analytics() *models.SearchAnalytics {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &models.SearchAnalytics{
		TotalSearches:          len(e.events),
		TopQueries:             []models.QueryFrequency{},
		SearchTrend:            []models.TrendPoint{},
		TopClickRates:          []models.QueryClickRate{},
		TopFilters:             []models.FilterUsage{},
		ResultTypeDistribution: map[string]float64{},
		PeakHours:              []models.HourCount{},
	}
	if len(e.events) == 0 {
		report.AvgSessionDuration = e.avgSessionDuration()
		return report
	}

	queryCounts := make(map[string]*models.QueryFrequency)
	filterCounts := make(map[string]int)
	typeCounts := make(map[string]int)
	hourCounts := make(map[int]int)
	totalResults := 0
	totalQueryLength := 0
	totalTypeHits := 0

	for _, event := range e.events {
		freq, ok := queryCounts[event.Query]
		if !ok {
			freq = &models.QueryFrequency{Query: event.Query}
			queryCounts[event.Query] = freq
		}
		freq.Count++
		if event.Timestamp.After(freq.LastUsed) {
			freq.LastUsed = event.Timestamp
		}

		for key, value := range event.Filters {
			filterCounts[key+":"+value]++
		}
		for docType, count := range event.ResultTypes {
			typeCounts[docType] += count
			totalTypeHits += count
		}

		hourCounts[event.Timestamp.Hour()]++
		totalResults += event.ResultCount
		totalQueryLength += len(event.Query)
	}

	report.UniqueQueries = len(queryCounts)
	report.AvgResultsPerSearch = float64(totalResults) / float64(len(e.events))
	report.AvgQueryLength = float64(totalQueryLength) / float64(len(e.events))
	report.TopQueries = topQueries(queryCounts, topQueryCount)
	report.SearchTrend = e.searchTrend()
	report.TopClickRates = e.topClickRates(queryCounts)
	report.TopFilters = topFilters(filterCounts, topFilterCount)
	report.PeakHours = peakHours(hourCounts, peakHourCount)
	report.AvgSessionDuration = e.avgSessionDuration()

	for docType, count := range typeCounts {
		if totalTypeHits > 0 {
			report.ResultTypeDistribution[docType] = float64(count) / float64(totalTypeHits) * 100
		}
	}

	return report
}

// searchTrend buckets events by day over the trailing trend window. Caller
// holds the lock.
func (e *Engine) searchTrend() []models.TrendPoint {
	days := e.config.TrendDays
	if days <= 0 {
		days = 30
	}

	cutoff := e.now().AddDate(0, 0, -days)
	buckets := make(map[string]int)
	for _, event := range e.events {
		if event.Timestamp.Before(cutoff) {
			continue
		}
		buckets[event.Timestamp.Format("2006-01-02")]++
	}

	trend := make([]models.TrendPoint, 0, len(buckets))
	for date, count := range buckets {
		trend = append(trend, models.TrendPoint{Date: date, Count: count})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })
	return trend
}

// topClickRates ranks queries observed more than twice by click-through
// rate. Caller holds the lock.
func (e *Engine) topClickRates(queryCounts map[string]*models.QueryFrequency) []models.QueryClickRate {
	rates := make([]models.QueryClickRate, 0)
	for query, freq := range queryCounts {
		if freq.Count <= 2 {
			continue
		}
		rates = append(rates, models.QueryClickRate{
			Query:            query,
			ClickThroughRate: e.clickThroughRate(query),
			Searches:         freq.Count,
		})
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].ClickThroughRate != rates[j].ClickThroughRate {
			return rates[i].ClickThroughRate > rates[j].ClickThroughRate
		}
		return rates[i].Query < rates[j].Query
	})
	if len(rates) > topQueryCount {
		rates = rates[:topQueryCount]
	}
	return rates
}

// avgSessionDuration averages durations of sessions that have ended, in
// seconds. Caller holds the lock.
func (e *Engine) avgSessionDuration() float64 {
	total := 0.0
	ended := 0
	for _, session := range e.sessions {
		if session.EndedAt == nil {
			continue
		}
		total += session.EndedAt.Sub(session.StartedAt).Seconds()
		ended++
	}
	if ended == 0 {
		return 0
	}
	return total / float64(ended)
}

func topQueries(queryCounts map[string]*models.QueryFrequency, limit int) []models.QueryFrequency {
	queries := make([]models.QueryFrequency, 0, len(queryCounts))
	for _, freq := range queryCounts {
		queries = append(queries, *freq)
	}
	sort.Slice(queries, func(i, j int) bool {
		if queries[i].Count != queries[j].Count {
			return queries[i].Count > queries[j].Count
		}
		return queries[i].Query < queries[j].Query
	})
	if len(queries) > limit {
		queries = queries[:limit]
	}
	return queries
}

func topFilters(filterCounts map[string]int, limit int) []models.FilterUsage {
	filters := make([]models.FilterUsage, 0, len(filterCounts))
	for filter, count := range filterCounts {
		filters = append(filters, models.FilterUsage{Filter: filter, Count: count})
	}
	sort.Slice(filters, func(i, j int) bool {
		if filters[i].Count != filters[j].Count {
			return filters[i].Count > filters[j].Count
		}
		return filters[i].Filter < filters[j].Filter
	})
	if len(filters) > limit {
		filters = filters[:limit]
	}
	return filters
}

func peakHours(hourCounts map[int]int, limit int) []models.HourCount {
	hours := make([]models.HourCount, 0, len(hourCounts))
	for hour, count := range hourCounts {
		hours = append(hours, models.HourCount{Hour: hour, Count: count})
	}
	sort.Slice(hours, func(i, j int) bool {
		if hours[i].Count != hours[j].Count {
			return hours[i].Count > hours[j].Count
		}
		return hours[i].Hour < hours[j].Hour
	})
	if len(hours) > limit {
		hours = hours[:limit]
	}
	return hours
}

// eventsSince returns events at or after the cutoff. Caller holds the lock.
func (e *Engine) eventsSince(cutoff time.Time) []*models.SearchEvent {
	recent := make([]*models.SearchEvent, 0)
	for _, event := range e.events {
		if !event.Timestamp.Before(cutoff) {
			recent = append(recent, event)
		}
	}
	return recent
}
