package analytics

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// Engine records search telemetry and derives aggregate analytics. Recording
// is best-effort: storage failures degrade to logged warnings and never fail
// the caller. The engine has its own lock, separate from the index, so
// recording a click never blocks a search.
//
// The current session id lives only in memory. A process restart starts a
// fresh session; persisted sessions keep their history.
type Engine struct {
	mu          sync.Mutex
	events      []*models.SearchEvent
	sessions    map[string]*models.SearchSession
	performance map[string]*models.QueryPerformance

	currentSessionID string

	store         interfaces.AnalyticsStateStore
	logger        arbor.ILogger
	config        *common.AnalyticsConfig
	suggestConfig *common.SuggestionsConfig

	now func() time.Time
}

// NewEngine creates an analytics engine hydrated from persisted state. A
// missing or unreadable state blob degrades to empty history.
func NewEngine(logger arbor.ILogger, store interfaces.AnalyticsStateStore, config *common.AnalyticsConfig, suggestConfig *common.SuggestionsConfig) interfaces.AnalyticsService {
	e := &Engine{
		events:        make([]*models.SearchEvent, 0),
		sessions:      make(map[string]*models.SearchSession),
		performance:   make(map[string]*models.QueryPerformance),
		store:         store,
		logger:        logger,
		config:        config,
		suggestConfig: suggestConfig,
		now:           time.Now,
	}
	e.hydrate()
	return e
}

func (e *Engine) hydrate() {
	if e.store == nil {
		return
	}

	state, err := e.store.LoadAnalyticsState(context.Background())
	if err != nil {
		if err != interfaces.ErrStateNotFound {
			e.logger.Warn().Err(err).Msg("Failed to load analytics state, starting empty")
		}
		return
	}

	e.events = state.Events
	if e.events == nil {
		e.events = make([]*models.SearchEvent, 0)
	}
	e.sessions = state.Sessions
	e.performance = state.Performance

	e.logger.Info().Int("events", len(e.events)).Int("sessions", len(e.sessions)).Msg("Analytics state hydrated")
}

// normalizeQuery lower-cases and trims a query so all aggregation keys on
// the same string.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// RecordSearch appends a search event and updates session and per-query
// performance state. Returns the new event's id.
func (e *Engine) RecordSearch(query string, results []*models.SearchResult, filters map[string]string, sessionID, userAgent string) string {
	normalized := normalizeQuery(query)
	now := e.now()

	event := &models.SearchEvent{
		ID:          common.NewSearchID(),
		Query:       normalized,
		Timestamp:   now,
		ResultCount: len(results),
		UserAgent:   userAgent,
		Filters:     filters,
	}

	if len(results) > 0 {
		types := make(map[string]int, 2)
		total := 0.0
		for _, result := range results {
			total += result.Score
			types[string(result.Document.Type)]++
		}
		event.ResultTypes = types
		event.AvgScore = total / float64(len(results))
	}

	e.mu.Lock()

	event.SessionID = e.resolveSession(sessionID, now)

	if session := e.sessions[event.SessionID]; session != nil {
		session.LastActivity = now
		session.SearchCount++
	}

	e.updatePerformance(normalized, event, now)

	e.events = append(e.events, event)
	if max := e.config.MaxEvents; max > 0 && len(e.events) > max {
		e.events = e.events[len(e.events)-max:]
	}

	e.mu.Unlock()

	e.persist()

	return event.ID
}

// resolveSession returns the session id the event belongs to, minting a new
// session when none is cached. A caller-supplied id that differs from the
// cached one replaces it and ends the prior session. Caller holds the lock.
func (e *Engine) resolveSession(sessionID string, now time.Time) string {
	if sessionID == "" {
		sessionID = e.currentSessionID
	}
	if sessionID == "" {
		sessionID = common.NewSessionID()
	}

	if e.currentSessionID != "" && e.currentSessionID != sessionID {
		if prior := e.sessions[e.currentSessionID]; prior != nil && prior.EndedAt == nil {
			ended := prior.LastActivity
			prior.EndedAt = &ended
		}
	}
	e.currentSessionID = sessionID

	if _, ok := e.sessions[sessionID]; !ok {
		e.sessions[sessionID] = &models.SearchSession{
			ID:           sessionID,
			StartedAt:    now,
			LastActivity: now,
		}
	}
	return sessionID
}

// updatePerformance applies the rolling average-with-prior smoothing to the
// query's aggregate record. Caller holds the lock.
func (e *Engine) updatePerformance(query string, event *models.SearchEvent, now time.Time) {
	perf, ok := e.performance[query]
	if !ok {
		e.performance[query] = &models.QueryPerformance{
			Query:             query,
			SearchCount:       1,
			AvgResultCount:    float64(event.ResultCount),
			AvgRelevanceScore: event.AvgScore,
			LastSearched:      now,
		}
		return
	}

	perf.SearchCount++
	perf.AvgResultCount = (perf.AvgResultCount + float64(event.ResultCount)) / 2
	perf.AvgRelevanceScore = (perf.AvgRelevanceScore + event.AvgScore) / 2
	perf.LastSearched = now
}

// RecordResultClick appends a clicked result to a search event and
// recomputes the query's click-through rate. Returns false when the search
// id is unknown.
func (e *Engine) RecordResultClick(searchID, resultID string) bool {
	e.mu.Lock()

	event := e.findEvent(searchID)
	if event == nil {
		e.mu.Unlock()
		return false
	}

	event.ClickedResults = append(event.ClickedResults, resultID)

	if session := e.sessions[event.SessionID]; session != nil {
		session.ClickCount++
		session.LastActivity = e.now()
	}

	if perf := e.performance[event.Query]; perf != nil {
		perf.ClickThroughRate = e.clickThroughRate(event.Query)
	}

	e.mu.Unlock()

	e.persist()
	return true
}

// RecordQueryRefinement appends a refinement to a search event and
// recomputes the query's refinement rate. Returns false when the search id
// is unknown.
func (e *Engine) RecordQueryRefinement(searchID, newQuery string) bool {
	e.mu.Lock()

	event := e.findEvent(searchID)
	if event == nil {
		e.mu.Unlock()
		return false
	}

	event.Refinements = append(event.Refinements, normalizeQuery(newQuery))

	if perf := e.performance[event.Query]; perf != nil {
		perf.RefinementRate = e.refinementRate(event.Query)
	}

	e.mu.Unlock()

	e.persist()
	return true
}

// QueryPerformance returns the aggregate record for a normalized query, or
// nil when the query was never recorded.
func (e *Engine) QueryPerformance(query string) *models.QueryPerformance {
	e.mu.Lock()
	defer e.mu.Unlock()

	perf, ok := e.performance[normalizeQuery(query)]
	if !ok {
		return nil
	}
	copied := *perf
	return &copied
}

// CloseIdleSessions ends every open session whose last activity is older
// than the idle cutoff. Returns the number of sessions closed.
func (e *Engine) CloseIdleSessions(idle time.Duration) int {
	cutoff := e.now().Add(-idle)

	e.mu.Lock()
	closed := 0
	for id, session := range e.sessions {
		if session.EndedAt != nil || !session.LastActivity.Before(cutoff) {
			continue
		}
		ended := session.LastActivity
		session.EndedAt = &ended
		closed++
		if id == e.currentSessionID {
			e.currentSessionID = ""
		}
	}
	e.mu.Unlock()

	if closed > 0 {
		e.persist()
		e.logger.Debug().Int("closed", closed).Msg("Idle search sessions closed")
	}
	return closed
}

// Clear wipes all analytics state, in memory and persisted.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.events = make([]*models.SearchEvent, 0)
	e.sessions = make(map[string]*models.SearchSession)
	e.performance = make(map[string]*models.QueryPerformance)
	e.currentSessionID = ""
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.DeleteAnalyticsState(context.Background()); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to delete persisted analytics state")
		}
	}

	e.logger.Info().Msg("Search analytics cleared")
}

// findEvent scans the event log newest-first. Caller holds the lock.
func (e *Engine) findEvent(searchID string) *models.SearchEvent {
	for i := len(e.events) - 1; i >= 0; i-- {
		if e.events[i].ID == searchID {
			return e.events[i]
		}
	}
	return nil
}

// clickThroughRate is total clicks across the query's events divided by the
// query's event count. Caller holds the lock.
func (e *Engine) clickThroughRate(query string) float64 {
	clicks, count := 0, 0
	for _, event := range e.events {
		if event.Query != query {
			continue
		}
		count++
		clicks += len(event.ClickedResults)
	}
	if count == 0 {
		return 0
	}
	return float64(clicks) / float64(count)
}

// refinementRate mirrors clickThroughRate for refinements. Caller holds the
// lock.
func (e *Engine) refinementRate(query string) float64 {
	refinements, count := 0, 0
	for _, event := range e.events {
		if event.Query != query {
			continue
		}
		count++
		refinements += len(event.Refinements)
	}
	if count == 0 {
		return 0
	}
	return float64(refinements) / float64(count)
}

// persist writes the analytics state, trimming the persisted event log to
// the configured cap. The snapshot is a deep copy taken under the lock so
// the store can marshal it while recorders keep mutating the live state.
// Failures degrade to a warning.
func (e *Engine) persist() {
	if e.store == nil {
		return
	}

	e.mu.Lock()
	events := e.events
	if max := e.config.PersistedEvents; max > 0 && len(events) > max {
		events = events[len(events)-max:]
	}
	state := &models.AnalyticsState{
		Events:      make([]*models.SearchEvent, 0, len(events)),
		Sessions:    make(map[string]*models.SearchSession, len(e.sessions)),
		Performance: make(map[string]*models.QueryPerformance, len(e.performance)),
	}
	for _, event := range events {
		state.Events = append(state.Events, cloneEvent(event))
	}
	for id, session := range e.sessions {
		copied := *session
		if session.EndedAt != nil {
			ended := *session.EndedAt
			copied.EndedAt = &ended
		}
		state.Sessions[id] = &copied
	}
	for query, perf := range e.performance {
		copied := *perf
		state.Performance[query] = &copied
	}
	e.mu.Unlock()

	if err := e.store.SaveAnalyticsState(context.Background(), state); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to persist analytics state")
	}
}

func cloneEvent(event *models.SearchEvent) *models.SearchEvent {
	copied := *event
	if event.ResultTypes != nil {
		copied.ResultTypes = make(map[string]int, len(event.ResultTypes))
		for docType, count := range event.ResultTypes {
			copied.ResultTypes[docType] = count
		}
	}
	copied.ClickedResults = append([]string(nil), event.ClickedResults...)
	copied.Refinements = append([]string(nil), event.Refinements...)
	if event.Filters != nil {
		copied.Filters = make(map[string]string, len(event.Filters))
		for key, value := range event.Filters {
			copied.Filters[key] = value
		}
	}
	return &copied
}
