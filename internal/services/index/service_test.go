package index

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

var testTime = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestIndex(t *testing.T) *Service {
	t.Helper()
	config := common.NewDefaultConfig()
	svc := NewService(arbor.NewLogger(), nil, &config.Search).(*Service)
	svc.now = func() time.Time { return testTime }
	return svc
}

func expenseDoc(id, title, searchable string, tags []string, ts time.Time) *models.SearchDocument {
	return &models.SearchDocument{
		ID:         id,
		Type:       models.TypeExpense,
		Title:      title,
		Searchable: searchable,
		Metadata:   map[string]interface{}{"category": "Food"},
		Timestamp:  ts,
		Tags:       tags,
	}
}

func TestAddThenRemove(t *testing.T) {
	svc := newTestIndex(t)

	doc := expenseDoc("e1", "Lunch", "lunch at cafe food 25 dollars", []string{"food"}, testTime)
	svc.AddDocument(doc)

	stats := svc.Stats()
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, 1, stats.DocumentsByType["expense"])

	results := svc.Search(&models.SearchQuery{Query: "lunch"})
	require.Len(t, results, 1)
	assert.Equal(t, "e1", results[0].Document.ID)

	svc.RemoveDocument("e1")

	stats = svc.Stats()
	assert.Equal(t, 0, stats.TotalDocuments)
	assert.Empty(t, svc.Search(&models.SearchQuery{Query: "lunch"}))

	// Removing an unknown id is a no-op
	svc.RemoveDocument("e1")
	assert.Equal(t, 0, svc.Stats().TotalDocuments)
}

func TestUpdateLeavesNoStaleEntries(t *testing.T) {
	svc := newTestIndex(t)

	svc.AddDocument(expenseDoc("e1", "Lunch", "lunch at cafe", []string{"food"}, testTime))
	svc.UpdateDocument(expenseDoc("e1", "Dinner", "dinner at bistro", []string{"evening"}, testTime))

	assert.Empty(t, svc.Search(&models.SearchQuery{Query: "lunch"}))
	assert.Empty(t, svc.Search(&models.SearchQuery{Tags: []string{"food"}}))

	results := svc.Search(&models.SearchQuery{Query: "dinner"})
	require.Len(t, results, 1)
	assert.Equal(t, "e1", results[0].Document.ID)
	assert.Equal(t, 1, svc.Stats().TotalDocuments)
}

func TestExactSubstringMatch(t *testing.T) {
	svc := newTestIndex(t)

	svc.AddDocument(expenseDoc("e1", "Lunch", "lunch at cafe food 25 dollars", nil, testTime))
	svc.AddDocument(expenseDoc("e2", "Groceries", "weekly groceries market", nil, testTime))

	results := svc.Search(&models.SearchQuery{Query: "lunch"})
	require.Len(t, results, 1)
	assert.Equal(t, "e1", results[0].Document.ID)
	assert.Equal(t, models.MatchExact, results[0].MatchType)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestPrefixMatchBothDirections(t *testing.T) {
	svc := newTestIndex(t)
	svc.AddDocument(expenseDoc("e1", "Groceries", "weekly groceries market", nil, testTime))

	// Query term is a prefix of the indexed word
	results := svc.Search(&models.SearchQuery{Query: "grocer"})
	require.Len(t, results, 1)

	// Indexed word is a prefix of the query term
	results = svc.Search(&models.SearchQuery{Query: "marketplace"})
	require.Len(t, results, 1)
}

func TestQuotedPhraseMatch(t *testing.T) {
	svc := newTestIndex(t)
	svc.AddDocument(expenseDoc("e1", "Lunch", "lunch at cafe food", nil, testTime))
	svc.AddDocument(expenseDoc("e2", "Cafe visit", "cafe lunch separately", nil, testTime))

	results := svc.Search(&models.SearchQuery{Query: `"lunch at cafe"`})
	require.Len(t, results, 1)
	assert.Equal(t, "e1", results[0].Document.ID)
}

func TestTermFrequencyMonotonic(t *testing.T) {
	svc := newTestIndex(t)

	svc.AddDocument(expenseDoc("once", "Note", "coffee morning", nil, testTime))
	svc.AddDocument(expenseDoc("twice", "Note", "coffee coffee morning", nil, testTime))

	results := svc.Search(&models.SearchQuery{Query: "coffee"})
	require.Len(t, results, 2)

	var scoreOnce, scoreTwice float64
	for _, r := range results {
		switch r.Document.ID {
		case "once":
			scoreOnce = r.Score
		case "twice":
			scoreTwice = r.Score
		}
	}
	assert.GreaterOrEqual(t, scoreTwice, scoreOnce)
}

func TestTypeFilterIntersection(t *testing.T) {
	svc := newTestIndex(t)

	svc.AddDocument(expenseDoc("e1", "Lunch", "lunch at cafe food 25 dollars", []string{"food"}, testTime))
	svc.AddDocument(&models.SearchDocument{
		ID:         "c1",
		Type:       models.TypeContact,
		Title:      "Lunch buddy",
		Searchable: "lunch buddy alex",
		Timestamp:  testTime,
	})

	results := svc.Search(&models.SearchQuery{
		Query: "lunch",
		Types: []models.DocumentType{models.TypeExpense},
	})
	require.Len(t, results, 1)
	assert.Equal(t, "e1", results[0].Document.ID)
	assert.Equal(t, models.MatchExact, results[0].MatchType)
}

func TestDateRangeInclusive(t *testing.T) {
	svc := newTestIndex(t)

	inRange := testTime.AddDate(0, 0, -3)
	outOfRange := testTime.AddDate(0, 0, -30)
	svc.AddDocument(expenseDoc("recent", "Recent", "coffee", nil, inRange))
	svc.AddDocument(expenseDoc("old", "Old", "coffee", nil, outOfRange))

	results := svc.Search(&models.SearchQuery{
		DateRange: &models.DateRange{
			Start: testTime.AddDate(0, 0, -7),
			End:   testTime,
		},
	})
	require.Len(t, results, 1)
	assert.Equal(t, "recent", results[0].Document.ID)

	// Boundary day is included
	results = svc.Search(&models.SearchQuery{
		DateRange: &models.DateRange{
			Start: inRange,
			End:   inRange,
		},
	})
	require.Len(t, results, 1)
}

func TestTagFilterAndScoring(t *testing.T) {
	svc := newTestIndex(t)

	svc.AddDocument(expenseDoc("e1", "Lunch", "lunch", []string{"Food", "weekend"}, testTime))
	svc.AddDocument(expenseDoc("e2", "Taxi", "taxi ride", []string{"travel"}, testTime))

	results := svc.Search(&models.SearchQuery{Tags: []string{"food"}})
	require.Len(t, results, 1)
	assert.Equal(t, "e1", results[0].Document.ID)
	assert.Equal(t, models.MatchTag, results[0].MatchType)
	assert.Contains(t, results[0].Highlights, "#food")
}

func TestMetadataFilterScoring(t *testing.T) {
	svc := newTestIndex(t)

	svc.AddDocument(expenseDoc("e1", "Lunch", "lunch", nil, testTime))

	with := svc.Search(&models.SearchQuery{Query: "lunch", Metadata: map[string]string{"category": "Food"}})
	without := svc.Search(&models.SearchQuery{Query: "lunch"})
	require.Len(t, with, 1)
	require.Len(t, without, 1)
	assert.InDelta(t, 30, with[0].Score-without[0].Score, 0.001)
}

func TestRecencyBreaksTies(t *testing.T) {
	svc := newTestIndex(t)

	older := testTime.Add(-2 * time.Hour)
	svc.AddDocument(expenseDoc("old", "Coffee", "coffee", nil, older))
	svc.AddDocument(expenseDoc("new", "Coffee", "coffee", nil, testTime))

	results := svc.Search(&models.SearchQuery{Query: "coffee"})
	require.Len(t, results, 2)
	assert.Equal(t, "new", results[0].Document.ID)
	assert.Equal(t, "old", results[1].Document.ID)
}

func TestPaginationStable(t *testing.T) {
	svc := newTestIndex(t)

	for i := 0; i < 10; i++ {
		svc.AddDocument(expenseDoc(
			"doc"+strings.Repeat("x", i+1),
			"Coffee",
			"coffee",
			nil,
			testTime.Add(-time.Duration(i)*time.Hour),
		))
	}

	all := svc.Search(&models.SearchQuery{Query: "coffee", Limit: 10})
	first := svc.Search(&models.SearchQuery{Query: "coffee", Offset: 0, Limit: 5})
	second := svc.Search(&models.SearchQuery{Query: "coffee", Offset: 5, Limit: 5})

	require.Len(t, all, 10)
	require.Len(t, first, 5)
	require.Len(t, second, 5)

	for i := 0; i < 5; i++ {
		assert.Equal(t, all[i].Document.ID, first[i].Document.ID)
		assert.Equal(t, all[i+5].Document.ID, second[i].Document.ID)
	}

	// Offset past the end returns an empty page
	assert.Empty(t, svc.Search(&models.SearchQuery{Query: "coffee", Offset: 50, Limit: 5}))
}

func TestNoFiltersReturnsEverything(t *testing.T) {
	svc := newTestIndex(t)

	svc.AddDocument(expenseDoc("e1", "Lunch", "lunch", nil, testTime))
	svc.AddDocument(expenseDoc("e2", "Dinner", "dinner", nil, testTime))

	results := svc.Search(&models.SearchQuery{})
	assert.Len(t, results, 2)
}

func TestSuggestions(t *testing.T) {
	svc := newTestIndex(t)

	svc.AddDocument(expenseDoc("e1", "Groceries", "groceries grocery market", []string{"green"}, testTime))

	suggestions := svc.Suggestions("gr", 10)
	assert.Contains(t, suggestions, "groceries")
	assert.Contains(t, suggestions, "grocery")
	assert.Contains(t, suggestions, "#green")

	assert.Empty(t, svc.Suggestions("zz", 10))
	assert.Empty(t, svc.Suggestions("", 10))

	limited := svc.Suggestions("gr", 2)
	assert.Len(t, limited, 2)
}

func TestClearResetsStats(t *testing.T) {
	svc := newTestIndex(t)

	svc.AddDocument(expenseDoc("e1", "Lunch", "lunch", []string{"food"}, testTime))
	svc.Clear()

	stats := svc.Stats()
	assert.Equal(t, 0, stats.TotalDocuments)
	assert.Equal(t, 0, stats.TagCount)
	assert.Equal(t, 0, stats.WordCount)
	assert.Empty(t, svc.Search(&models.SearchQuery{}))
}

func TestStopwordsAndShortTokensIgnored(t *testing.T) {
	tokens := tokenize("The lunch at a cafe is on me")
	assert.Equal(t, []string{"lunch", "cafe", "me"}, tokens)
}

type memoryStore struct {
	state *models.IndexState
}

func (m *memoryStore) LoadIndexState(_ context.Context) (*models.IndexState, error) {
	if m.state == nil {
		return nil, interfaces.ErrStateNotFound
	}
	return m.state, nil
}

func (m *memoryStore) SaveIndexState(_ context.Context, state *models.IndexState) error {
	m.state = state
	return nil
}

func (m *memoryStore) DeleteIndexState(_ context.Context) error {
	m.state = nil
	return nil
}

func TestPersistAndRehydrate(t *testing.T) {
	store := &memoryStore{}
	config := common.NewDefaultConfig()

	svc := NewService(arbor.NewLogger(), store, &config.Search).(*Service)
	svc.now = func() time.Time { return testTime }
	svc.AddDocument(expenseDoc("e1", "Lunch", "lunch at cafe", []string{"food"}, testTime))

	// A fresh instance rebuilds secondary indices from the persisted blob
	revived := NewService(arbor.NewLogger(), store, &config.Search).(*Service)
	revived.now = func() time.Time { return testTime }

	results := revived.Search(&models.SearchQuery{Query: "lunch"})
	require.Len(t, results, 1)
	assert.Equal(t, "e1", results[0].Document.ID)
	assert.Equal(t, 1, revived.Stats().TotalDocuments)

	// Cleared state survives a restart too
	revived.Clear()
	second := NewService(arbor.NewLogger(), store, &config.Search)
	assert.Equal(t, 0, second.Stats().TotalDocuments)
}
