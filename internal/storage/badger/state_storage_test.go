package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestStorage(t *testing.T) *StateStorage {
	t.Helper()

	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	db := &BadgerDB{store: store}
	return NewStateStorage(db, arbor.NewLogger())
}

func TestIndexStateRoundTrip(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	// Loading before any save reports not-found
	_, err := storage.LoadIndexState(ctx)
	assert.ErrorIs(t, err, interfaces.ErrStateNotFound)

	state := &models.IndexState{
		Documents: map[string]*models.SearchDocument{
			"doc_1": {
				ID:         "doc_1",
				Type:       models.TypeExpense,
				Title:      "Coffee at Blue Bottle",
				Searchable: "coffee at blue bottle food 4.50",
				Metadata:   map[string]interface{}{"amount": 4.5, "category": "food"},
				Timestamp:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
				Tags:       []string{"coffee", "morning"},
			},
		},
	}
	require.NoError(t, storage.SaveIndexState(ctx, state))

	loaded, err := storage.LoadIndexState(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Documents, 1)

	doc := loaded.Documents["doc_1"]
	require.NotNil(t, doc)
	assert.Equal(t, models.TypeExpense, doc.Type)
	assert.Equal(t, "Coffee at Blue Bottle", doc.Title)
	assert.Equal(t, []string{"coffee", "morning"}, doc.Tags)
	assert.True(t, doc.Timestamp.Equal(state.Documents["doc_1"].Timestamp))
}

func TestIndexStateDelete(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	state := &models.IndexState{Documents: map[string]*models.SearchDocument{}}
	require.NoError(t, storage.SaveIndexState(ctx, state))

	require.NoError(t, storage.DeleteIndexState(ctx))

	_, err := storage.LoadIndexState(ctx)
	assert.ErrorIs(t, err, interfaces.ErrStateNotFound)

	// Deleting twice is fine
	assert.NoError(t, storage.DeleteIndexState(ctx))
}

func TestAnalyticsStateRoundTrip(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.LoadAnalyticsState(ctx)
	assert.ErrorIs(t, err, interfaces.ErrStateNotFound)

	ended := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	state := &models.AnalyticsState{
		Events: []*models.SearchEvent{
			{
				ID:          "search_1",
				Query:       "coffee expenses",
				Timestamp:   time.Date(2026, 3, 14, 9, 31, 0, 0, time.UTC),
				ResultCount: 3,
				AvgScore:    42.5,
				SessionID:   "session_1",
			},
		},
		Sessions: map[string]*models.SearchSession{
			"session_1": {
				ID:           "session_1",
				StartedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
				LastActivity: ended,
				EndedAt:      &ended,
				SearchCount:  1,
			},
		},
		Performance: map[string]*models.QueryPerformance{
			"coffee expenses": {
				Query:          "coffee expenses",
				SearchCount:    1,
				AvgResultCount: 3,
			},
		},
	}
	require.NoError(t, storage.SaveAnalyticsState(ctx, state))

	loaded, err := storage.LoadAnalyticsState(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Events, 1)
	assert.Equal(t, "coffee expenses", loaded.Events[0].Query)

	session := loaded.Sessions["session_1"]
	require.NotNil(t, session)
	require.NotNil(t, session.EndedAt)
	assert.True(t, session.EndedAt.Equal(ended))

	perf := loaded.Performance["coffee expenses"]
	require.NotNil(t, perf)
	assert.Equal(t, 1, perf.SearchCount)
}

func TestAnalyticsStateEmptyMapsInitialized(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SaveAnalyticsState(ctx, &models.AnalyticsState{}))

	loaded, err := storage.LoadAnalyticsState(ctx)
	require.NoError(t, err)
	assert.NotNil(t, loaded.Sessions)
	assert.NotNil(t, loaded.Performance)
}
