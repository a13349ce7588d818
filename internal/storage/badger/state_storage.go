package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

const (
	indexStateKey     = "index_state"
	analyticsStateKey = "analytics_state"
)

// stateRecord is a persisted state blob. The index and analytics states are
// each stored whole under a fixed key; partial updates are not supported.
type stateRecord struct {
	Key       string    `badgerhold:"key"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateStorage implements the IndexStateStore and AnalyticsStateStore
// interfaces over a shared Badger connection.
type StateStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewStateStorage creates a new StateStorage instance
func NewStateStorage(db *BadgerDB, logger arbor.ILogger) *StateStorage {
	return &StateStorage{
		db:     db,
		logger: logger,
	}
}

func (s *StateStorage) load(key string, out interface{}) error {
	var record stateRecord
	err := s.db.Store().Get(key, &record)
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrStateNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load state %s: %w", key, err)
	}

	if err := json.Unmarshal(record.Data, out); err != nil {
		return fmt.Errorf("failed to decode state %s: %w", key, err)
	}
	return nil
}

func (s *StateStorage) save(key string, state interface{}) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state %s: %w", key, err)
	}

	record := stateRecord{
		Key:       key,
		Data:      data,
		UpdatedAt: time.Now(),
	}

	if err := s.db.Store().Upsert(key, &record); err != nil {
		return fmt.Errorf("failed to save state %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("State persisted")
	return nil
}

func (s *StateStorage) delete(key string) error {
	err := s.db.Store().Delete(key, &stateRecord{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete state %s: %w", key, err)
	}
	return nil
}

// LoadIndexState loads the persisted search index blob
func (s *StateStorage) LoadIndexState(ctx context.Context) (*models.IndexState, error) {
	var state models.IndexState
	if err := s.load(indexStateKey, &state); err != nil {
		return nil, err
	}
	if state.Documents == nil {
		state.Documents = make(map[string]*models.SearchDocument)
	}
	return &state, nil
}

// SaveIndexState persists the search index blob
func (s *StateStorage) SaveIndexState(ctx context.Context, state *models.IndexState) error {
	return s.save(indexStateKey, state)
}

// DeleteIndexState removes the persisted search index blob
func (s *StateStorage) DeleteIndexState(ctx context.Context) error {
	return s.delete(indexStateKey)
}

// LoadAnalyticsState loads the persisted analytics blob
func (s *StateStorage) LoadAnalyticsState(ctx context.Context) (*models.AnalyticsState, error) {
	var state models.AnalyticsState
	if err := s.load(analyticsStateKey, &state); err != nil {
		return nil, err
	}
	if state.Sessions == nil {
		state.Sessions = make(map[string]*models.SearchSession)
	}
	if state.Performance == nil {
		state.Performance = make(map[string]*models.QueryPerformance)
	}
	return &state, nil
}

// SaveAnalyticsState persists the analytics blob
func (s *StateStorage) SaveAnalyticsState(ctx context.Context, state *models.AnalyticsState) error {
	return s.save(analyticsStateKey, state)
}

// DeleteAnalyticsState removes the persisted analytics blob
func (s *StateStorage) DeleteAnalyticsState(ctx context.Context) error {
	return s.delete(analyticsStateKey)
}
