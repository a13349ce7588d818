package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/invenio/internal/models"
)

// ErrStateNotFound is returned when no persisted state exists under a key.
var ErrStateNotFound = errors.New("state not found")

// IndexStateStore persists the search index as one blob under a fixed key.
// The index hydrates once at construction and saves after every mutation.
type IndexStateStore interface {
	LoadIndexState(ctx context.Context) (*models.IndexState, error)
	SaveIndexState(ctx context.Context, state *models.IndexState) error
	DeleteIndexState(ctx context.Context) error
}

// AnalyticsStateStore persists the analytics engine state as one blob under
// a fixed key.
type AnalyticsStateStore interface {
	LoadAnalyticsState(ctx context.Context) (*models.AnalyticsState, error)
	SaveAnalyticsState(ctx context.Context, state *models.AnalyticsState) error
	DeleteAnalyticsState(ctx context.Context) error
}

// StorageManager is the composite interface over all persistence.
type StorageManager interface {
	IndexStateStore() IndexStateStore
	AnalyticsStateStore() AnalyticsStateStore

	// DB exposes the underlying store for maintenance tasks (value-log GC).
	DB() interface{}
	Close() error
}
