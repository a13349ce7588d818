package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// Service is the inverted-index document store. The primary document map is
// the source of truth; the word/tag/type/date indices are projections of it,
// rebuilt from persisted state at construction and maintained incrementally
// on every mutation.
//
// Search takes a read lock; mutators take the write lock and persist the
// whole state afterward. Persistence failures are logged and swallowed,
// leaving the in-memory state authoritative.
type Service struct {
	mu        sync.RWMutex
	documents map[string]*models.SearchDocument
	wordIndex map[string]map[string]struct{}
	tagIndex  map[string]map[string]struct{}
	typeIndex map[models.DocumentType]map[string]struct{}
	dateIndex map[string]map[string]struct{}

	store  interfaces.IndexStateStore
	logger arbor.ILogger
	config *common.SearchConfig

	now func() time.Time
}

// NewService creates a search index hydrated from persisted state. A missing
// or unreadable state blob degrades to an empty index.
func NewService(logger arbor.ILogger, store interfaces.IndexStateStore, config *common.SearchConfig) interfaces.SearchService {
	s := &Service{
		documents: make(map[string]*models.SearchDocument),
		wordIndex: make(map[string]map[string]struct{}),
		tagIndex:  make(map[string]map[string]struct{}),
		typeIndex: make(map[models.DocumentType]map[string]struct{}),
		dateIndex: make(map[string]map[string]struct{}),
		store:     store,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
	s.hydrate()
	return s
}

// hydrate loads the persisted document map and rebuilds secondary indices.
func (s *Service) hydrate() {
	if s.store == nil {
		return
	}

	state, err := s.store.LoadIndexState(context.Background())
	if err != nil {
		if err != interfaces.ErrStateNotFound {
			s.logger.Warn().Err(err).Msg("Failed to load index state, starting empty")
		}
		return
	}

	for id, doc := range state.Documents {
		if doc == nil || id == "" {
			continue
		}
		s.documents[id] = doc
		s.indexDocument(doc)
	}

	s.logger.Info().Int("documents", len(s.documents)).Msg("Search index hydrated")
}

// AddDocument stores and indexes a document. Calling it twice with the same
// id re-adds into idempotent set buckets; use UpdateDocument when fields may
// have changed.
func (s *Service) AddDocument(doc *models.SearchDocument) {
	if doc == nil || doc.ID == "" {
		return
	}

	s.mu.Lock()
	s.documents[doc.ID] = doc
	s.indexDocument(doc)
	s.mu.Unlock()

	s.persist()

	s.logger.Debug().Str("id", doc.ID).Str("type", string(doc.Type)).Msg("Document indexed")
}

// UpdateDocument fully re-indexes a document as remove-then-add so no stale
// tokens or tags from the prior version survive.
func (s *Service) UpdateDocument(doc *models.SearchDocument) {
	if doc == nil || doc.ID == "" {
		return
	}

	s.mu.Lock()
	if _, exists := s.documents[doc.ID]; exists {
		s.unindexDocument(doc.ID)
	}
	s.documents[doc.ID] = doc
	s.indexDocument(doc)
	s.mu.Unlock()

	s.persist()

	s.logger.Debug().Str("id", doc.ID).Msg("Document re-indexed")
}

// RemoveDocument excises a document from every index. Unknown ids are a
// no-op.
func (s *Service) RemoveDocument(id string) {
	s.mu.Lock()
	_, exists := s.documents[id]
	if exists {
		s.unindexDocument(id)
		delete(s.documents, id)
	}
	s.mu.Unlock()

	if !exists {
		return
	}

	s.persist()

	s.logger.Debug().Str("id", id).Msg("Document removed from index")
}

// Suggestions returns word-index keys and tag-index keys (prefixed with "#")
// starting with the lower-cased prefix.
func (s *Service) Suggestions(prefix string, limit int) []string {
	if limit <= 0 {
		limit = s.config.SuggestionLimit
	}
	if limit <= 0 {
		limit = 10
	}

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil
	}

	s.mu.RLock()
	words := make([]string, 0)
	for word := range s.wordIndex {
		if strings.HasPrefix(word, prefix) {
			words = append(words, word)
		}
	}
	tags := make([]string, 0)
	for tag := range s.tagIndex {
		if strings.HasPrefix(tag, prefix) {
			tags = append(tags, "#"+tag)
		}
	}
	s.mu.RUnlock()

	sort.Strings(words)
	sort.Strings(tags)

	suggestions := make([]string, 0, len(words)+len(tags))
	seen := make(map[string]struct{})
	for _, candidate := range append(words, tags...) {
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		suggestions = append(suggestions, candidate)
		if len(suggestions) >= limit {
			break
		}
	}
	return suggestions
}

// Stats returns current index statistics.
func (s *Service) Stats() *models.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byType := make(map[string]int)
	for docType, ids := range s.typeIndex {
		byType[string(docType)] = len(ids)
	}

	return &models.IndexStats{
		TotalDocuments:  len(s.documents),
		DocumentsByType: byType,
		TagCount:        len(s.tagIndex),
		WordCount:       len(s.wordIndex),
		ApproxSize:      s.approxSize(),
	}
}

// Clear empties every index and persists the empty state.
func (s *Service) Clear() {
	s.mu.Lock()
	s.documents = make(map[string]*models.SearchDocument)
	s.wordIndex = make(map[string]map[string]struct{})
	s.tagIndex = make(map[string]map[string]struct{})
	s.typeIndex = make(map[models.DocumentType]map[string]struct{})
	s.dateIndex = make(map[string]map[string]struct{})
	s.mu.Unlock()

	s.persist()

	s.logger.Info().Msg("Search index cleared")
}

// indexDocument inserts a document's id into every secondary index bucket.
// Caller holds the write lock.
func (s *Service) indexDocument(doc *models.SearchDocument) {
	addToBucket(s.typeIndex, doc.Type, doc.ID)

	for _, tag := range doc.NormalizedTags() {
		addToBucket(s.tagIndex, tag, doc.ID)
	}

	for _, word := range tokenizeUnique(doc.Searchable) {
		addToBucket(s.wordIndex, word, doc.ID)
	}

	addToBucket(s.dateIndex, doc.DateKey(), doc.ID)
}

// unindexDocument removes a document's id from every secondary index bucket.
// Caller holds the write lock.
func (s *Service) unindexDocument(id string) {
	doc := s.documents[id]
	if doc == nil {
		return
	}

	removeFromBucket(s.typeIndex, doc.Type, id)

	for _, tag := range doc.NormalizedTags() {
		removeFromBucket(s.tagIndex, tag, id)
	}

	for _, word := range tokenizeUnique(doc.Searchable) {
		removeFromBucket(s.wordIndex, word, id)
	}

	removeFromBucket(s.dateIndex, doc.DateKey(), id)
}

// persist writes the whole document map to storage. Failures degrade to a
// warning; the in-memory index stays authoritative.
func (s *Service) persist() {
	if s.store == nil {
		return
	}

	s.mu.RLock()
	state := &models.IndexState{
		Documents: make(map[string]*models.SearchDocument, len(s.documents)),
	}
	for id, doc := range s.documents {
		state.Documents[id] = doc
	}
	s.mu.RUnlock()

	if err := s.store.SaveIndexState(context.Background(), state); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist search index")
	}
}

func (s *Service) approxSize() string {
	data, err := json.Marshal(s.documents)
	if err != nil {
		return "unknown"
	}
	size := float64(len(data))
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", size/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", size/(1<<10))
	default:
		return fmt.Sprintf("%d B", len(data))
	}
}

func addToBucket[K comparable](index map[K]map[string]struct{}, key K, id string) {
	bucket, ok := index[key]
	if !ok {
		bucket = make(map[string]struct{})
		index[key] = bucket
	}
	bucket[id] = struct{}{}
}

func removeFromBucket[K comparable](index map[K]map[string]struct{}, key K, id string) {
	bucket, ok := index[key]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(index, key)
	}
}
