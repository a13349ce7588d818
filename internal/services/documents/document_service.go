package documents

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

var htmlTagPattern = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// Service is the ingest boundary in front of the search index. It validates
// incoming documents, normalizes HTML content to markdown, regenerates the
// searchable text, and keeps the index consistent with the caller's source
// of truth. Index mutators themselves never fail, so all rejection happens
// here.
type Service struct {
	index     interfaces.SearchService
	events    interfaces.EventService
	validate  *validator.Validate
	converter *md.Converter
	logger    arbor.ILogger
}

// NewService creates a document ingest service
func NewService(logger arbor.ILogger, index interfaces.SearchService, events interfaces.EventService) interfaces.DocumentService {
	return &Service{
		index:     index,
		events:    events,
		validate:  validator.New(),
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// Capture validates and indexes a new document, assigning an id when the
// caller did not provide one.
func (s *Service) Capture(doc *models.SearchDocument) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is nil")
	}

	if doc.ID == "" {
		doc.ID = common.NewDocumentID()
	}
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now()
	}

	if err := s.prepare(doc); err != nil {
		return "", err
	}

	s.index.AddDocument(doc)
	s.publish(interfaces.EventDocumentIndexed, doc.ID)

	s.logger.Info().Str("id", doc.ID).Str("type", string(doc.Type)).Msg("Document captured")
	return doc.ID, nil
}

// Update re-validates and fully re-indexes an existing document.
func (s *Service) Update(doc *models.SearchDocument) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}
	if doc.ID == "" {
		return fmt.Errorf("document id is required for update")
	}
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now()
	}

	if err := s.prepare(doc); err != nil {
		return err
	}

	s.index.UpdateDocument(doc)
	s.publish(interfaces.EventDocumentIndexed, doc.ID)

	s.logger.Info().Str("id", doc.ID).Msg("Document updated")
	return nil
}

// Delete removes a document from the index. Unknown ids are a no-op.
func (s *Service) Delete(id string) {
	if id == "" {
		return
	}
	s.index.RemoveDocument(id)
	s.publish(interfaces.EventDocumentRemoved, id)
}

// Stats returns current index statistics.
func (s *Service) Stats() *models.IndexStats {
	return s.index.Stats()
}

// prepare normalizes the document in place: type casing, HTML content, and
// the regenerated searchable text. Returns a validation error for documents
// that cannot be indexed.
func (s *Service) prepare(doc *models.SearchDocument) error {
	docType, err := models.ParseDocumentType(string(doc.Type))
	if err != nil {
		return err
	}
	doc.Type = docType

	plainContent := doc.Content
	if htmlTagPattern.MatchString(doc.Content) {
		plainContent = s.extractText(doc.Content)
		if markdown, err := s.converter.ConvertString(doc.Content); err == nil {
			doc.Content = markdown
		} else {
			s.logger.Warn().Err(err).Str("id", doc.ID).Msg("HTML to markdown conversion failed, keeping raw content")
		}
	}

	doc.Searchable = buildSearchable(doc, plainContent)

	if err := s.validate.Struct(doc); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return nil
}

// extractText strips markup to plain text for tokenization.
func (s *Service) extractText(html string) string {
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to parse HTML content")
		return html
	}
	parsed.Find("script, style").Remove()
	return strings.Join(strings.Fields(parsed.Text()), " ")
}

// buildSearchable flattens title, content, metadata values, and tags into
// the single text field the index tokenizes.
func buildSearchable(doc *models.SearchDocument, plainContent string) string {
	parts := make([]string, 0, 4+len(doc.Metadata)+len(doc.Tags))
	parts = append(parts, doc.Title, plainContent)

	// Metadata in key order so the output is deterministic
	keys := make([]string, 0, len(doc.Metadata))
	for key := range doc.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%v", doc.Metadata[key]))
	}

	parts = append(parts, doc.Tags...)

	searchable := strings.Join(parts, " ")
	return strings.ToLower(strings.Join(strings.Fields(searchable), " "))
}

func (s *Service) publish(eventType interfaces.EventType, documentID string) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(context.Background(), interfaces.Event{
		Type:    eventType,
		Payload: map[string]string{"document_id": documentID},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("id", documentID).Msg("Failed to publish document event")
	}
}
