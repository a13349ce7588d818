package interfaces

import "github.com/ternarybob/invenio/internal/models"

// DocumentService is the ingest boundary. Collaborators (expense/contact/
// diary CRUD handlers) hand it domain documents on every create, edit, and
// delete; it validates, normalizes content, regenerates the searchable text,
// and keeps the index consistent with the source of truth.
type DocumentService interface {
	// Capture validates and indexes a new document, assigning an ID when the
	// caller did not provide one. Returns the document id.
	Capture(doc *models.SearchDocument) (string, error)

	// Update re-validates and fully re-indexes an existing document.
	Update(doc *models.SearchDocument) error

	// Delete removes a document from the index. Unknown ids are a no-op.
	Delete(id string)

	// Stats returns current index statistics.
	Stats() *models.IndexStats
}
