package repositories

import (
	"context"

	"legal-rag/internal/models"
)

// DocumentRepository defines the interface for the document registry.
// This abstracts Redis operations for document metadata storage. Every
// read is owner-scoped; a caller can never observe another owner's
// documents through this interface.
type DocumentRepository interface {
	// Register stores a new document in pending status.
	Register(ctx context.Context, doc *models.Document) error

	// Get retrieves a document owned by ownerID. Returns
	// DocumentNotFoundError when the document does not exist or belongs
	// to a different owner.
	Get(ctx context.Context, ownerID, documentID string) (*models.Document, error)

	// List returns all documents owned by ownerID.
	List(ctx context.Context, ownerID string) ([]*models.Document, error)

	// UpdateStatus transitions a document through the ingestion state
	// machine, optionally recording the chunk count and a failure code.
	UpdateStatus(ctx context.Context, documentID string, status models.DocumentStatus, update StatusUpdate) error

	// Delete removes a document from the registry. Used when cascading
	// an owner deletion together with VectorRepository.DeleteDocumentChunks.
	Delete(ctx context.Context, ownerID, documentID string) error

	// Exists checks whether a document is registered.
	Exists(ctx context.Context, documentID string) (bool, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// StatusUpdate carries the optional fields recorded on a status change.
type StatusUpdate struct {
	ChunkCount *int
	ErrorCode  models.ErrorCode
	Metadata   map[string]interface{}
}

// DocumentRepositoryError represents errors from the document repository
type DocumentRepositoryError struct {
	Operation  string
	DocumentID string
	Err        error
	Message    string
}

func (e *DocumentRepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	prefix := e.Operation
	if e.DocumentID != "" {
		prefix += " (doc: " + e.DocumentID + ")"
	}
	if e.Err != nil {
		return prefix + ": " + e.Err.Error()
	}
	return prefix + ": unknown error"
}

func (e *DocumentRepositoryError) Unwrap() error {
	return e.Err
}

// NewDocumentRepositoryError creates a new document repository error
func NewDocumentRepositoryError(operation string, documentID string, err error, message string) *DocumentRepositoryError {
	return &DocumentRepositoryError{
		Operation:  operation,
		DocumentID: documentID,
		Err:        err,
		Message:    message,
	}
}

// DocumentNotFoundError indicates the document does not exist for the
// requesting owner.
func DocumentNotFoundError(documentID string) error {
	return NewDocumentRepositoryError(
		"get_document",
		documentID,
		nil,
		"document not found: "+documentID,
	)
}

// DocumentAlreadyExistsError indicates a registration collision.
func DocumentAlreadyExistsError(documentID string) error {
	return NewDocumentRepositoryError(
		"register_document",
		documentID,
		nil,
		"document already exists: "+documentID,
	)
}

// InvalidTransitionError indicates a status change that would skip a
// state of the ingestion lifecycle.
func InvalidTransitionError(documentID string, from, to models.DocumentStatus) error {
	return NewDocumentRepositoryError(
		"update_status",
		documentID,
		nil,
		"invalid status transition: "+string(from)+" -> "+string(to),
	)
}

// IsNotFound reports whether err is a document-not-found error.
func IsNotFound(err error) bool {
	repoErr, ok := err.(*DocumentRepositoryError)
	return ok && repoErr.Operation == "get_document" && repoErr.Err == nil
}
