package repositories

import (
	"context"

	"legal-rag/internal/models"
)

// VectorRepository defines the interface for chunk storage and retrieval.
// Both search modes enforce owner scoping at the storage layer: a query
// for one owner can never match another owner's chunks.
type VectorRepository interface {
	// StoreChunks persists a batch of chunks. Chunks without an
	// embedding are stored text-search-only.
	StoreChunks(ctx context.Context, chunks []*models.Chunk) error

	// SimilaritySearch returns chunks ranked by cosine similarity to the
	// query embedding, restricted to ownerID and to chunks that carry an
	// embedding.
	SimilaritySearch(ctx context.Context, ownerID string, queryEmbedding []float32, topK int) ([]*VectorHit, error)

	// TextSearch returns chunks whose text contains any of the keywords,
	// restricted to ownerID. No ranking signal is available; hits are
	// returned in storage order.
	TextSearch(ctx context.Context, ownerID string, keywords []string, limit int) ([]*VectorHit, error)

	// DeleteDocumentChunks removes all chunks of one document and
	// returns how many were deleted.
	DeleteDocumentChunks(ctx context.Context, ownerID, documentID string) (int, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// VectorHit is a single chunk returned by either search mode. Score is
// cosine similarity for similarity search and zero for text search; the
// retrieval layer assigns text hits their fixed confidence.
type VectorHit struct {
	ChunkID    string                 `json:"chunk_id"`
	DocumentID string                 `json:"document_id"`
	Text       string                 `json:"text"`
	Score      float32                `json:"score"`
	ChunkIndex int                    `json:"chunk_index"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// VectorRepositoryError represents errors from the vector repository
type VectorRepositoryError struct {
	Operation string
	Err       error
	Message   string
}

func (e *VectorRepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Operation + ": " + e.Err.Error()
	}
	return e.Operation + ": unknown error"
}

func (e *VectorRepositoryError) Unwrap() error {
	return e.Err
}

// NewVectorRepositoryError creates a new vector repository error
func NewVectorRepositoryError(operation string, err error, message string) *VectorRepositoryError {
	return &VectorRepositoryError{
		Operation: operation,
		Err:       err,
		Message:   message,
	}
}
