package models

import (
	"time"
)

// EmbeddingDimension is the fixed length of chunk embedding vectors.
const EmbeddingDimension = 1536

// Chunk is a contiguous, bounded span of a document's cleaned text.
// Chunks are immutable once created; re-ingestion of the same source
// creates a new document with new chunks.
type Chunk struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	OwnerID    string                 `json:"owner_id"`
	ChunkIndex int                    `json:"chunk_index"`
	Text       string                 `json:"text"`
	Embedding  []float32              `json:"embedding,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// HasEmbedding reports whether the chunk can participate in similarity
// search. A chunk without an embedding is still reachable via text search.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// Validate checks if the chunk is valid
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return &ValidationError{Field: "id", Message: "chunk ID is required"}
	}
	if c.DocumentID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	if c.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Message: "owner ID is required"}
	}
	if c.Text == "" {
		return &ValidationError{Field: "text", Message: "text is required"}
	}
	if c.ChunkIndex < 0 {
		return &ValidationError{Field: "chunk_index", Message: "chunk index cannot be negative"}
	}
	return nil
}

// RetrievalMode identifies which retrieval strategy produced a result set.
type RetrievalMode string

const (
	RetrievalModeVector RetrievalMode = "vector"
	RetrievalModeText   RetrievalMode = "text"
	RetrievalModeWeb    RetrievalMode = "web"
)

// RetrievedChunk is one ranked retrieval hit. For vector hits Score is
// cosine similarity in [0,1]; text hits carry a fixed moderate confidence
// since no fine-grained ranking signal exists.
type RetrievedChunk struct {
	ID               string                 `json:"id"`
	DocumentID       string                 `json:"document_id"`
	Content          string                 `json:"content"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	Similarity       float32                `json:"similarity"`
	DocumentFilename string                 `json:"document_filename,omitempty"`
}

// WebSnippet is a markdown excerpt from an external web search, truncated
// to bound prompt size.
type WebSnippet struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// RetrievalResult is the ranked output of one retrieval pass.
type RetrievalResult struct {
	Mode     RetrievalMode    `json:"mode"`
	Chunks   []RetrievedChunk `json:"chunks,omitempty"`
	Snippets []WebSnippet     `json:"snippets,omitempty"`
}

// Empty reports whether the pass produced no usable context.
func (r *RetrievalResult) Empty() bool {
	return r == nil || (len(r.Chunks) == 0 && len(r.Snippets) == 0)
}
