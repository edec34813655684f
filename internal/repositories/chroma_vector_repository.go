package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"legal-rag/internal/db"
	"legal-rag/internal/models"
)

// ChromaVectorRepository implements VectorRepository on top of the
// ChromaDB v2 HTTP client. All chunks live in one collection; owner
// scoping is a metadata filter applied on every read.
type ChromaVectorRepository struct {
	client     chromaAPI
	collection string
}

// chromaAPI is the subset of db.ChromaClient the repository uses,
// declared as an interface so tests can exercise the repository against
// a fake server-less client.
type chromaAPI interface {
	Heartbeat(ctx context.Context) error
	AddDocuments(ctx context.Context, collectionName string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error
	Query(ctx context.Context, collectionName string, queryEmbedding []float32, nResults int, where, whereDocument map[string]interface{}) (*db.QueryResponse, error)
	GetDocuments(ctx context.Context, collectionName string, where, whereDocument map[string]interface{}, limit int) (*db.GetResponse, error)
	DeleteDocuments(ctx context.Context, collectionName string, ids []string) error
	Close()
}

// NewChromaVectorRepository creates a ChromaDB-backed vector repository
// storing chunks in the named collection.
func NewChromaVectorRepository(client chromaAPI, collection string) *ChromaVectorRepository {
	return &ChromaVectorRepository{
		client:     client,
		collection: collection,
	}
}

// StoreChunks persists a batch of chunks. Chunks without an embedding get
// a zero vector and are marked so similarity search can exclude them.
func (r *ChromaVectorRepository) StoreChunks(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	metadatas := make([]map[string]interface{}, len(chunks))

	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return NewVectorRepositoryError("store_chunks", err, "")
		}

		ids[i] = chunk.ID
		documents[i] = chunk.Text

		metadata := map[string]interface{}{
			"document_id":   chunk.DocumentID,
			"owner_id":      chunk.OwnerID,
			"chunk_index":   chunk.ChunkIndex,
			"has_embedding": chunk.HasEmbedding(),
		}
		// ChromaDB only supports scalar metadata values; arrays and maps
		// are serialized to JSON strings.
		for k, v := range chunk.Metadata {
			switch val := v.(type) {
			case string, int, int64, float32, float64, bool:
				metadata[k] = val
			default:
				if jsonBytes, err := json.Marshal(val); err == nil {
					metadata[k] = string(jsonBytes)
				}
			}
		}
		metadatas[i] = metadata

		if chunk.HasEmbedding() {
			embeddings[i] = chunk.Embedding
		} else {
			embeddings[i] = make([]float32, models.EmbeddingDimension)
		}
	}

	if err := r.client.AddDocuments(ctx, r.collection, ids, documents, embeddings, metadatas); err != nil {
		return NewVectorRepositoryError("store_chunks", err, fmt.Sprintf("failed to store %d chunks", len(chunks)))
	}

	return nil
}

// SimilaritySearch runs a cosine similarity query restricted to the
// owner's embedded chunks.
func (r *ChromaVectorRepository) SimilaritySearch(ctx context.Context, ownerID string, queryEmbedding []float32, topK int) ([]*VectorHit, error) {
	where := map[string]interface{}{
		"$and": []map[string]interface{}{
			{"owner_id": ownerID},
			{"has_embedding": true},
		},
	}

	results, err := r.client.Query(ctx, r.collection, queryEmbedding, topK, where, nil)
	if err != nil {
		return nil, NewVectorRepositoryError("similarity_search", err, "query failed")
	}

	hits := make([]*VectorHit, 0)
	if len(results.IDs) > 0 {
		for i := range results.IDs[0] {
			metadata := map[string]interface{}{}
			if len(results.Metadatas) > 0 && len(results.Metadatas[0]) > i {
				metadata = results.Metadatas[0][i]
			}

			var text string
			if len(results.Documents) > 0 && len(results.Documents[0]) > i {
				text = results.Documents[0][i]
			}

			var distance float32
			if len(results.Distances) > 0 && len(results.Distances[0]) > i {
				distance = results.Distances[0][i]
			}

			// Cosine distance to similarity, clamped to [0,1].
			score := 1.0 - distance
			if score < 0 {
				score = 0
			}
			if score > 1 {
				score = 1
			}

			hits = append(hits, hitFromMetadata(results.IDs[0][i], text, score, metadata))
		}
	}

	return hits, nil
}

// TextSearch matches chunks containing any keyword, owner-scoped. Score
// is left at zero; keyword retrieval has no fine-grained ranking signal.
func (r *ChromaVectorRepository) TextSearch(ctx context.Context, ownerID string, keywords []string, limit int) ([]*VectorHit, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	where := map[string]interface{}{"owner_id": ownerID}

	var whereDocument map[string]interface{}
	if len(keywords) == 1 {
		whereDocument = map[string]interface{}{"$contains": keywords[0]}
	} else {
		clauses := make([]map[string]interface{}, len(keywords))
		for i, kw := range keywords {
			clauses[i] = map[string]interface{}{"$contains": kw}
		}
		whereDocument = map[string]interface{}{"$or": clauses}
	}

	results, err := r.client.GetDocuments(ctx, r.collection, where, whereDocument, limit)
	if err != nil {
		return nil, NewVectorRepositoryError("text_search", err, "get failed")
	}

	hits := make([]*VectorHit, 0, len(results.IDs))
	for i, id := range results.IDs {
		metadata := map[string]interface{}{}
		if len(results.Metadatas) > i {
			metadata = results.Metadatas[i]
		}

		var text string
		if len(results.Documents) > i {
			text = results.Documents[i]
		}

		hits = append(hits, hitFromMetadata(id, text, 0, metadata))
	}

	return hits, nil
}

// DeleteDocumentChunks removes every chunk of one owned document.
func (r *ChromaVectorRepository) DeleteDocumentChunks(ctx context.Context, ownerID, documentID string) (int, error) {
	where := map[string]interface{}{
		"$and": []map[string]interface{}{
			{"owner_id": ownerID},
			{"document_id": documentID},
		},
	}

	result, err := r.client.GetDocuments(ctx, r.collection, where, nil, 0)
	if err != nil {
		return 0, NewVectorRepositoryError("delete_document_chunks", err, "failed to get chunks for document")
	}
	if len(result.IDs) == 0 {
		return 0, nil
	}

	if err := r.client.DeleteDocuments(ctx, r.collection, result.IDs); err != nil {
		return 0, NewVectorRepositoryError("delete_document_chunks", err, fmt.Sprintf("failed to delete %d chunks", len(result.IDs)))
	}

	return len(result.IDs), nil
}

// Ping checks the ChromaDB connection
func (r *ChromaVectorRepository) Ping(ctx context.Context) error {
	return r.client.Heartbeat(ctx)
}

// Close closes the underlying client
func (r *ChromaVectorRepository) Close() error {
	r.client.Close()
	return nil
}

func hitFromMetadata(id, text string, score float32, metadata map[string]interface{}) *VectorHit {
	hit := &VectorHit{
		ChunkID:  id,
		Text:     text,
		Score:    score,
		Metadata: metadata,
	}
	if docID, ok := metadata["document_id"].(string); ok {
		hit.DocumentID = docID
	}
	switch idx := metadata["chunk_index"].(type) {
	case float64:
		hit.ChunkIndex = int(idx)
	case int:
		hit.ChunkIndex = idx
	}
	return hit
}
