package repositories

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"legal-rag/internal/models"
)

const (
	// Redis key prefixes
	documentKeyPrefix = "document:"
	ownerIndexPrefix  = "owner:"
	statusIndexPrefix = "status:"
)

// RedisDocumentRepository implements DocumentRepository using Redis
type RedisDocumentRepository struct {
	client *redis.Client
}

// NewRedisDocumentRepository creates a new Redis-based document repository
func NewRedisDocumentRepository(client *redis.Client) *RedisDocumentRepository {
	return &RedisDocumentRepository{
		client: client,
	}
}

func ownerIndexKey(ownerID string) string {
	return ownerIndexPrefix + ownerID + ":documents"
}

// Register stores a new document in the registry
func (r *RedisDocumentRepository) Register(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	exists, err := r.Exists(ctx, doc.ID)
	if err != nil {
		return NewDocumentRepositoryError("register", doc.ID, err, "")
	}
	if exists {
		return DocumentAlreadyExistsError(doc.ID)
	}

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return NewDocumentRepositoryError("register", doc.ID, err, "failed to marshal document")
	}

	// Use transaction to keep document and indexes consistent
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, documentKeyPrefix+doc.ID, docJSON, 0)
	pipe.SAdd(ctx, ownerIndexKey(doc.OwnerID), doc.ID)
	pipe.SAdd(ctx, statusIndexPrefix+string(doc.Status), doc.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewDocumentRepositoryError("register", doc.ID, err, "failed to execute transaction")
	}

	return nil
}

// get loads a document without owner scoping; callers outside this file
// go through Get which enforces ownership.
func (r *RedisDocumentRepository) get(ctx context.Context, documentID string) (*models.Document, error) {
	docJSON, err := r.client.Get(ctx, documentKeyPrefix+documentID).Result()
	if err == redis.Nil {
		return nil, DocumentNotFoundError(documentID)
	}
	if err != nil {
		return nil, NewDocumentRepositoryError("get", documentID, err, "")
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return nil, NewDocumentRepositoryError("get", documentID, err, "failed to unmarshal document")
	}

	return &doc, nil
}

// Get retrieves a document by ID, scoped to its owner. A document owned
// by someone else is indistinguishable from a missing one.
func (r *RedisDocumentRepository) Get(ctx context.Context, ownerID, documentID string) (*models.Document, error) {
	doc, err := r.get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, DocumentNotFoundError(documentID)
	}
	return doc, nil
}

// List retrieves all documents belonging to an owner, newest first.
func (r *RedisDocumentRepository) List(ctx context.Context, ownerID string) ([]*models.Document, error) {
	docIDs, err := r.client.SMembers(ctx, ownerIndexKey(ownerID)).Result()
	if err != nil {
		return nil, NewDocumentRepositoryError("list", "", err, "")
	}

	docs := make([]*models.Document, 0, len(docIDs))
	for _, id := range docIDs {
		doc, err := r.get(ctx, id)
		if err != nil {
			// Index entry without a document record; skip stale entries.
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	return docs, nil
}

// UpdateStatus transitions a document through the ingestion lifecycle.
// Transitions that would skip a state are rejected.
func (r *RedisDocumentRepository) UpdateStatus(ctx context.Context, documentID string, status models.DocumentStatus, update StatusUpdate) error {
	doc, err := r.get(ctx, documentID)
	if err != nil {
		return err
	}

	if !doc.Status.CanTransitionTo(status) {
		return InvalidTransitionError(documentID, doc.Status, status)
	}

	oldStatus := doc.Status
	doc.Status = status
	doc.UpdatedAt = time.Now()
	if update.ChunkCount != nil {
		doc.ChunkCount = *update.ChunkCount
	}
	if update.ErrorCode != "" {
		doc.ErrorCode = update.ErrorCode
	}
	if update.Metadata != nil {
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]interface{})
		}
		for k, v := range update.Metadata {
			doc.Metadata[k] = v
		}
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return NewDocumentRepositoryError("update_status", documentID, err, "failed to marshal document")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, documentKeyPrefix+documentID, docJSON, 0)
	pipe.SRem(ctx, statusIndexPrefix+string(oldStatus), documentID)
	pipe.SAdd(ctx, statusIndexPrefix+string(status), documentID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewDocumentRepositoryError("update_status", documentID, err, "failed to execute transaction")
	}

	return nil
}

// Delete removes a document and its index entries.
func (r *RedisDocumentRepository) Delete(ctx context.Context, ownerID, documentID string) error {
	doc, err := r.Get(ctx, ownerID, documentID)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, documentKeyPrefix+documentID)
	pipe.SRem(ctx, ownerIndexKey(doc.OwnerID), documentID)
	pipe.SRem(ctx, statusIndexPrefix+string(doc.Status), documentID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewDocumentRepositoryError("delete", documentID, err, "failed to execute transaction")
	}

	return nil
}

// Exists checks if a document is registered
func (r *RedisDocumentRepository) Exists(ctx context.Context, documentID string) (bool, error) {
	count, err := r.client.Exists(ctx, documentKeyPrefix+documentID).Result()
	if err != nil {
		return false, NewDocumentRepositoryError("exists", documentID, err, "")
	}
	return count > 0, nil
}

// Ping checks the Redis connection
func (r *RedisDocumentRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisDocumentRepository) Close() error {
	return r.client.Close()
}
