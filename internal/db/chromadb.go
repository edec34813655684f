package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"legal-rag/internal/config"
)

// ChromaClient wraps HTTP calls to the ChromaDB v2 API.
// The official Go client lags the v2 endpoints, so we talk to the REST
// surface directly.
type ChromaClient struct {
	baseURL    string
	rootURL    string
	httpClient *http.Client
}

// Collection represents a ChromaDB collection
type Collection struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata"`
}

// QueryResponse represents the response from a similarity query.
// ChromaDB nests results per query embedding; we always issue exactly one.
type QueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float32                `json:"distances"`
}

// GetResponse represents the response from a get request
type GetResponse struct {
	IDs        []string                 `json:"ids"`
	Documents  []string                 `json:"documents"`
	Metadatas  []map[string]interface{} `json:"metadatas"`
	Embeddings [][]float32              `json:"embeddings,omitempty"`
}

// NewChromaClient creates a client for the configured tenant and database.
func NewChromaClient(cfg config.ChromaConfig) *ChromaClient {
	rootURL := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	baseURL := fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s", rootURL, cfg.Tenant, cfg.Database)

	return &ChromaClient{
		baseURL: baseURL,
		rootURL: rootURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Heartbeat checks if ChromaDB is alive
func (c *ChromaClient) Heartbeat(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rootURL+"/api/v2/heartbeat", nil)
	if err != nil {
		return fmt.Errorf("failed to create heartbeat request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("heartbeat failed with status: %d", resp.StatusCode)
	}
	return nil
}

// doJSON issues a request with an optional JSON payload and decodes the
// response into out when out is non-nil.
func (c *ChromaClient) doJSON(ctx context.Context, method, url string, payload, out interface{}, okStatus ...int) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	ok := false
	for _, s := range okStatus {
		if resp.StatusCode == s {
			ok = true
			break
		}
	}
	if !ok {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma request failed (status %d): %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// GetCollection retrieves a collection by name
func (c *ChromaClient) GetCollection(ctx context.Context, name string) (*Collection, error) {
	var collection Collection
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, name)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &collection, http.StatusOK); err != nil {
		return nil, err
	}
	return &collection, nil
}

// CreateCollection creates a new collection
func (c *ChromaClient) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (*Collection, error) {
	payload := map[string]interface{}{
		"name":     name,
		"metadata": metadata,
	}

	var collection Collection
	url := fmt.Sprintf("%s/collections", c.baseURL)
	if err := c.doJSON(ctx, http.MethodPost, url, payload, &collection, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &collection, nil
}

// EnsureCollection returns the named collection, creating it if missing.
func (c *ChromaClient) EnsureCollection(ctx context.Context, name string) (*Collection, error) {
	collection, err := c.GetCollection(ctx, name)
	if err == nil {
		return collection, nil
	}
	return c.CreateCollection(ctx, name, map[string]interface{}{"hnsw:space": "cosine"})
}

// AddDocuments adds documents with embeddings and metadata to a collection.
// Entries in embeddings may be nil for text-only records.
func (c *ChromaClient) AddDocuments(ctx context.Context, collectionName string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}

	payload := map[string]interface{}{
		"ids":       ids,
		"documents": documents,
		"metadatas": metadatas,
	}
	if embeddings != nil {
		payload["embeddings"] = embeddings
	}

	url := fmt.Sprintf("%s/collections/%s/add", c.baseURL, collection.ID)
	return c.doJSON(ctx, http.MethodPost, url, payload, nil, http.StatusOK, http.StatusCreated)
}

// Query searches a collection for records similar to the query embedding,
// optionally filtered by metadata (where) and document content
// (whereDocument).
func (c *ChromaClient) Query(ctx context.Context, collectionName string, queryEmbedding []float32, nResults int, where, whereDocument map[string]interface{}) (*QueryResponse, error) {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	payload := map[string]interface{}{
		"query_embeddings": [][]float32{queryEmbedding},
		"n_results":        nResults,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if len(where) > 0 {
		payload["where"] = where
	}
	if len(whereDocument) > 0 {
		payload["where_document"] = whereDocument
	}

	var queryResp QueryResponse
	url := fmt.Sprintf("%s/collections/%s/query", c.baseURL, collection.ID)
	if err := c.doJSON(ctx, http.MethodPost, url, payload, &queryResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &queryResp, nil
}

// GetDocuments retrieves records matching the metadata and content filters.
func (c *ChromaClient) GetDocuments(ctx context.Context, collectionName string, where, whereDocument map[string]interface{}, limit int) (*GetResponse, error) {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	payload := map[string]interface{}{
		"include": []string{"documents", "metadatas"},
	}
	if len(where) > 0 {
		payload["where"] = where
	}
	if len(whereDocument) > 0 {
		payload["where_document"] = whereDocument
	}
	if limit > 0 {
		payload["limit"] = limit
	}

	var getResp GetResponse
	url := fmt.Sprintf("%s/collections/%s/get", c.baseURL, collection.ID)
	if err := c.doJSON(ctx, http.MethodPost, url, payload, &getResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &getResp, nil
}

// DeleteDocuments deletes records from a collection by IDs
func (c *ChromaClient) DeleteDocuments(ctx context.Context, collectionName string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}

	payload := map[string]interface{}{"ids": ids}
	url := fmt.Sprintf("%s/collections/%s/delete", c.baseURL, collection.ID)
	return c.doJSON(ctx, http.MethodPost, url, payload, nil, http.StatusOK, http.StatusNoContent)
}

// Close closes idle HTTP connections.
func (c *ChromaClient) Close() {
	c.httpClient.CloseIdleConnections()
}
