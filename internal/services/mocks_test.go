package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"legal-rag/internal/models"
	"legal-rag/internal/repositories"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Register(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Get(ctx context.Context, ownerID, documentID string) (*models.Document, error) {
	args := m.Called(ctx, ownerID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, ownerID string) ([]*models.Document, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) UpdateStatus(ctx context.Context, documentID string, status models.DocumentStatus, update repositories.StatusUpdate) error {
	args := m.Called(ctx, documentID, status, update)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, ownerID, documentID string) error {
	args := m.Called(ctx, ownerID, documentID)
	return args.Error(0)
}

func (m *MockDocumentRepository) Exists(ctx context.Context, documentID string) (bool, error) {
	args := m.Called(ctx, documentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDocumentRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockVectorRepository struct {
	mock.Mock
}

func (m *MockVectorRepository) StoreChunks(ctx context.Context, chunks []*models.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockVectorRepository) SimilaritySearch(ctx context.Context, ownerID string, queryEmbedding []float32, topK int) ([]*repositories.VectorHit, error) {
	args := m.Called(ctx, ownerID, queryEmbedding, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repositories.VectorHit), args.Error(1)
}

func (m *MockVectorRepository) TextSearch(ctx context.Context, ownerID string, keywords []string, limit int) ([]*repositories.VectorHit, error) {
	args := m.Called(ctx, ownerID, keywords, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repositories.VectorHit), args.Error(1)
}

func (m *MockVectorRepository) DeleteDocumentChunks(ctx context.Context, ownerID, documentID string) (int, error) {
	args := m.Called(ctx, ownerID, documentID)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVectorRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ============================================================================
// Mock Providers
// ============================================================================

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, data []byte, mediaType string) (string, error) {
	args := m.Called(ctx, data, mediaType)
	return args.String(0), args.Error(1)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Save(ctx context.Context, path string, data []byte) error {
	args := m.Called(ctx, path, data)
	return args.Error(0)
}

func (m *MockFileStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockScraper struct {
	mock.Mock
}

func (m *MockScraper) Scrape(ctx context.Context, url string) (*ScrapedPage, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ScrapedPage), args.Error(1)
}

type MockWebSearcher struct {
	mock.Mock
}

func (m *MockWebSearcher) SearchWeb(ctx context.Context, query string, siteDomains []string, limit int) ([]WebSearchResult, error) {
	args := m.Called(ctx, query, siteDomains, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]WebSearchResult), args.Error(1)
}

type MockLegalSearcher struct {
	mock.Mock
}

func (m *MockLegalSearcher) SearchLegal(ctx context.Context, query string, limit int) ([]LegalDocument, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LegalDocument), args.Error(1)
}
