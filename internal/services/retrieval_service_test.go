package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"legal-rag/internal/config"
	"legal-rag/internal/models"
	"legal-rag/internal/repositories"
)

func setupRetrievalService(t *testing.T) (*RetrievalService, *MockVectorRepository, *MockDocumentRepository, *MockEmbedder, *MockWebSearcher) {
	t.Helper()

	vectorRepo := new(MockVectorRepository)
	docRepo := new(MockDocumentRepository)
	embedder := new(MockEmbedder)
	web := new(MockWebSearcher)

	cfg := config.Default()
	svc := NewRetrievalService(vectorRepo, docRepo, embedder, web, cfg.Retrieval, cfg.Ingestion.AllowedDomains, zap.NewNop())
	return svc, vectorRepo, docRepo, embedder, web
}

func queryEmbedding() []float32 {
	return make([]float32, models.EmbeddingDimension)
}

func vectorHit(id string, score float32) *repositories.VectorHit {
	return &repositories.VectorHit{
		ChunkID:    id,
		DocumentID: "doc-1",
		Text:       "Section 16 of the CGST Act states conditions for input tax credit.",
		Score:      score,
		Metadata:   map[string]interface{}{"source_type": "upload"},
	}
}

func TestRetrieve_VectorHitsWinWithoutFallback(t *testing.T) {
	svc, vectorRepo, docRepo, embedder, web := setupRetrievalService(t)
	ctx := context.Background()

	embedder.On("Embed", ctx, "itc conditions").Return(queryEmbedding(), nil)
	vectorRepo.On("SimilaritySearch", ctx, "user-1", mock.AnythingOfType("[]float32"), 5).
		Return([]*repositories.VectorHit{vectorHit("c1", 0.91), vectorHit("c2", 0.72)}, nil)
	docRepo.On("Get", ctx, "user-1", "doc-1").Return(&models.Document{ID: "doc-1", OwnerID: "user-1", Origin: "cgst-act.pdf"}, nil)

	result, err := svc.Retrieve(ctx, "user-1", "itc conditions", nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.RetrievalModeVector, result.Mode)
	assert.Len(t, result.Chunks, 2)
	assert.Equal(t, "cgst-act.pdf", result.Chunks[0].DocumentFilename)
	assert.Equal(t, float32(0.91), result.Chunks[0].Similarity)

	// Vector search succeeded: neither fallback may run.
	vectorRepo.AssertNotCalled(t, "TextSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	web.AssertNotCalled(t, "SearchWeb", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrieve_ThresholdFiltersLowScores(t *testing.T) {
	svc, vectorRepo, docRepo, embedder, _ := setupRetrievalService(t)
	ctx := context.Background()

	embedder.On("Embed", ctx, "itc").Return(queryEmbedding(), nil)
	vectorRepo.On("SimilaritySearch", ctx, "user-1", mock.AnythingOfType("[]float32"), 5).
		Return([]*repositories.VectorHit{vectorHit("c1", 0.9), vectorHit("c2", 0.4), vectorHit("c3", 0.65)}, nil)
	docRepo.On("Get", ctx, "user-1", "doc-1").Return(&models.Document{ID: "doc-1", OwnerID: "user-1", Origin: "cgst-act.pdf"}, nil)

	result, err := svc.Retrieve(ctx, "user-1", "itc", nil, nil)

	assert.NoError(t, err)
	assert.Len(t, result.Chunks, 1)
	assert.Equal(t, "c1", result.Chunks[0].ID)
}

func TestRetrieve_StableTieBreakByChunkID(t *testing.T) {
	svc, vectorRepo, docRepo, embedder, _ := setupRetrievalService(t)
	ctx := context.Background()

	embedder.On("Embed", ctx, "itc").Return(queryEmbedding(), nil)
	vectorRepo.On("SimilaritySearch", ctx, "user-1", mock.AnythingOfType("[]float32"), 5).
		Return([]*repositories.VectorHit{vectorHit("c9", 0.8), vectorHit("c2", 0.8), vectorHit("c5", 0.8)}, nil)
	docRepo.On("Get", ctx, "user-1", "doc-1").Return(&models.Document{ID: "doc-1", OwnerID: "user-1", Origin: "cgst-act.pdf"}, nil)

	result, err := svc.Retrieve(ctx, "user-1", "itc", nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, []string{result.Chunks[0].ID, result.Chunks[1].ID, result.Chunks[2].ID}, []string{"c2", "c5", "c9"})
}

func TestRetrieve_FallsBackToTextSearch(t *testing.T) {
	svc, vectorRepo, docRepo, embedder, web := setupRetrievalService(t)
	ctx := context.Background()

	embedder.On("Embed", ctx, "penalty provisions").Return(queryEmbedding(), nil)
	vectorRepo.On("SimilaritySearch", ctx, "user-1", mock.AnythingOfType("[]float32"), 5).
		Return([]*repositories.VectorHit{}, nil)
	vectorRepo.On("TextSearch", ctx, "user-1", mock.AnythingOfType("[]string"), 10).
		Return([]*repositories.VectorHit{vectorHit("c1", 0)}, nil)
	docRepo.On("Get", ctx, "user-1", "doc-1").Return(&models.Document{ID: "doc-1", OwnerID: "user-1", Origin: "cgst-act.pdf"}, nil)

	result, err := svc.Retrieve(ctx, "user-1", "penalty provisions", nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.RetrievalModeText, result.Mode)
	assert.Len(t, result.Chunks, 1)
	// Text hits carry the fixed moderate confidence.
	assert.Equal(t, float32(TextMatchConfidence), result.Chunks[0].Similarity)

	web.AssertNotCalled(t, "SearchWeb", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrieve_TextSearchUsesClassificationKeywords(t *testing.T) {
	svc, vectorRepo, docRepo, embedder, _ := setupRetrievalService(t)
	ctx := context.Background()
	classification := &models.QueryClassification{
		Domain:   models.DomainGST,
		Keywords: []string{"input tax credit", "section 16"},
	}

	embedder.On("Embed", ctx, "can I claim ITC?").Return(queryEmbedding(), nil)
	vectorRepo.On("SimilaritySearch", ctx, "user-1", mock.AnythingOfType("[]float32"), 5).
		Return([]*repositories.VectorHit{}, nil)
	vectorRepo.On("TextSearch", ctx, "user-1", []string{"input tax credit", "section 16"}, 10).
		Return([]*repositories.VectorHit{vectorHit("c1", 0)}, nil)
	docRepo.On("Get", ctx, "user-1", "doc-1").Return(&models.Document{ID: "doc-1", OwnerID: "user-1", Origin: "cgst-act.pdf"}, nil)

	result, err := svc.Retrieve(ctx, "user-1", "can I claim ITC?", classification, nil)

	assert.NoError(t, err)
	assert.Len(t, result.Chunks, 1)
	vectorRepo.AssertExpectations(t)
}

func TestRetrieve_FallsBackToWebSearch(t *testing.T) {
	svc, vectorRepo, _, embedder, web := setupRetrievalService(t)
	ctx := context.Background()

	embedder.On("Embed", ctx, "gst rate on cement").Return(queryEmbedding(), nil)
	vectorRepo.On("SimilaritySearch", ctx, "user-1", mock.AnythingOfType("[]float32"), 5).
		Return([]*repositories.VectorHit{}, nil)
	vectorRepo.On("TextSearch", ctx, "user-1", mock.AnythingOfType("[]string"), 10).
		Return([]*repositories.VectorHit{}, nil)
	web.On("SearchWeb", ctx, "gst rate on cement", mock.AnythingOfType("[]string"), 3).
		Return([]WebSearchResult{
			{Title: "GST Rates", URL: "https://gst.gov.in/rates", Markdown: strings.Repeat("cement attracts 28% GST. ", 200)},
		}, nil)

	result, err := svc.Retrieve(ctx, "user-1", "gst rate on cement", nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.RetrievalModeWeb, result.Mode)
	assert.Len(t, result.Snippets, 1)
	// Snippets are truncated to bound prompt size.
	assert.LessOrEqual(t, len(result.Snippets[0].Content), 2000)
	assert.Equal(t, "https://gst.gov.in/rates", result.Snippets[0].URL)
}

func TestRetrieve_EmptyEverywhereIsNotAnError(t *testing.T) {
	svc, vectorRepo, _, embedder, web := setupRetrievalService(t)
	ctx := context.Background()

	embedder.On("Embed", ctx, "what is gst?").Return(queryEmbedding(), nil)
	vectorRepo.On("SimilaritySearch", ctx, "user-1", mock.AnythingOfType("[]float32"), 5).
		Return([]*repositories.VectorHit{}, nil)
	vectorRepo.On("TextSearch", ctx, "user-1", mock.AnythingOfType("[]string"), 10).
		Return([]*repositories.VectorHit{}, nil)
	web.On("SearchWeb", ctx, "what is gst?", mock.AnythingOfType("[]string"), 3).
		Return([]WebSearchResult{}, nil)

	result, err := svc.Retrieve(ctx, "user-1", "what is gst?", nil, nil)

	assert.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestRetrieve_EmbeddingFailureFallsThrough(t *testing.T) {
	svc, vectorRepo, docRepo, embedder, _ := setupRetrievalService(t)
	ctx := context.Background()

	embedder.On("Embed", ctx, "penalty provisions").Return(nil, errors.New("provider down"))
	vectorRepo.On("TextSearch", ctx, "user-1", mock.AnythingOfType("[]string"), 10).
		Return([]*repositories.VectorHit{vectorHit("c1", 0)}, nil)
	docRepo.On("Get", ctx, "user-1", "doc-1").Return(&models.Document{ID: "doc-1", OwnerID: "user-1", Origin: "cgst-act.pdf"}, nil)

	result, err := svc.Retrieve(ctx, "user-1", "penalty provisions", nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.RetrievalModeText, result.Mode)
	vectorRepo.AssertNotCalled(t, "SimilaritySearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrieve_OwnerScopePassedToStorage(t *testing.T) {
	svc, vectorRepo, docRepo, embedder, web := setupRetrievalService(t)
	ctx := context.Background()

	embedder.On("Embed", ctx, mock.AnythingOfType("string")).Return(queryEmbedding(), nil)
	vectorRepo.On("SimilaritySearch", ctx, "user-a", mock.AnythingOfType("[]float32"), 5).
		Return([]*repositories.VectorHit{vectorHit("c1", 0.9)}, nil)
	vectorRepo.On("SimilaritySearch", ctx, "user-b", mock.AnythingOfType("[]float32"), 5).
		Return([]*repositories.VectorHit{}, nil)
	vectorRepo.On("TextSearch", ctx, "user-b", mock.AnythingOfType("[]string"), 10).
		Return([]*repositories.VectorHit{}, nil)
	docRepo.On("Get", ctx, "user-a", "doc-1").Return(&models.Document{ID: "doc-1", OwnerID: "user-a", Origin: "cgst-act.pdf"}, nil)
	web.On("SearchWeb", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("[]string"), 3).
		Return([]WebSearchResult{}, nil)

	// Identical query text: user-a sees their chunk, user-b sees nothing.
	resultA, err := svc.Retrieve(ctx, "user-a", "itc conditions", nil, nil)
	assert.NoError(t, err)
	assert.Len(t, resultA.Chunks, 1)

	resultB, err := svc.Retrieve(ctx, "user-b", "itc conditions", nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, resultB.Chunks)
}
