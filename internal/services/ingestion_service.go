package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"legal-rag/internal/config"
	"legal-rag/internal/models"
	"legal-rag/internal/repositories"
)

// IngestionService runs the document pipeline: it registers sources,
// extracts and cleans their text, chunks it, embeds each chunk and
// persists the results. Every run drives the document to a terminal
// status before returning.
type IngestionService struct {
	documents repositories.DocumentRepository
	vectors   repositories.VectorRepository
	chunker   *Chunker
	embedder  Embedder
	extractor TextExtractor
	files     FileStore
	scraper   Scraper
	legal     LegalSearcher
	cfg       config.IngestionConfig
	logger    *zap.Logger
}

// NewIngestionService creates the ingestion pipeline.
func NewIngestionService(
	documents repositories.DocumentRepository,
	vectors repositories.VectorRepository,
	embedder Embedder,
	extractor TextExtractor,
	files FileStore,
	scraper Scraper,
	legal LegalSearcher,
	cfg config.IngestionConfig,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		documents: documents,
		vectors:   vectors,
		chunker:   NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinChunkLength),
		embedder:  embedder,
		extractor: extractor,
		files:     files,
		scraper:   scraper,
		legal:     legal,
		cfg:       cfg,
		logger:    logger,
	}
}

// IngestResult reports the outcome of one pipeline run.
type IngestResult struct {
	DocumentID      string `json:"documentId"`
	ChunksProcessed int    `json:"chunksProcessed"`
}

// RegisterUpload stores the uploaded bytes and registers a pending
// document for them. Processing happens in a separate ProcessDocument
// call so the caller controls when the pipeline runs.
func (s *IngestionService) RegisterUpload(ctx context.Context, ownerID, filename, mediaType string, data []byte) (*models.Document, error) {
	if ownerID == "" {
		return nil, &models.ValidationError{Field: "owner_id", Message: "owner ID is required"}
	}
	if len(data) == 0 {
		return nil, &models.ValidationError{Field: "file", Message: "file is empty"}
	}

	doc := &models.Document{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		SourceType: models.SourceTypeUpload,
		Origin:     filepath.Base(filename),
		FileSize:   int64(len(data)),
		MediaType:  mediaType,
		Status:     models.DocumentStatusPending,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	storagePath := doc.ID + filepath.Ext(filename)
	if err := s.files.Save(ctx, storagePath, data); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	doc.Metadata = map[string]interface{}{"storage_path": storagePath}

	if err := s.documents.Register(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("upload registered",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Origin),
		zap.Int64("size", doc.FileSize))

	return doc, nil
}

// ProcessDocument runs the pipeline for a registered upload. The
// document must be pending; the run ends with the document processed
// or failed.
func (s *IngestionService) ProcessDocument(ctx context.Context, ownerID, documentID string) (*IngestResult, error) {
	doc, err := s.documents.Get(ctx, ownerID, documentID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, models.NewAppError(models.CodeDocNotFound, "document not found", err)
		}
		return nil, err
	}

	if doc.Status != models.DocumentStatusPending {
		return nil, models.NewAppError(models.CodeProcessingError,
			fmt.Sprintf("document is %s, expected pending", doc.Status), nil)
	}

	// Once processing starts the document must reach a terminal status
	// even if the caller disconnects.
	ctx = context.WithoutCancel(ctx)

	if err := s.documents.UpdateStatus(ctx, doc.ID, models.DocumentStatusProcessing, repositories.StatusUpdate{}); err != nil {
		return nil, err
	}

	storagePath, _ := doc.Metadata["storage_path"].(string)
	data, err := s.files.Fetch(ctx, storagePath)
	if err != nil {
		return nil, s.fail(ctx, doc, models.CodeProcessingFailed, "failed to read stored file", err)
	}

	text, err := s.extractor.Extract(ctx, data, doc.MediaType)
	if err != nil {
		return nil, s.fail(ctx, doc, models.CodeExtractionFailed, "text extraction failed", err)
	}

	return s.processText(ctx, doc, text, nil)
}

// ScrapeAndIngest validates the URL against the government domain
// allow-list, scrapes the page and runs the pipeline over its markdown.
// The allow-list is checked before any network fetch happens.
func (s *IngestionService) ScrapeAndIngest(ctx context.Context, ownerID, rawURL string) (*IngestResult, error) {
	if ownerID == "" {
		return nil, &models.ValidationError{Field: "owner_id", Message: "owner ID is required"}
	}

	host, err := s.validateScrapeURL(rawURL)
	if err != nil {
		return nil, err
	}

	// The URL passed validation; from here the run must reach a terminal
	// status even if the caller disconnects.
	ctx = context.WithoutCancel(ctx)

	doc := &models.Document{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		SourceType: models.SourceTypeWeb,
		Origin:     rawURL,
		Status:     models.DocumentStatusPending,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
		Metadata: map[string]interface{}{
			"hostname": host,
		},
	}
	if err := s.documents.Register(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.documents.UpdateStatus(ctx, doc.ID, models.DocumentStatusProcessing, repositories.StatusUpdate{}); err != nil {
		return nil, err
	}

	// The fetch runs inside processing: a failed scrape is a failed
	// ingestion, recorded on the document.
	page, err := s.scraper.Scrape(ctx, rawURL)
	if err != nil {
		return nil, s.fail(ctx, doc, models.CodeProcessingFailed, "failed to scrape page", err)
	}

	return s.processText(ctx, doc, page.Markdown, map[string]interface{}{
		"source_url": page.SourceURL,
		"title":      page.Title,
	})
}

// LegalSearchIngest queries the legal-database API and ingests each
// candidate as its own document. Candidates are processed concurrently
// in independent runs: one candidate failing never cancels or blocks
// the others, and every candidate reaches a terminal status.
func (s *IngestionService) LegalSearchIngest(ctx context.Context, ownerID, query string) ([]*IngestResult, error) {
	if ownerID == "" {
		return nil, &models.ValidationError{Field: "owner_id", Message: "owner ID is required"}
	}
	if strings.TrimSpace(query) == "" {
		return nil, &models.ValidationError{Field: "query", Message: "query is required"}
	}

	candidates, err := s.legal.SearchLegal(ctx, query, s.cfg.MaxLegalCandidates)
	if err != nil {
		return nil, models.NewAppError(models.CodeProcessingFailed, "legal search failed", err)
	}
	if len(candidates) > s.cfg.MaxLegalCandidates {
		candidates = candidates[:s.cfg.MaxLegalCandidates]
	}

	// Candidate runs must reach their terminal status even if the caller
	// disconnects mid-flight.
	ctx = context.WithoutCancel(ctx)

	results := make([]*IngestResult, len(candidates))
	errs := make([]error, len(candidates))
	var g errgroup.Group
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			res, err := s.ingestLegalCandidate(ctx, ownerID, query, cand)
			if err != nil {
				s.logger.Warn("legal candidate ingestion failed",
					zap.String("resource_id", cand.ResourceID),
					zap.Error(err))
				errs[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	ingested := make([]*IngestResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			ingested = append(ingested, r)
		}
	}
	if len(ingested) == 0 && len(candidates) > 0 {
		return nil, models.NewAppError(models.CodeProcessingFailed,
			"all legal candidates failed to ingest", errors.Join(errs...))
	}
	return ingested, nil
}

func (s *IngestionService) ingestLegalCandidate(ctx context.Context, ownerID, query string, cand LegalDocument) (*IngestResult, error) {
	doc := &models.Document{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		SourceType: models.SourceTypeLegalSearch,
		Origin:     cand.ResourceID,
		Status:     models.DocumentStatusPending,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
		Metadata: map[string]interface{}{
			"title":        cand.Title,
			"source_url":   cand.URL,
			"search_query": query,
		},
	}
	if err := s.documents.Register(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.documents.UpdateStatus(ctx, doc.ID, models.DocumentStatusProcessing, repositories.StatusUpdate{}); err != nil {
		return nil, err
	}

	return s.processText(ctx, doc, cand.Text, map[string]interface{}{
		"title":      cand.Title,
		"source_url": cand.URL,
	})
}

// processText is the shared back half of the pipeline: clean, gate on
// extracted length, chunk, embed and persist. It always drives the
// document to a terminal status. A chunk whose embedding fails is still
// persisted for text search; the run only fails when no chunk at all
// could be persisted.
func (s *IngestionService) processText(ctx context.Context, doc *models.Document, text string, chunkMeta map[string]interface{}) (*IngestResult, error) {
	cleaned := NormalizeText(text)
	if len(cleaned) < s.cfg.MinExtractedLength {
		return nil, s.fail(ctx, doc, models.CodeExtractionFailed,
			fmt.Sprintf("extracted text too short: %d chars", len(cleaned)), nil)
	}

	pieces := s.chunker.Chunk(cleaned)
	if len(pieces) == 0 {
		return nil, s.fail(ctx, doc, models.CodeProcessingFailed, "chunking produced no usable chunks", nil)
	}

	now := time.Now().UTC()
	embedFailures := 0
	chunks := make([]*models.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunk := &models.Chunk{
			ID:         fmt.Sprintf("%s:%d", doc.ID, i),
			DocumentID: doc.ID,
			OwnerID:    doc.OwnerID,
			ChunkIndex: i,
			Text:       piece,
			CreatedAt:  now,
			Metadata:   s.chunkMetadata(doc, chunkMeta),
		}

		embedding, err := s.embedder.Embed(ctx, piece)
		if err != nil {
			embedFailures++
			s.logger.Warn("chunk embedding failed, storing text-only",
				zap.String("document_id", doc.ID),
				zap.Int("chunk_index", i),
				zap.Error(err))
		} else {
			chunk.Embedding = embedding
		}
		chunks = append(chunks, chunk)
	}

	persisted := 0
	batchSize := s.cfg.PersistBatchSize
	if batchSize <= 0 {
		batchSize = 40
	}
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := s.vectors.StoreChunks(ctx, chunks[start:end]); err != nil {
			s.logger.Error("chunk batch persist failed",
				zap.String("document_id", doc.ID),
				zap.Int("batch_start", start),
				zap.Error(err))
			continue
		}
		persisted += end - start
	}

	if persisted == 0 {
		return nil, s.fail(ctx, doc, models.CodeProcessingFailed, "no chunks could be persisted", nil)
	}

	update := repositories.StatusUpdate{ChunkCount: &persisted}
	if err := s.documents.UpdateStatus(ctx, doc.ID, models.DocumentStatusProcessed, update); err != nil {
		return nil, err
	}

	s.logger.Info("document processed",
		zap.String("document_id", doc.ID),
		zap.String("source_type", string(doc.SourceType)),
		zap.Int("chunks", persisted),
		zap.Int("embed_failures", embedFailures))

	return &IngestResult{DocumentID: doc.ID, ChunksProcessed: persisted}, nil
}

func (s *IngestionService) chunkMetadata(doc *models.Document, extra map[string]interface{}) map[string]interface{} {
	meta := map[string]interface{}{
		"source_type": string(doc.SourceType),
		"origin":      doc.Origin,
	}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}

// fail records the terminal failed status with its code, then returns
// the coded error for the caller.
func (s *IngestionService) fail(ctx context.Context, doc *models.Document, code models.ErrorCode, message string, cause error) error {
	if err := s.documents.UpdateStatus(ctx, doc.ID, models.DocumentStatusFailed, repositories.StatusUpdate{ErrorCode: code}); err != nil {
		s.logger.Error("failed to record document failure",
			zap.String("document_id", doc.ID),
			zap.Error(err))
	}
	s.logger.Warn("document ingestion failed",
		zap.String("document_id", doc.ID),
		zap.String("code", string(code)),
		zap.String("reason", message),
		zap.Error(cause))
	return models.NewAppError(code, message, cause)
}

// validateScrapeURL checks scheme and host against the allow-list. A
// host matches when it equals an allowed domain or is a subdomain of
// one. Validation never touches the network.
func (s *IngestionService) validateScrapeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", models.NewAppError(models.CodeInvalidURL, "invalid URL: "+rawURL, nil)
	}

	host := strings.ToLower(u.Hostname())
	for _, domain := range s.cfg.AllowedDomains {
		d := strings.ToLower(domain)
		if host == d || strings.HasSuffix(host, "."+d) {
			return host, nil
		}
	}
	return "", models.NewAppError(models.CodeDomainNotAllowed,
		"domain not in the approved government sources list: "+host, nil)
}
