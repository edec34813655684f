package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"legal-rag/internal/config"
	"legal-rag/internal/models"
	"legal-rag/internal/repositories"
)

// TextMatchConfidence is the fixed similarity assigned to keyword-match
// hits. Text search has no fine-grained ranking signal, so every hit
// carries the same moderate confidence.
const TextMatchConfidence = 0.5

// RetrievalService finds grounding context for a query. Strategies run
// in a fixed order and the first one that yields results wins: semantic
// similarity over owned chunks, then keyword matching over the same
// chunks, then a scoped web search over the approved government domains.
type RetrievalService struct {
	vectors   repositories.VectorRepository
	documents repositories.DocumentRepository
	embedder  Embedder
	keywords  *KeywordExtractor
	web       WebSearcher
	cfg       config.RetrievalConfig
	domains   []string
	logger    *zap.Logger
}

// NewRetrievalService creates the retrieval fallback chain. domains is
// the allow-list used to scope the web fallback.
func NewRetrievalService(
	vectors repositories.VectorRepository,
	documents repositories.DocumentRepository,
	embedder Embedder,
	web WebSearcher,
	cfg config.RetrievalConfig,
	domains []string,
	logger *zap.Logger,
) *RetrievalService {
	return &RetrievalService{
		vectors:   vectors,
		documents: documents,
		embedder:  embedder,
		keywords:  NewKeywordExtractor(),
		web:       web,
		cfg:       cfg,
		domains:   domains,
		logger:    logger,
	}
}

// RetrieveOptions overrides the configured vector-search tunables for
// one call. Zero values leave the defaults in place.
type RetrieveOptions struct {
	MatchThreshold float32
	MatchCount     int
}

// Retrieve runs the fallback chain for ownerID's query. It never
// returns an error for an empty result; an empty RetrievalResult is a
// legitimate outcome the generator turns into a refusal.
func (s *RetrievalService) Retrieve(ctx context.Context, ownerID, query string, classification *models.QueryClassification, opts *RetrieveOptions) (*models.RetrievalResult, error) {
	threshold := s.cfg.MatchThreshold
	count := s.cfg.MatchCount
	if opts != nil {
		if opts.MatchThreshold > 0 {
			threshold = opts.MatchThreshold
		}
		if opts.MatchCount > 0 {
			count = opts.MatchCount
		}
	}

	if result := s.vectorSearch(ctx, ownerID, query, threshold, count); !result.Empty() {
		return result, nil
	}
	if result := s.textSearch(ctx, ownerID, query, classification); !result.Empty() {
		return result, nil
	}
	return s.webSearch(ctx, query), nil
}

// vectorSearch embeds the query and ranks owned chunks by cosine
// similarity. Hits at or below the threshold are discarded; ties are
// broken by chunk ID so identical inputs always rank identically.
func (s *RetrievalService) vectorSearch(ctx context.Context, ownerID, query string, threshold float32, count int) *models.RetrievalResult {
	result := &models.RetrievalResult{Mode: models.RetrievalModeVector}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, falling back to text search", zap.Error(err))
		return result
	}

	hits, err := s.vectors.SimilaritySearch(ctx, ownerID, embedding, count)
	if err != nil {
		s.logger.Warn("similarity search failed, falling back to text search", zap.Error(err))
		return result
	}

	filtered := make([]*repositories.VectorHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Score > threshold {
			filtered = append(filtered, hit)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		return filtered[i].ChunkID < filtered[j].ChunkID
	})
	if len(filtered) > count {
		filtered = filtered[:count]
	}

	result.Chunks = s.toRetrievedChunks(ctx, ownerID, filtered, 0)
	return result
}

// textSearch matches keywords against owned chunk text. Any single
// keyword matching qualifies a chunk.
func (s *RetrievalService) textSearch(ctx context.Context, ownerID, query string, classification *models.QueryClassification) *models.RetrievalResult {
	result := &models.RetrievalResult{Mode: models.RetrievalModeText}

	keywords := s.keywords.SearchKeywords(classification, query)
	if len(keywords) == 0 {
		return result
	}

	hits, err := s.vectors.TextSearch(ctx, ownerID, keywords, s.cfg.TextMatchCount)
	if err != nil {
		s.logger.Warn("text search failed, falling back to web search", zap.Error(err))
		return result
	}
	if len(hits) > s.cfg.TextMatchCount {
		hits = hits[:s.cfg.TextMatchCount]
	}

	result.Chunks = s.toRetrievedChunks(ctx, ownerID, hits, TextMatchConfidence)
	return result
}

// webSearch is the last resort: a search scoped to the approved
// government domains. Snippets are truncated to bound prompt size.
func (s *RetrievalService) webSearch(ctx context.Context, query string) *models.RetrievalResult {
	result := &models.RetrievalResult{Mode: models.RetrievalModeWeb}

	hits, err := s.web.SearchWeb(ctx, query, s.domains, s.cfg.WebResultCount)
	if err != nil {
		s.logger.Warn("web search failed, no context available", zap.Error(err))
		return result
	}

	for _, hit := range hits {
		content := hit.Markdown
		if len(content) > s.cfg.SnippetMaxChars {
			content = content[:s.cfg.SnippetMaxChars]
		}
		result.Snippets = append(result.Snippets, models.WebSnippet{
			Title:   hit.Title,
			URL:     hit.URL,
			Content: content,
		})
	}
	return result
}

// toRetrievedChunks converts storage hits into retrieval results,
// attaching the human-readable document origin for citation. Origins
// are looked up once per document; a failed lookup leaves the filename
// empty rather than dropping the hit.
func (s *RetrievalService) toRetrievedChunks(ctx context.Context, ownerID string, hits []*repositories.VectorHit, fixedScore float32) []models.RetrievedChunk {
	if len(hits) == 0 {
		return nil
	}

	origins := make(map[string]string)
	chunks := make([]models.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		origin, ok := origins[hit.DocumentID]
		if !ok {
			if doc, err := s.documents.Get(ctx, ownerID, hit.DocumentID); err == nil {
				origin = doc.Origin
			}
			origins[hit.DocumentID] = origin
		}

		score := hit.Score
		if fixedScore > 0 {
			score = fixedScore
		}
		chunks = append(chunks, models.RetrievedChunk{
			ID:               hit.ChunkID,
			DocumentID:       hit.DocumentID,
			Content:          hit.Text,
			Metadata:         hit.Metadata,
			Similarity:       score,
			DocumentFilename: origin,
		})
	}
	return chunks
}
