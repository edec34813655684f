package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"legal-rag/internal/config"
	"legal-rag/internal/models"
)

// RefusalMessage is the fixed sentence returned when no grounding
// context exists. Callers compare against it verbatim; changing the
// wording is a breaking change.
const RefusalMessage = "I don't have enough information in the provided documents or official sources to answer this question. Please upload a relevant document or rephrase your query."

const systemPersona = `You are a legal and financial assistant for Indian law. Answer ONLY from the context provided below. When you use a passage, cite the Act and Section numbers it mentions and name its source file or URL. If the context does not contain the answer, reply exactly with: "` + RefusalMessage + `" Never answer from general knowledge.`

// GenerationService produces grounded answers: it validates the
// request, retrieves context, assembles the constrained prompt and
// calls the model. When retrieval yields nothing the refusal sentence
// is returned directly without a model call, which makes the refusal
// contract deterministic.
type GenerationService struct {
	retriever *RetrievalService
	completer Completer
	cfg       config.GenerationConfig
	logger    *zap.Logger
}

// NewGenerationService creates the grounded answer generator.
func NewGenerationService(retriever *RetrievalService, completer Completer, cfg config.GenerationConfig, logger *zap.Logger) *GenerationService {
	return &GenerationService{
		retriever: retriever,
		completer: completer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Generate answers the query from retrieved context only.
func (s *GenerationService) Generate(ctx context.Context, ownerID string, req *models.GenerateRequest) (*models.GenerateResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	retrieved, err := s.retriever.Retrieve(ctx, ownerID, req.Query, req.Classification, nil)
	if err != nil {
		return nil, models.NewAppError(models.CodeProcessingError, "retrieval failed", err)
	}

	resp := &models.GenerateResponse{
		Classification: req.Classification,
		Query:          req.Query,
		Sources:        s.buildSources(retrieved),
	}

	if retrieved.Empty() {
		resp.Response = RefusalMessage
		resp.SourceType = models.AnswerSourceGeneral
		resp.Sources = []models.AnswerSource{}
		return resp, nil
	}

	switch retrieved.Mode {
	case models.RetrievalModeWeb:
		resp.SourceType = models.AnswerSourceWeb
	default:
		resp.SourceType = models.AnswerSourceDocument
	}
	resp.SourcesUsed = len(resp.Sources)

	messages := s.buildMessages(req, retrieved)
	answer, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	resp.Response = answer
	s.logger.Info("answer generated",
		zap.String("source_type", resp.SourceType),
		zap.Int("sources_used", resp.SourcesUsed))
	return resp, nil
}

// validate enforces the caller contract. Violations are non-retryable.
func (s *GenerationService) validate(req *models.GenerateRequest) error {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return models.NewAppError(models.CodeQueryMissing, "query is required", nil)
	}
	// Bounds count characters, not bytes: Devanagari queries are three
	// bytes per character.
	length := utf8.RuneCountInString(query)
	if length < s.cfg.MinQueryLength {
		return models.NewAppError(models.CodeQueryTooShort,
			fmt.Sprintf("query must be at least %d characters", s.cfg.MinQueryLength), nil)
	}
	if length > s.cfg.MaxQueryLength {
		return models.NewAppError(models.CodeQueryTooLong,
			fmt.Sprintf("query must be at most %d characters", s.cfg.MaxQueryLength), nil)
	}
	if req.Classification == nil {
		return models.NewAppError(models.CodeClassificationMissing, "classification is required", nil)
	}
	return nil
}

// buildMessages assembles the constrained prompt: persona, the
// classification summary, the labeled context block, the trailing
// conversation history and finally the current query.
func (s *GenerationService) buildMessages(req *models.GenerateRequest, retrieved *models.RetrievalResult) []models.ChatMessage {
	var b strings.Builder
	b.WriteString(systemPersona)
	b.WriteString("\n\nQuery classification: domain=")
	b.WriteString(string(req.Classification.Domain))
	b.WriteString(", type=")
	b.WriteString(string(req.Classification.QueryType))
	b.WriteString(", confidence=")
	b.WriteString(string(req.Classification.Confidence))
	b.WriteString("\n\nContext:\n")

	for i, chunk := range retrieved.Chunks {
		label := chunk.DocumentFilename
		if label == "" {
			label = chunk.DocumentID
		}
		fmt.Fprintf(&b, "[%d] Source: %s (similarity %.2f)\n%s\n\n", i+1, label, chunk.Similarity, chunk.Content)
	}
	for i, snippet := range retrieved.Snippets {
		fmt.Fprintf(&b, "[%d] Source: %s (%s)\n%s\n\n", len(retrieved.Chunks)+i+1, snippet.Title, snippet.URL, snippet.Content)
	}

	messages := []models.ChatMessage{{Role: "system", Content: b.String()}}

	history := req.ConversationHistory
	if max := s.cfg.MaxHistoryTurns; max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}
	messages = append(messages, history...)

	return append(messages, models.ChatMessage{Role: "user", Content: req.Query})
}

// buildSources lists the grounding sources: filenames with similarity
// for document context, URLs with hostnames for web context.
func (s *GenerationService) buildSources(retrieved *models.RetrievalResult) []models.AnswerSource {
	sources := make([]models.AnswerSource, 0, len(retrieved.Chunks)+len(retrieved.Snippets))
	seen := make(map[string]bool)

	for _, chunk := range retrieved.Chunks {
		key := chunk.DocumentFilename
		if key == "" {
			key = chunk.DocumentID
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		sources = append(sources, models.AnswerSource{
			Filename:   key,
			Similarity: chunk.Similarity,
		})
	}
	for _, snippet := range retrieved.Snippets {
		if seen[snippet.URL] {
			continue
		}
		seen[snippet.URL] = true
		hostname := ""
		if u, err := url.Parse(snippet.URL); err == nil {
			hostname = u.Hostname()
		}
		sources = append(sources, models.AnswerSource{
			URL:      snippet.URL,
			Hostname: hostname,
		})
	}
	return sources
}
