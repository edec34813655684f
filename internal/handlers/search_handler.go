package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"legal-rag/internal/models"
	"legal-rag/internal/services"
)

// SearchHandler handles retrieval queries over the caller's chunks.
type SearchHandler struct {
	retrieval *services.RetrievalService
	logger    *zap.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(retrieval *services.RetrievalService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{retrieval: retrieval, logger: logger}
}

// SearchRequest is a retrieval query with optional tunable overrides.
type SearchRequest struct {
	Query          string  `json:"query"`
	MatchThreshold float32 `json:"matchThreshold,omitempty"`
	MatchCount     int     `json:"matchCount,omitempty"`
}

// SearchResponse is the ranked retrieval result.
type SearchResponse struct {
	Chunks     []models.RetrievedChunk `json:"chunks"`
	Snippets   []models.WebSnippet     `json:"snippets,omitempty"`
	Mode       string                  `json:"mode"`
	Query      string                  `json:"query"`
	TotalFound int                     `json:"totalFound"`
}

// Search handles retrieval requests
// @Summary Search chunks
// @Description Retrieve the caller's chunks relevant to a query, with fallback to keyword and web search
// @Tags search
// @Accept json
// @Produce json
// @Param request body SearchRequest true "Query"
// @Success 200 {object} SearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/search [post]
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, models.CodeProcessingError, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		sendError(w, http.StatusBadRequest, models.CodeQueryMissing, "query is required")
		return
	}

	result, err := h.retrieval.Retrieve(r.Context(), ownerID(r), req.Query, nil, &services.RetrieveOptions{
		MatchThreshold: req.MatchThreshold,
		MatchCount:     req.MatchCount,
	})
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	chunks := result.Chunks
	if chunks == nil {
		chunks = []models.RetrievedChunk{}
	}
	sendJSON(w, http.StatusOK, SearchResponse{
		Chunks:     chunks,
		Snippets:   result.Snippets,
		Mode:       string(result.Mode),
		Query:      req.Query,
		TotalFound: len(result.Chunks) + len(result.Snippets),
	})
}
