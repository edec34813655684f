package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"legal-rag/internal/models"
	"legal-rag/internal/services"
)

// ChatHandler handles grounded answer requests.
type ChatHandler struct {
	generation *services.GenerationService
	logger     *zap.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(generation *services.GenerationService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{generation: generation, logger: logger}
}

// Chat handles grounded answer requests
// @Summary Answer a query from retrieved context
// @Description Retrieve grounding context for the query and generate an answer strictly from it
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.GenerateRequest true "Query with classification and optional history"
// @Success 200 {object} models.GenerateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, models.CodeProcessingError, "invalid request body")
		return
	}

	resp, err := h.generation.Generate(r.Context(), ownerID(r), &req)
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}
