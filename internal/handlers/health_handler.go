package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"legal-rag/internal/repositories"
)

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	documents repositories.DocumentRepository
	vectors   repositories.VectorRepository
	logger    *zap.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(documents repositories.DocumentRepository, vectors repositories.VectorRepository, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{documents: documents, vectors: vectors, logger: logger}
}

// HealthResponse reports overall and per-dependency health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health handles health check requests
// @Summary Health check
// @Description Report service health including registry and vector store connectivity
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	deps := map[string]string{"registry": "ok", "vector_store": "ok"}
	status := http.StatusOK

	if err := h.documents.Ping(r.Context()); err != nil {
		h.logger.Warn("registry ping failed", zap.Error(err))
		deps["registry"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if err := h.vectors.Ping(r.Context()); err != nil {
		h.logger.Warn("vector store ping failed", zap.Error(err))
		deps["vector_store"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	sendJSON(w, status, HealthResponse{
		Status:       overall,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Dependencies: deps,
	})
}
