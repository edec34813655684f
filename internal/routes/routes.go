package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"legal-rag/internal/handlers"
)

// Handlers groups the handler instances wired by the server.
type Handlers struct {
	Health   *handlers.HealthHandler
	Document *handlers.DocumentHandler
	Search   *handlers.SearchHandler
	Chat     *handlers.ChatHandler
}

// RegisterRoutes sets up all application routes. Everything under
// /api/v1 requires a caller identity; health does not.
func RegisterRoutes(router *mux.Router, h *Handlers) {
	router.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(handlers.OwnerMiddleware)

	api.HandleFunc("/documents/upload", h.Document.UploadDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/scrape", h.Document.ScrapeDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/legal-search", h.Document.LegalSearchIngest).Methods(http.MethodPost)
	api.HandleFunc("/documents/{documentId}/process", h.Document.ProcessDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{documentId}", h.Document.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{documentId}", h.Document.DeleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/documents", h.Document.ListDocuments).Methods(http.MethodGet)

	api.HandleFunc("/search", h.Search.Search).Methods(http.MethodPost)
	api.HandleFunc("/chat", h.Chat.Chat).Methods(http.MethodPost)
}
