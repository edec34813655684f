package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"legal-rag/internal/models"
	"legal-rag/internal/repositories"
	"legal-rag/internal/services"
)

// DocumentHandler handles HTTP requests for document ingestion and the
// document registry.
type DocumentHandler struct {
	ingestion *services.IngestionService
	documents repositories.DocumentRepository
	vectors   repositories.VectorRepository
	logger    *zap.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(ingestion *services.IngestionService, documents repositories.DocumentRepository, vectors repositories.VectorRepository, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingestion: ingestion,
		documents: documents,
		vectors:   vectors,
		logger:    logger,
	}
}

// ProcessResponse is the outcome of one ingestion run.
type ProcessResponse struct {
	Success         bool   `json:"success"`
	ChunksProcessed int    `json:"chunksProcessed"`
	DocumentID      string `json:"documentId"`
}

// UploadDocument handles document upload requests
// @Summary Upload a document
// @Description Store an uploaded file and register it for processing
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Success 200 {object} models.DocumentDTO
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/documents/upload [post]
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	// Max 50MB per upload.
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		sendError(w, http.StatusBadRequest, models.CodeProcessingError, "failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendError(w, http.StatusBadRequest, models.CodeProcessingError, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		sendError(w, http.StatusBadRequest, models.CodeProcessingError, "failed to read file")
		return
	}

	mediaType := header.Header.Get("Content-Type")
	doc, err := h.ingestion.RegisterUpload(r.Context(), ownerID(r), header.Filename, mediaType, data)
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	sendJSON(w, http.StatusOK, doc.ToDTO())
}

// ProcessDocument handles ingestion trigger requests
// @Summary Process a document
// @Description Run extraction, chunking and embedding for a pending document
// @Tags documents
// @Produce json
// @Param documentId path string true "Document ID"
// @Success 200 {object} ProcessResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /api/v1/documents/{documentId}/process [post]
func (h *DocumentHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]
	if documentID == "" {
		sendError(w, http.StatusBadRequest, models.CodeProcessingError, "document ID is required")
		return
	}

	result, err := h.ingestion.ProcessDocument(r.Context(), ownerID(r), documentID)
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	sendJSON(w, http.StatusOK, ProcessResponse{
		Success:         true,
		ChunksProcessed: result.ChunksProcessed,
		DocumentID:      result.DocumentID,
	})
}

// DocumentListResponse is a list of the caller's documents.
type DocumentListResponse struct {
	Documents []models.DocumentDTO `json:"documents"`
	Count     int                  `json:"count"`
}

// ListDocuments handles requests to list the caller's documents
// @Summary List documents
// @Description List all documents owned by the caller
// @Tags documents
// @Produce json
// @Success 200 {object} DocumentListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/documents [get]
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.List(r.Context(), ownerID(r))
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	dtos := make([]models.DocumentDTO, 0, len(docs))
	for _, doc := range docs {
		dtos = append(dtos, doc.ToDTO())
	}
	sendJSON(w, http.StatusOK, DocumentListResponse{Documents: dtos, Count: len(dtos)})
}

// GetDocument handles requests for a single document
// @Summary Get document
// @Description Get one of the caller's documents by ID
// @Tags documents
// @Produce json
// @Param documentId path string true "Document ID"
// @Success 200 {object} models.DocumentDTO
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/documents/{documentId} [get]
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	doc, err := h.documents.Get(r.Context(), ownerID(r), documentID)
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, doc.ToDTO())
}

// DeleteResponse reports a cascade delete.
type DeleteResponse struct {
	Success       bool   `json:"success"`
	DocumentID    string `json:"documentId"`
	ChunksDeleted int    `json:"chunksDeleted"`
}

// DeleteDocument handles requests to delete a document and its chunks
// @Summary Delete document
// @Description Delete a document and all its stored chunks
// @Tags documents
// @Produce json
// @Param documentId path string true "Document ID"
// @Success 200 {object} DeleteResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/documents/{documentId} [delete]
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]
	owner := ownerID(r)

	if _, err := h.documents.Get(r.Context(), owner, documentID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	deleted, err := h.vectors.DeleteDocumentChunks(r.Context(), owner, documentID)
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}
	if err := h.documents.Delete(r.Context(), owner, documentID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	sendJSON(w, http.StatusOK, DeleteResponse{
		Success:       true,
		DocumentID:    documentID,
		ChunksDeleted: deleted,
	})
}

// ScrapeRequest asks for one official page to be ingested.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeResponse reports a completed scrape ingestion.
type ScrapeResponse struct {
	Success bool       `json:"success"`
	Data    ScrapeData `json:"data"`
}

// ScrapeData is the payload of a scrape response.
type ScrapeData struct {
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
	SourceURL     string `json:"source_url"`
}

// ScrapeDocument handles web-scrape ingestion requests
// @Summary Scrape an official page
// @Description Validate the URL against the government domain allow-list, scrape it and ingest its content
// @Tags documents
// @Accept json
// @Produce json
// @Param request body ScrapeRequest true "Page to scrape"
// @Success 200 {object} ScrapeResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/documents/scrape [post]
func (h *DocumentHandler) ScrapeDocument(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, models.CodeProcessingError, "invalid request body")
		return
	}

	result, err := h.ingestion.ScrapeAndIngest(r.Context(), ownerID(r), req.URL)
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	sendJSON(w, http.StatusOK, ScrapeResponse{
		Success: true,
		Data: ScrapeData{
			DocumentID:    result.DocumentID,
			ChunksCreated: result.ChunksProcessed,
			SourceURL:     req.URL,
		},
	})
}

// LegalSearchRequest asks for legal-database candidates to be ingested.
type LegalSearchRequest struct {
	Query string `json:"query"`
}

// LegalSearchResponse reports the ingested candidates.
type LegalSearchResponse struct {
	Success  bool                     `json:"success"`
	Ingested []*services.IngestResult `json:"ingested"`
	Count    int                      `json:"count"`
}

// LegalSearchIngest handles legal-database ingestion requests
// @Summary Ingest legal-database candidates
// @Description Search the legal database and ingest the top candidates as documents
// @Tags documents
// @Accept json
// @Produce json
// @Param request body LegalSearchRequest true "Search query"
// @Success 200 {object} LegalSearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/documents/legal-search [post]
func (h *DocumentHandler) LegalSearchIngest(w http.ResponseWriter, r *http.Request) {
	var req LegalSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, models.CodeProcessingError, "invalid request body")
		return
	}

	results, err := h.ingestion.LegalSearchIngest(r.Context(), ownerID(r), req.Query)
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	sendJSON(w, http.StatusOK, LegalSearchResponse{
		Success:  true,
		Ingested: results,
		Count:    len(results),
	})
}
