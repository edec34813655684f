package models

import (
	"time"
)

// Document represents one ingested source: an uploaded PDF, a scraped
// official web page, or a record fetched from the legal-search API.
type Document struct {
	ID         string                 `json:"document_id"`
	OwnerID    string                 `json:"owner_id"`
	SourceType SourceType             `json:"source_type"`
	Origin     string                 `json:"origin"` // filename, URL or external resource id
	FileSize   int64                  `json:"file_size,omitempty"`
	MediaType  string                 `json:"media_type,omitempty"`
	Status     DocumentStatus         `json:"status"`
	ChunkCount int                    `json:"chunk_count"`
	ErrorCode  ErrorCode              `json:"error_code,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// SourceType identifies how a document entered the system.
type SourceType string

const (
	SourceTypeUpload      SourceType = "upload"
	SourceTypeWeb         SourceType = "web"
	SourceTypeLegalSearch SourceType = "legal_search"
)

// DocumentStatus tracks the ingestion lifecycle. A document is created
// pending, moves to processing once extraction starts and ends in exactly
// one of the terminal states. No transition skips processing.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// IsTerminal returns true once the document has finished ingestion.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusProcessed || s == DocumentStatusFailed
}

// IsValid checks if document status is valid
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusProcessed, DocumentStatusFailed:
		return true
	default:
		return false
	}
}

func (s DocumentStatus) String() string {
	return string(s)
}

// CanTransitionTo enforces the ingestion state machine.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	switch s {
	case DocumentStatusPending:
		return next == DocumentStatusProcessing
	case DocumentStatusProcessing:
		return next == DocumentStatusProcessed || next == DocumentStatusFailed
	default:
		return false
	}
}

// Validate checks if the document is valid
func (d *Document) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	if d.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Message: "owner ID is required"}
	}
	if d.Origin == "" {
		return &ValidationError{Field: "origin", Message: "origin is required"}
	}
	if !d.Status.IsValid() {
		return &ValidationError{Field: "status", Message: "invalid status: " + string(d.Status)}
	}
	if d.ChunkCount < 0 {
		return &ValidationError{Field: "chunk_count", Message: "chunk count cannot be negative"}
	}
	return nil
}

// DocumentDTO is the API view of a document.
type DocumentDTO struct {
	ID         string                 `json:"document_id"`
	OwnerID    string                 `json:"owner_id"`
	SourceType string                 `json:"source_type"`
	Origin     string                 `json:"origin"`
	FileSize   int64                  `json:"file_size,omitempty"`
	MediaType  string                 `json:"media_type,omitempty"`
	Status     string                 `json:"status"`
	ChunkCount int                    `json:"chunk_count"`
	ErrorCode  string                 `json:"error_code,omitempty"`
	CreatedAt  string                 `json:"created_at"`
	UpdatedAt  string                 `json:"updated_at"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ToDTO converts Document domain model to DTO
func (d *Document) ToDTO() DocumentDTO {
	return DocumentDTO{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		SourceType: string(d.SourceType),
		Origin:     d.Origin,
		FileSize:   d.FileSize,
		MediaType:  d.MediaType,
		Status:     string(d.Status),
		ChunkCount: d.ChunkCount,
		ErrorCode:  string(d.ErrorCode),
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
		Metadata:   d.Metadata,
	}
}
