package services

import (
	"context"

	"legal-rag/internal/models"
)

// External AI, search and storage calls are modeled as narrow capability
// interfaces so each component can be constructed with fakes in tests and
// every fallback path exercised deterministically.

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer generates a chat completion from a message sequence.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// TextExtractor extracts plain text from raw source bytes. PDF extraction
// is best-effort: image-only or heavily compressed PDFs may yield little
// or no text, which the pipeline treats as an extraction failure.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mediaType string) (string, error)
}

// FileStore fetches previously uploaded source bytes by storage path.
type FileStore interface {
	Save(ctx context.Context, path string, data []byte) error
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// ScrapedPage is the normalized markdown result of scraping one page.
type ScrapedPage struct {
	Title     string
	Markdown  string
	SourceURL string
}

// Scraper fetches a web page as normalized markdown.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*ScrapedPage, error)
}

// WebSearchResult is one hit from an external web search.
type WebSearchResult struct {
	Title    string
	URL      string
	Markdown string
}

// WebSearcher runs a scoped search over external web content.
type WebSearcher interface {
	SearchWeb(ctx context.Context, query string, siteDomains []string, limit int) ([]WebSearchResult, error)
}

// LegalDocument is one candidate returned by the legal-database search.
type LegalDocument struct {
	ResourceID string
	Title      string
	Text       string
	URL        string
}

// LegalSearcher queries an external legal-database API for candidate
// documents. Implementations cap the number of candidates returned.
type LegalSearcher interface {
	SearchLegal(ctx context.Context, query string, limit int) ([]LegalDocument, error)
}
