package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DocumentExtractor implements TextExtractor for the media types the
// pipeline ingests. PDF extraction reads the text streams only; it does
// not OCR image-based pages, so scanned documents come back short and
// fail the minimum-length check downstream.
type DocumentExtractor struct{}

// NewDocumentExtractor creates the default text extractor.
func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

// Extract returns the plain text of the source bytes.
func (e *DocumentExtractor) Extract(ctx context.Context, data []byte, mediaType string) (string, error) {
	switch {
	case mediaType == "application/pdf":
		return e.extractPDF(ctx, data)
	case strings.HasPrefix(mediaType, "text/"), mediaType == "", mediaType == "application/octet-stream":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported media type: %s", mediaType)
	}
}

func (e *DocumentExtractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var sb strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page is not fatal; remaining pages may
			// still yield enough text.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	return sb.String(), nil
}
