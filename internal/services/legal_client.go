package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"legal-rag/internal/config"
)

// LegalSearchClient queries an Indian Kanoon style legal-database API
// for candidate documents. It implements LegalSearcher.
type LegalSearchClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewLegalSearchClient creates a new legal-database search client.
func NewLegalSearchClient(cfg config.ProvidersConfig) *LegalSearchClient {
	return &LegalSearchClient{
		baseURL: strings.TrimRight(cfg.LegalSearchBaseURL, "/"),
		apiKey:  cfg.LegalSearchAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.LegalSearchTimeout,
		},
	}
}

type legalSearchResponse struct {
	Docs []struct {
		TID      json.Number `json:"tid"`
		Title    string      `json:"title"`
		Headline string      `json:"headline"`
		DocText  string      `json:"doc"`
	} `json:"docs"`
}

// SearchLegal returns up to limit candidate documents for the query.
func (c *LegalSearchClient) SearchLegal(ctx context.Context, query string, limit int) ([]LegalDocument, error) {
	endpoint := fmt.Sprintf("%s/search/?formInput=%s&pagenum=0&maxcites=%d",
		c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Token "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("legal search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("legal search returned status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp legalSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse legal search response: %w", err)
	}

	docs := make([]LegalDocument, 0, limit)
	for _, d := range searchResp.Docs {
		if len(docs) == limit {
			break
		}

		text := d.DocText
		if text == "" {
			text = d.Headline
		}

		docs = append(docs, LegalDocument{
			ResourceID: d.TID.String(),
			Title:      d.Title,
			Text:       text,
			URL:        fmt.Sprintf("%s/doc/%s/", c.baseURL, d.TID.String()),
		})
	}

	return docs, nil
}
