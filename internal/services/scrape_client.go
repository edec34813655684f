package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"legal-rag/internal/config"
)

// ScrapeClient talks to a Firecrawl-style scrape provider. It implements
// Scraper (single-page markdown fetch) and WebSearcher (scoped web
// search returning markdown snippets).
type ScrapeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewScrapeClient creates a new scrape provider client.
func NewScrapeClient(cfg config.ProvidersConfig) *ScrapeClient {
	return &ScrapeClient{
		baseURL: strings.TrimRight(cfg.ScrapeBaseURL, "/"),
		apiKey:  cfg.ScrapeAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.ScrapeTimeout,
		},
	}
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title     string `json:"title"`
			SourceURL string `json:"sourceURL"`
		} `json:"metadata"`
	} `json:"data"`
}

type webSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
	// ScrapeOptions asks the provider to return page markdown inline.
	ScrapeOptions struct {
		Formats []string `json:"formats"`
	} `json:"scrapeOptions"`
}

type webSearchResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Title    string `json:"title"`
		URL      string `json:"url"`
		Markdown string `json:"markdown"`
	} `json:"data"`
}

// Scrape fetches one page as normalized markdown.
func (c *ScrapeClient) Scrape(ctx context.Context, url string) (*ScrapedPage, error) {
	reqBody := scrapeRequest{
		URL:     url,
		Formats: []string{"markdown"},
	}

	var resp scrapeResponse
	if err := c.post(ctx, "/scrape", reqBody, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data.Markdown == "" {
		return nil, fmt.Errorf("scrape returned no content for %s", url)
	}

	sourceURL := resp.Data.Metadata.SourceURL
	if sourceURL == "" {
		sourceURL = url
	}

	return &ScrapedPage{
		Title:     resp.Data.Metadata.Title,
		Markdown:  resp.Data.Markdown,
		SourceURL: sourceURL,
	}, nil
}

// SearchWeb runs a search restricted to the given domains and returns
// markdown snippets.
func (c *ScrapeClient) SearchWeb(ctx context.Context, query string, siteDomains []string, limit int) ([]WebSearchResult, error) {
	// Scope the query to the allowed official domains.
	scoped := query
	if len(siteDomains) > 0 {
		sites := make([]string, len(siteDomains))
		for i, d := range siteDomains {
			sites[i] = "site:" + d
		}
		scoped = query + " (" + strings.Join(sites, " OR ") + ")"
	}

	reqBody := webSearchRequest{
		Query: scoped,
		Limit: limit,
	}
	reqBody.ScrapeOptions.Formats = []string{"markdown"}

	var resp webSearchResponse
	if err := c.post(ctx, "/search", reqBody, &resp); err != nil {
		return nil, err
	}

	results := make([]WebSearchResult, 0, len(resp.Data))
	for _, item := range resp.Data {
		if item.Markdown == "" {
			continue
		}
		results = append(results, WebSearchResult{
			Title:    item.Title,
			URL:      item.URL,
			Markdown: item.Markdown,
		})
	}

	return results, nil
}

func (c *ScrapeClient) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scrape provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("scrape provider returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse scrape provider response: %w", err)
	}

	return nil
}
