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
	"legal-rag/internal/models"
)

// LLMClient talks to an OpenAI-compatible API for chat completions and
// embeddings. It implements Embedder and Completer. Rate-limit and quota
// responses are surfaced as distinct retryable codes; the client never
// retries on its own.
type LLMClient struct {
	baseURL        string
	apiKey         string
	chatModel      string
	embeddingModel string
	httpClient     *http.Client
}

// NewLLMClient creates a new LLM client from provider configuration.
func NewLLMClient(cfg config.ProvidersConfig) *LLMClient {
	return &LLMClient{
		baseURL:        strings.TrimRight(cfg.LLMBaseURL, "/"),
		apiKey:         cfg.LLMAPIKey,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		httpClient: &http.Client{
			Timeout: cfg.LLMTimeout,
		},
	}
}

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete sends the message sequence and returns the model's text.
func (c *LLMClient) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: 0.2,
	}

	var resp chatCompletionResponse
	if err := c.post(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", models.NewAppError(models.CodeResponseError, "model returned no choices", nil)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", models.NewAppError(models.CodeResponseError, "model returned empty content", nil)
	}

	return content, nil
}

// Embed converts text into a fixed-length vector.
func (c *LLMClient) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model: c.embeddingModel,
		Input: []string{text},
	}

	var resp embeddingResponse
	if err := c.post(ctx, "/embeddings", reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, models.NewAppError(models.CodeResponseError, "embedding response missing data", nil)
	}

	return resp.Data[0].Embedding, nil
}

func (c *LLMClient) post(ctx context.Context, path string, payload, out interface{}) error {
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
		// Timeouts are treated like any other provider error: retryable.
		return models.NewRetryableError(models.CodeProcessingError, "model provider unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return models.NewAppError(models.CodeResponseError, "failed to parse model response", err)
	}

	return nil
}

// statusError maps provider status codes onto the error taxonomy.
func (c *LLMClient) statusError(status int, body []byte) error {
	var apiErr apiErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case status == http.StatusTooManyRequests && apiErr.Error.Code == "insufficient_quota",
		apiErr.Error.Type == "insufficient_quota":
		return models.NewRetryableError(models.CodeQuotaExceeded, "model provider quota exhausted", fmt.Errorf("status %d: %s", status, apiErr.Error.Message))
	case status == http.StatusTooManyRequests:
		return models.NewRetryableError(models.CodeRateLimit, "model provider rate limit hit", fmt.Errorf("status %d: %s", status, apiErr.Error.Message))
	case status >= 500:
		return models.NewRetryableError(models.CodeProcessingError, "model provider error", fmt.Errorf("status %d: %s", status, string(body)))
	default:
		return models.NewAppError(models.CodeResponseError, "model request rejected", fmt.Errorf("status %d: %s", status, string(body)))
	}
}
