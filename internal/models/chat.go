package models

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// SourceType identifies where the grounding context for an answer came from.
const (
	AnswerSourceDocument = "document"
	AnswerSourceWeb      = "web"
	AnswerSourceGeneral  = "general"
)

// AnswerSource describes one source the generator grounded its answer on.
type AnswerSource struct {
	Filename   string  `json:"filename,omitempty"`
	URL        string  `json:"url,omitempty"`
	Hostname   string  `json:"hostname,omitempty"`
	Similarity float32 `json:"similarity,omitempty"`
}

// GenerateRequest is the wire shape of a grounded answer request.
type GenerateRequest struct {
	Query               string               `json:"query"`
	Classification      *QueryClassification `json:"classification"`
	ConversationHistory []ChatMessage        `json:"conversationHistory,omitempty"`
}

// GenerateResponse is the wire shape of a grounded answer.
type GenerateResponse struct {
	Response       string               `json:"response"`
	Classification *QueryClassification `json:"classification"`
	Query          string               `json:"query"`
	SourceType     string               `json:"sourceType,omitempty"`
	SourcesUsed    int                  `json:"sourcesUsed"`
	Sources        []AnswerSource       `json:"sources"`
}
