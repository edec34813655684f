package models

// QueryClassification is derived per query by an external classifier and
// drives retrieval keyword selection. It is ephemeral and never persisted
// by the core.
type QueryClassification struct {
	Domain     QueryDomain     `json:"domain"`
	QueryType  QueryType       `json:"query_type"`
	Confidence QueryConfidence `json:"confidence"`
	Keywords   []string        `json:"keywords,omitempty"`
}

// QueryDomain tags the legal/financial area of a query.
type QueryDomain string

const (
	DomainFinance  QueryDomain = "finance"
	DomainGST      QueryDomain = "gst"
	DomainCivil    QueryDomain = "civil"
	DomainCriminal QueryDomain = "criminal"
	DomainOther    QueryDomain = "other"
)

// QueryType tags the intent of a query.
type QueryType string

const (
	QueryTypeInformational QueryType = "informational"
	QueryTypeDecision      QueryType = "decision"
	QueryTypeDocument      QueryType = "document"
)

// QueryConfidence tags the classifier's confidence.
type QueryConfidence string

const (
	ConfidenceHigh   QueryConfidence = "high"
	ConfidenceMedium QueryConfidence = "medium"
	ConfidenceLow    QueryConfidence = "low"
)
