package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"legal-rag/internal/models"
)

func TestSearchKeywords_PrefersClassificationKeywords(t *testing.T) {
	ke := NewKeywordExtractor()
	classification := &models.QueryClassification{
		Domain:   models.DomainGST,
		Keywords: []string{"input tax credit", "section 16"},
	}

	keywords := ke.SearchKeywords(classification, "What are the conditions for claiming ITC?")
	assert.Equal(t, []string{"input tax credit", "section 16"}, keywords)
}

func TestSearchKeywords_FallsBackToQuery(t *testing.T) {
	ke := NewKeywordExtractor()

	keywords := ke.SearchKeywords(nil, "conditions for claiming input tax credit")
	assert.NotEmpty(t, keywords)
	assert.NotContains(t, keywords, "for")
}

func TestExtract_FiltersStopWordsAndShortTokens(t *testing.T) {
	ke := NewKeywordExtractor()

	keywords := ke.Extract("what is the penalty under the Income Tax Act", 8)
	assert.NotEmpty(t, keywords)
	for _, kw := range keywords {
		assert.Greater(t, len(kw), 2)
		assert.False(t, ke.stopWords[kw], "stop word leaked: %s", kw)
	}
	assert.Contains(t, keywords, "penalty")
}

func TestExtract_RespectsLimit(t *testing.T) {
	ke := NewKeywordExtractor()

	keywords := ke.Extract("registration cancellation appeal revocation assessment penalty interest refund notice demand", 3)
	assert.Len(t, keywords, 3)
}

func TestExtract_Deterministic(t *testing.T) {
	ke := NewKeywordExtractor()
	query := "time limit for filing GSTR-3B return under GST"

	first := ke.Extract(query, 8)
	second := ke.Extract(query, 8)
	assert.Equal(t, first, second)
}

func TestTokenize_OrderPreservedAndDeduplicated(t *testing.T) {
	ke := NewKeywordExtractor()

	keywords := ke.tokenize("penalty penalty interest refund, refund!", 10)
	assert.Equal(t, []string{"penalty", "interest", "refund"}, keywords)
}
