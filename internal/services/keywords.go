package services

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"

	"legal-rag/internal/models"
)

// KeywordExtractor derives retrieval keywords from a query using POS
// tagging. It backs the text-search fallback when a classification
// carries no keywords of its own.
type KeywordExtractor struct {
	stopWords map[string]bool
	minLength int
}

// NewKeywordExtractor creates a new keyword extractor
func NewKeywordExtractor() *KeywordExtractor {
	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
		"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
		"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
		"be": true, "been": true, "have": true, "has": true, "had": true, "do": true,
		"does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
		"this": true, "that": true, "these": true, "those": true, "i": true, "you": true,
		"he": true, "she": true, "it": true, "we": true, "they": true, "my": true,
		"your": true, "his": true, "her": true, "its": true, "our": true, "their": true,
		"what": true, "which": true, "who": true, "when": true, "where": true, "how": true,
	}

	return &KeywordExtractor{
		stopWords: stopWords,
		minLength: 3,
	}
}

// SearchKeywords returns the keywords used by text-search retrieval:
// the classification's extracted keywords when present, otherwise
// keywords derived from the raw query.
func (ke *KeywordExtractor) SearchKeywords(classification *models.QueryClassification, query string) []string {
	if classification != nil && len(classification.Keywords) > 0 {
		return classification.Keywords
	}
	return ke.Extract(query, 8)
}

// Extract returns up to limit keywords from text, ranked by a POS-tag
// weighted frequency score. If POS tagging fails the raw tokens longer
// than two characters are used instead.
func (ke *KeywordExtractor) Extract(text string, limit int) []string {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return ke.tokenize(text, limit)
	}

	type scored struct {
		word  string
		score float64
	}
	wordScores := make(map[string]float64)

	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if ke.shouldSkipWord(word, tok.Tag) {
			continue
		}
		wordScores[word] += ke.tagScore(tok.Tag)
	}

	// Named entities get a boost; Act names and section references
	// usually surface here.
	for _, ent := range doc.Entities() {
		word := strings.ToLower(ent.Text)
		if len(word) >= ke.minLength && !ke.stopWords[word] {
			wordScores[word] += 2.0
		}
	}

	if len(wordScores) == 0 {
		return ke.tokenize(text, limit)
	}

	ranked := make([]scored, 0, len(wordScores))
	for word, score := range wordScores {
		ranked = append(ranked, scored{word, score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].word < ranked[j].word
	})

	keywords := make([]string, 0, limit)
	for _, r := range ranked {
		if len(keywords) == limit {
			break
		}
		keywords = append(keywords, r.word)
	}
	return keywords
}

// tokenize is the plain fallback: lowercase tokens longer than two
// characters, stop words removed, input order preserved.
func (ke *KeywordExtractor) tokenize(text string, limit int) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, field := range strings.Fields(text) {
		word := strings.ToLower(strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if len(word) <= 2 || ke.stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == limit {
			break
		}
	}
	return keywords
}

// shouldSkipWord determines if a word should be filtered out
func (ke *KeywordExtractor) shouldSkipWord(word, posTag string) bool {
	if len(word) < ke.minLength {
		return true
	}
	if ke.stopWords[word] {
		return true
	}
	if isPureNumber(word) || isPunctuation(word) {
		return true
	}

	// Skip determiners, prepositions, conjunctions and pronouns
	skipTags := map[string]bool{
		"DT":   true,
		"IN":   true,
		"TO":   true,
		"CC":   true,
		"PRP":  true,
		"PRP$": true,
		"WP":   true,
		"WDT":  true,
	}
	return skipTags[posTag]
}

// tagScore assigns importance based on POS tag; nouns and proper nouns
// matter most for legal retrieval.
func (ke *KeywordExtractor) tagScore(posTag string) float64 {
	scores := map[string]float64{
		"NN":   1.5,
		"NNS":  1.5,
		"NNP":  2.0,
		"NNPS": 2.0,
		"VB":   1.2,
		"VBD":  1.2,
		"VBG":  1.2,
		"VBN":  1.2,
		"JJ":   1.1,
	}
	if score, ok := scores[posTag]; ok {
		return score
	}
	return 1.0
}

func isPureNumber(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return len(word) > 0
}

func isPunctuation(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return len(word) > 0
}
