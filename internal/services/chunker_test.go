package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNewChunker_Defaults(t *testing.T) {
	c := NewChunker(0, -1, 0)
	assert.Equal(t, DefaultChunkSize, c.targetSize)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)
	assert.Equal(t, MinChunkLength, c.minLength)
}

func TestNewChunker_MinLengthConfigurable(t *testing.T) {
	c := NewChunker(1000, 200, 10)
	assert.Equal(t, 10, c.minLength)

	// An 18-char fragment survives a lowered minimum.
	assert.Len(t, c.Chunk("Too short to keep."), 1)
}

func TestNewChunker_OverlapCapped(t *testing.T) {
	c := NewChunker(100, 100, 0)
	assert.Equal(t, 25, c.overlap)

	c = NewChunker(100, 500, 0)
	assert.Equal(t, 25, c.overlap)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "CRLF to LF",
			input:    "line one\r\nline two",
			expected: "line one\nline two",
		},
		{
			name:     "Collapse newline runs",
			input:    "para one\n\n\n\n\npara two",
			expected: "para one\n\npara two",
		},
		{
			name:     "Trim surrounding whitespace",
			input:    "  \n text \n  ",
			expected: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeText(tt.input))
		})
	}
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	c := NewChunker(1000, 200, 0)
	// 120 chars of plausible legal text yields exactly one chunk at ordinal 0.
	text := "Section 16 of the CGST Act states that input tax credit may be claimed by a registered person subject to prescribed conditions."
	chunks := c.Chunk(text)

	assert.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunk_EmptyInput(t *testing.T) {
	c := NewChunker(1000, 200, 0)
	assert.Nil(t, c.Chunk(""))
	assert.Nil(t, c.Chunk("   \n\n   "))
}

func TestChunk_TinyFragmentDropped(t *testing.T) {
	c := NewChunker(1000, 200, 0)
	assert.Empty(t, c.Chunk("Too short to keep."))
}

func TestChunk_Deterministic(t *testing.T) {
	c := NewChunker(1000, 200, 0)
	text := strings.Repeat("The Goods and Services Tax Act governs indirect taxation in India. ", 100)

	first := c.Chunk(text)
	second := c.Chunk(text)
	assert.Equal(t, first, second)
}

func TestChunk_MinimumLengthInvariant(t *testing.T) {
	c := NewChunker(1000, 200, 0)
	text := strings.Repeat("A registered person shall be entitled to take credit of input tax. ", 80)

	for i, chunk := range c.Chunk(text) {
		assert.Greater(t, len(strings.TrimSpace(chunk)), MinChunkLength, "chunk %d below minimum", i)
	}
}

func TestChunk_PrefersParagraphBoundary(t *testing.T) {
	c := NewChunker(100, 20, 0)
	para1 := strings.Repeat("a", 90)
	para2 := strings.Repeat("b", 200)
	text := para1 + "\n\n" + para2

	chunks := c.Chunk(text)
	assert.GreaterOrEqual(t, len(chunks), 2)
	// First cut lands on the paragraph break, not mid-word.
	assert.Equal(t, para1, chunks[0])
}

func TestChunk_FallsBackToSentenceBoundary(t *testing.T) {
	c := NewChunker(100, 20, 0)
	sentence := strings.Repeat("x", 80) + ". "
	text := sentence + strings.Repeat("y", 200)

	chunks := c.Chunk(text)
	assert.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0], "."), "first chunk should end at the sentence terminator")
}

func TestChunk_CoversAllInput(t *testing.T) {
	c := NewChunker(500, 100, 0)
	text := strings.Repeat("Input tax credit conditions are laid down in Section 16 of the CGST Act 2017. ", 60)
	cleaned := NormalizeText(text)

	chunks := c.Chunk(cleaned)
	assert.NotEmpty(t, chunks)

	// With overlap, every chunk start must be locatable at or before the
	// previous chunk's end; together they cover the cleaned input.
	cursor := 0
	for i, chunk := range chunks {
		pos := strings.Index(cleaned[cursor:], chunk)
		assert.GreaterOrEqual(t, pos, 0, "chunk %d not found after cursor", i)
		cursor += pos
	}
	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(cleaned, last) ||
		len(cleaned)-(strings.LastIndex(cleaned, last)+len(last)) <= MinChunkLength,
		"tail of input not covered")
}

func TestChunk_NeverSplitsMultibyteRunes(t *testing.T) {
	c := NewChunker(1000, 200, 0)
	// Devanagari text with danda terminators: no "\n\n" and no ". "
	// boundary exists, so every cut falls on a raw offset.
	text := strings.Repeat("धारा सोलह के अंतर्गत पंजीकृत व्यक्ति को इनपुट कर क्रेडिट की पात्रता प्राप्त है। ", 40)

	chunks := c.Chunk(text)
	assert.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d contains invalid UTF-8", i)
	}
}

func TestChunk_Overlap(t *testing.T) {
	c := NewChunker(300, 100, 0)
	text := strings.Repeat("z", 250) + " " + strings.Repeat("w", 400)

	chunks := c.Chunk(text)
	if len(chunks) < 2 {
		t.Skip("input produced fewer than two chunks")
	}
	// Consecutive chunks share text: the tail of one appears at the head
	// of the next.
	tail := chunks[0][len(chunks[0])-20:]
	assert.Contains(t, chunks[1][:120], tail[len(tail)-10:])
}
