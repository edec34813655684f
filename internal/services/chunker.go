package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the backward overlap between consecutive chunks.
	DefaultChunkOverlap = 200
	// MinChunkLength is the minimum meaningful-content threshold; shorter
	// fragments are dropped.
	MinChunkLength = 50

	// boundaryWindow is how far around the raw cut offset the chunker
	// looks for a paragraph or sentence boundary.
	boundaryWindow = 100
)

var collapseNewlines = regexp.MustCompile(`\n{3,}`)

// Chunker splits cleaned document text into overlapping, boundary-aware
// segments. Chunking is deterministic: the same input and parameters
// always yield the same boundaries, which re-ingestion diffing relies on.
type Chunker struct {
	targetSize int
	overlap    int
	minLength  int
}

// NewChunker creates a chunker. Non-positive arguments fall back to the
// defaults; overlap is capped below targetSize so the scan always advances.
func NewChunker(targetSize, overlap, minLength int) *Chunker {
	if targetSize <= 0 {
		targetSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= targetSize {
		overlap = targetSize / 4
	}
	if minLength <= 0 {
		minLength = MinChunkLength
	}
	return &Chunker{
		targetSize: targetSize,
		overlap:    overlap,
		minLength:  minLength,
	}
}

// NormalizeText normalizes line endings, collapses runs of three or more
// newlines to exactly two and trims surrounding whitespace.
func NormalizeText(text string) string {
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	t = collapseNewlines.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}

// Chunk splits text into ordered segments of roughly targetSize
// characters. Cut points prefer the last paragraph break within the
// boundary window, then the last sentence terminator; otherwise the raw
// offset is used. Fragments at or under the minimum length are dropped.
func (c *Chunker) Chunk(text string) []string {
	cleaned := NormalizeText(text)
	n := len(cleaned)
	if n == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + c.targetSize
		if end >= n {
			end = n
		} else {
			end = c.snapToBoundary(cleaned, start, end)
			end = snapToRuneStart(cleaned, start, end)
			if end <= start {
				// Target smaller than the rune at start; take the
				// whole rune rather than stalling.
				_, size := utf8.DecodeRuneInString(cleaned[start:])
				end = start + size
			}
		}

		if piece := strings.TrimSpace(cleaned[start:end]); len(piece) > c.minLength {
			chunks = append(chunks, piece)
		}

		if end >= n {
			break
		}

		next := snapToRuneStart(cleaned, start, end-c.overlap)
		if next <= start {
			// Boundary snapping produced a step smaller than the
			// overlap; move past it rather than stalling.
			next = end
		}
		start = next
	}

	return chunks
}

// snapToRuneStart backs a byte offset off to the start of the rune it
// falls inside, so cuts never split a multibyte character.
func snapToRuneStart(text string, start, pos int) int {
	for pos > start && pos < len(text) && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

// snapToBoundary searches the window around the raw cut offset for the
// last paragraph break, falling back to the last sentence terminator.
// The returned end sits just after the boundary.
func (c *Chunker) snapToBoundary(text string, start, end int) int {
	lo := end - boundaryWindow
	if lo < start {
		lo = start
	}
	hi := end + boundaryWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := text[lo:hi]

	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return lo + i + 2
	}
	if i := strings.LastIndex(window, ". "); i >= 0 {
		return lo + i + 2
	}
	return end
}
