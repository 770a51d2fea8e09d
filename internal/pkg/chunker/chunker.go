// Package chunker splits extracted document text into overlapping segments.
//
// Lengths and offsets are counted in Unicode code points. A segment never
// exceeds the configured size, and every segment after the first starts with
// exactly the last `overlap` code points of the previous one, so
// dropping that prefix and concatenating restores the input.
package chunker

import (
	"fmt"

	"github.com/futig/docchat/internal/entity"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Segment is one chunk of text with its [Start, End) code point offsets.
type Segment struct {
	Content string
	Start   int
	End     int
}

type Chunker struct {
	size    int
	overlap int
}

// New validates the window parameters.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", entity.ErrConfiguration, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", entity.ErrConfiguration, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than size %d", entity.ErrConfiguration, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk is a convenience wrapper returning only segment contents.
func Chunk(text string, size, overlap int) ([]string, error) {
	c, err := New(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Chunk(text), nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk returns the segment contents in document order.
func (c *Chunker) Chunk(text string) []string {
	segments := c.Split(text)
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Content
	}
	return out
}

// Split cuts text into segments. Cut points prefer a paragraph break, then a
// sentence end, then whitespace, and fall back to a hard cut at size.
func (c *Chunker) Split(text string) []Segment {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	// the lower bound keeps each step advancing and avoids tiny segments
	minLen := max(c.overlap+1, c.size/2)

	var segments []Segment
	start := 0
	for {
		limit := start + c.size
		if limit >= n {
			segments = append(segments, Segment{Content: string(runes[start:n]), Start: start, End: n})
			return segments
		}

		end := findCut(runes, start+minLen, limit)
		segments = append(segments, Segment{Content: string(runes[start:end]), Start: start, End: end})
		start = end - c.overlap
	}
}

// findCut returns a cut position in [lo, hi]. The segment ends right after
// the chosen separator.
func findCut(runes []rune, lo, hi int) int {
	if pos := lastParagraphBreak(runes, lo, hi); pos > 0 {
		return pos
	}
	if pos := lastSentenceEnd(runes, lo, hi); pos > 0 {
		return pos
	}
	if pos := lastSpace(runes, lo, hi); pos > 0 {
		return pos
	}
	return hi
}

func lastParagraphBreak(runes []rune, lo, hi int) int {
	for end := hi; end >= lo; end-- {
		if end >= 2 && runes[end-1] == '\n' && runes[end-2] == '\n' {
			return end
		}
	}
	return -1
}

func lastSentenceEnd(runes []rune, lo, hi int) int {
	for end := hi; end >= lo; end-- {
		if end >= 2 && isSpace(runes[end-1]) && isTerminal(runes[end-2]) {
			return end
		}
	}
	return -1
}

func lastSpace(runes []rune, lo, hi int) int {
	for end := hi; end >= lo; end-- {
		if end >= 1 && isSpace(runes[end-1]) {
			return end
		}
	}
	return -1
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
