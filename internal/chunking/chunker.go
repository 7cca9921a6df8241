// Package chunking splits note content into paragraph-sized chunks and
// drives the embedding upsert sequence for a note. The Chunker interface
// and the strategy-dispatch shape are grounded on the teacher's
// SimpleChunker (manifold/internal/rag/chunker/chunker.go), narrowed to a
// single blank-line paragraph strategy since notes are plain text.
package chunking

import (
	"regexp"
	"strings"
)

var blankLineRe = regexp.MustCompile(`\n\s*\n`)

// Chunker splits note content into paragraph-sized text segments.
type Chunker interface {
	Chunk(content string) []string
}

// ParagraphChunker splits on blank-line boundaries, trims each paragraph,
// and drops empties.
type ParagraphChunker struct{}

func (ParagraphChunker) Chunk(content string) []string {
	parts := blankLineRe.Split(content, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ Chunker = ParagraphChunker{}
