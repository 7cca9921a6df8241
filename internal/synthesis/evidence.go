package synthesis

import (
	"fmt"
	"strings"

	"synapse/internal/chunking"
	"synapse/internal/domain"
)

// leadingParagraphs returns up to n paragraphs from the start of content.
func leadingParagraphs(content string, n int) []string {
	paras := chunking.ParagraphChunker{}.Chunk(content)
	if len(paras) > n {
		paras = paras[:n]
	}
	return paras
}

// buildEvidence assembles a tagged evidence block from one or more notes,
// each contributing up to two leading paragraphs.
func buildEvidence(notes ...domain.Note) string {
	var b strings.Builder
	for _, n := range notes {
		for i, p := range leadingParagraphs(n.Content, 2) {
			fmt.Fprintf(&b, "[note:%s#%d] %s\n", n.ID, i, p)
		}
	}
	return b.String()
}
