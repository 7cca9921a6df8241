package chunking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParagraphChunker_SplitsOnBlankLinesAndTrims(t *testing.T) {
	content := "First paragraph.\n\n  Second paragraph.  \n\n\nThird.\n"
	got := ParagraphChunker{}.Chunk(content)
	require.Equal(t, []string{"First paragraph.", "Second paragraph.", "Third."}, got)
}

func TestParagraphChunker_DropsEmptyParagraphs(t *testing.T) {
	got := ParagraphChunker{}.Chunk("\n\n\n   \n\nonly one\n\n")
	require.Equal(t, []string{"only one"}, got)
}

func TestParagraphChunker_JoinIsIdentityUpToTrim(t *testing.T) {
	original := []string{"alpha", "beta", "gamma"}
	joined := ""
	for i, p := range original {
		if i > 0 {
			joined += "\n\n"
		}
		joined += p
	}
	require.Equal(t, original, ParagraphChunker{}.Chunk(joined))
}
