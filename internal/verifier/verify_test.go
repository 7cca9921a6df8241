package verifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	results []SearchResult
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	return s.results, s.err
}

func TestVerify_DisabledWhenNoAPIKeyReturnsZeroValue(t *testing.T) {
	v := New("", 0)
	require.False(t, v.Enabled())

	got := v.Verify(context.Background(), "query", "candidate")
	require.Equal(t, "", got.Verdict)
	require.Empty(t, got.Citations)
}

func TestVerify_SupportedWhenSnippetContainsCandidateTextCaseInsensitive(t *testing.T) {
	v := New("fake-key", 5)
	v.searcher = &stubSearcher{results: []SearchResult{
		{Title: "a", Snippet: "The WIDGET scales linearly with load.", URL: "https://a.example"},
	}}

	got := v.Verify(context.Background(), "widget scaling", "widget scales linearly with load")
	require.Equal(t, "supported", got.Verdict)
	require.Equal(t, []string{"https://a.example"}, got.Citations)
}

func TestVerify_RefutedWhenSearchReturnsNoResults(t *testing.T) {
	v := New("fake-key", 5)
	v.searcher = &stubSearcher{results: nil}

	got := v.Verify(context.Background(), "query", "candidate")
	require.Equal(t, "refuted", got.Verdict)
}

func TestVerify_RefutedWhenSearchErrors(t *testing.T) {
	v := New("fake-key", 5)
	v.searcher = &stubSearcher{err: errors.New("network down")}

	got := v.Verify(context.Background(), "query", "candidate")
	require.Equal(t, "refuted", got.Verdict)
	require.Contains(t, got.Notes, "network down")
}

func TestVerify_UncertainWhenResultsExistButNoTextualMatch(t *testing.T) {
	v := New("fake-key", 5)
	v.searcher = &stubSearcher{results: []SearchResult{
		{Title: "a", Snippet: "Completely unrelated content.", URL: "https://a.example"},
	}}

	got := v.Verify(context.Background(), "query", "candidate phrase")
	require.Equal(t, "uncertain", got.Verdict)
}

func TestVerify_CitationsTruncatedToMaxSites(t *testing.T) {
	v := New("fake-key", 2)
	v.searcher = &stubSearcher{results: []SearchResult{
		{Snippet: "x", URL: "https://a.example"},
		{Snippet: "x", URL: "https://b.example"},
		{Snippet: "x", URL: "https://c.example"},
	}}

	got := v.Verify(context.Background(), "query", "unmatched")
	require.Len(t, got.Citations, 2)
}
