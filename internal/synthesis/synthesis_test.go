package synthesis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"synapse/internal/domain"
	"synapse/internal/llmrouter"
	"synapse/internal/notestore"
	"synapse/internal/retrieval"
	"synapse/internal/vectorindex"
)

func TestLeadingParagraphs_CapsAtRequestedCount(t *testing.T) {
	content := "one\n\ntwo\n\nthree"
	require.Equal(t, []string{"one", "two"}, leadingParagraphs(content, 2))
}

func TestBuildEvidence_TagsEachParagraphWithNoteID(t *testing.T) {
	n := domain.Note{ID: "n1", Content: "alpha\n\nbeta"}
	ev := buildEvidence(n)
	require.Contains(t, ev, "[note:n1#0] alpha")
	require.Contains(t, ev, "[note:n1#1] beta")
}

func TestDecodeInsight_MapsInsightCoreToTitle(t *testing.T) {
	raw := map[string]any{"mode": "pairwise", "insightCore": "a surprising link"}
	ins, err := decodeInsight(raw)
	require.NoError(t, err)
	require.Equal(t, "pairwise", ins.Mode)
	require.Equal(t, "a surprising link", ins.Title)
}

func TestPairwise_DropsCandidatesWhoseStructuredOutputFails(t *testing.T) {
	router := llmrouter.New("", "", "", "", nil, nil) // fake provider, routeStructured always fails -> dropped
	store := notestore.NewMemory()
	s := New(router, store)

	source := domain.Note{ID: "src", Title: "source", Content: "para"}
	candidates := []domain.Note{
		{ID: "c1", Title: "cand1", Content: "para"},
		{ID: "c2", Title: "cand2", Content: "para"},
	}
	insights, err := s.Pairwise(context.Background(), source, candidates)
	require.NoError(t, err)
	require.Empty(t, insights, "fake provider never produces valid structured JSON, so all candidates are dropped")
}

func TestConstellation_NoOpWhenPairwiseListEmpty(t *testing.T) {
	router := llmrouter.New("", "", "", "", nil, nil)
	store := notestore.NewMemory()
	index := vectorindex.New(768, "", "")
	retriever := retrieval.New(store, index, router)
	s := New(router, store)

	out, err := s.Constellation(context.Background(), retriever, domain.Note{ID: "src"}, nil)
	require.NoError(t, err)
	require.Empty(t, out)
}
