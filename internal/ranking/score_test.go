package ranking

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"synapse/internal/domain"
	"synapse/internal/llmrouter"
)

func insight(conviction, fluency, surprise float64, noteIDs ...string) domain.Insight {
	refs := make([]domain.EvidenceRef, len(noteIDs))
	for i, id := range noteIDs {
		refs[i] = domain.EvidenceRef{NoteID: id}
	}
	return domain.Insight{
		EurekaMarkers:    domain.EurekaMarkers{Conviction: conviction, Fluency: fluency},
		BayesianSurprise: surprise,
		EvidenceRefs:     refs,
	}
}

func TestScoreOf_MatchesWeightedFormula(t *testing.T) {
	ins := insight(0.8, 0.6, 0.5, "a", "b", "c")
	got := scoreOf(ins, 0)
	want := 0.40*0.8 + 0.25*0.6 + 0.15*0.5 + 0.10*math.Tanh(3.0/6)
	require.InDelta(t, want, got, 1e-9)
}

func TestScoreOf_SubtractsPenalty(t *testing.T) {
	ins := insight(0.8, 0.6, 0.5)
	withPenalty := scoreOf(ins, 0.25)
	withoutPenalty := scoreOf(ins, 0)
	require.InDelta(t, 0.25, withoutPenalty-withPenalty, 1e-9)
}

func TestDistinctNoteCount_DeduplicatesNoteIDs(t *testing.T) {
	refs := []domain.EvidenceRef{{NoteID: "a"}, {NoteID: "a"}, {NoteID: "b"}}
	require.Equal(t, 2, distinctNoteCount(refs))
}

func TestRank_FailsOpenWhenNoProviderConfigured(t *testing.T) {
	router := llmrouter.New("", "", "", "", nil, nil)
	r := New(router)
	insights := []domain.Insight{
		insight(0.9, 0.9, 0.9, "a", "b"),
		insight(0.1, 0.1, 0.1, "a"),
	}
	top := r.Rank(context.Background(), insights)
	require.Len(t, top, 2)
	require.GreaterOrEqual(t, top[0].Score, top[1].Score)
	for _, ins := range top {
		require.Equal(t, float64(0), ins.CounterSeverity, "counter-check fails open with no provider configured")
	}
}

func TestRank_ReturnsAtMostThreeSortedByScoreStableOnTies(t *testing.T) {
	router := llmrouter.New("", "", "", "", nil, nil)
	r := New(router)
	ids := []string{"i0", "i1", "i2", "i3", "i4"}
	insights := make([]domain.Insight, 5)
	for i := range insights {
		insights[i] = insight(0.5, 0.5, 0.5)
		insights[i].ID = ids[i]
	}
	top := r.Rank(context.Background(), insights)
	require.Len(t, top, 3)
	require.Equal(t, []string{"i0", "i1", "i2"}, []string{top[0].ID, top[1].ID, top[2].ID}, "equal scores keep input order")
}
