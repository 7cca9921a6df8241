package evolution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"synapse/internal/llmrouter"
)

func TestRefine_ReturnsOriginalWhenFewerThanTwoVariantsSurvive(t *testing.T) {
	router := llmrouter.New("", "", "", "", nil, nil)
	e := New(router)

	original := "short"
	out, err := e.Refine(context.Background(), original)
	require.NoError(t, err)
	require.Equal(t, original, out, "variants below minVariantLength are dropped, leaving only the original")
}

func TestParseEvaluations_FallsBackWhenUnparseable(t *testing.T) {
	_, ok := parseEvaluations(map[string]any{"not": "an array"}, 3)
	require.False(t, ok)
}

func TestParseEvaluations_UnwrapsNestedArray(t *testing.T) {
	result := map[string]any{
		"evaluations": []any{
			map[string]any{"variant": float64(0), "score": float64(7), "feedback": "ok"},
			map[string]any{"variant": float64(1), "score": float64(9), "feedback": "better"},
		},
	}
	evals, ok := parseEvaluations(result, 2)
	require.True(t, ok)
	require.Len(t, evals, 2)
	require.Equal(t, 9, evals[1].Score)
}

func TestTopTwo_PicksHighestScoringIndices(t *testing.T) {
	evals := []evaluation{
		{Variant: 0, Score: 3},
		{Variant: 1, Score: 9},
		{Variant: 2, Score: 7},
	}
	top := topTwo(evals)
	require.Equal(t, []int{1, 2}, top)
}
