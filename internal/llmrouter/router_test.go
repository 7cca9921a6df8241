package llmrouter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newFakeOnlyRouter() *Router {
	return New("", "", "", "", nil, nil)
}

func TestRoute_FallsBackToFakeProviderWhenNoneConfigured(t *testing.T) {
	r := newFakeOnlyRouter()
	out, err := r.Route(context.Background(), TaskGenerateInsight, []Message{{Role: "user", Content: "hello"}}, Options{})
	require.NoError(t, err)
	require.Contains(t, out, "hello")
	require.Len(t, r.Usage().Snapshot(), 1)
}

func TestRouteJSON_FailsWithBadOutputWhenProviderPrefixesNonJSONText(t *testing.T) {
	r := newFakeOnlyRouter()
	out, err := r.RouteJSON(context.Background(), TaskCounterCheck, `{"a":1}`, 0)
	require.ErrorIs(t, err, ErrBadOutput)
	require.Nil(t, out)
}

func TestRouteJSON_StripsBacktickFences(t *testing.T) {
	cleaned := stripFences("```json\n{\"a\":1}\n```")
	require.Equal(t, `{"a":1}`, cleaned)

	var v map[string]any
	parsed, ok := tryParseJSON(cleaned)
	require.True(t, ok)
	v = parsed
	require.Equal(t, float64(1), v["a"])
}

func TestEmbed_FakeModeIsDeterministicAndMeanCentered(t *testing.T) {
	r := newFakeOnlyRouter()
	vecs, err := r.Embed(context.Background(), "any-model", []string{"alpha beta gamma"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	require.Len(t, vecs[0], fakeDim)

	again, err := r.Embed(context.Background(), "any-model", []string{"alpha beta gamma"})
	require.NoError(t, err)
	require.Equal(t, vecs[0], again[0])

	var sum float64
	for _, x := range vecs[0] {
		sum += float64(x)
	}
	require.InDelta(t, 0, sum, 1e-3, "mean-centered vector must sum close to zero")
}

func TestResolutionOrder_HeavyTaskSkipsCheaperProviders(t *testing.T) {
	r := newFakeOnlyRouter()
	order := r.resolutionOrder(TaskGenerateInsight)
	require.Len(t, order, 1, "with no preferred gateway configured, heavy tasks fall straight to the fake provider")
	require.Equal(t, "fake", order[0].name())
}

func TestStream_ChunksNonStreamingResultAndTerminates(t *testing.T) {
	r := newFakeOnlyRouter()
	events, err := r.Stream(context.Background(), TaskQueryExpansion, []Message{{Role: "user", Content: "topic"}})
	require.NoError(t, err)

	var tokens string
	var done bool
	for ev := range events {
		if ev.Done {
			done = true
			require.NotEmpty(t, ev.Text)
			continue
		}
		tokens += ev.Token
	}
	require.True(t, done)
	require.NotEmpty(t, tokens)
}

func TestModelFor_HonorsOverrides(t *testing.T) {
	r := New("", "", "", "", map[string]string{"generateinsight": "custom-model"}, nil)
	require.Equal(t, "custom-model", r.modelFor(TaskGenerateInsight))
	require.Equal(t, defaultModels[TaskVerify], r.modelFor(TaskVerify))
}
