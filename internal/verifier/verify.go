package verifier

import (
	"context"
	"fmt"
	"strings"

	"synapse/internal/domain"
)

const defaultMaxSites = 5

// Verifier grounds candidate claims against live web search results,
// disabled entirely when no search key is configured (spec.md §4.8).
type Verifier struct {
	searcher WebSearcher
	maxSites int
}

// New returns a Verifier backed by apiKey. If apiKey is empty, Verify
// always returns the zero Verification, matching "disabled (returns empty)".
func New(apiKey string, maxSites int) *Verifier {
	if maxSites <= 0 {
		maxSites = defaultMaxSites
	}
	v := &Verifier{maxSites: maxSites}
	if apiKey != "" {
		v.searcher = NewSerpAPISearcher(apiKey)
	}
	return v
}

// Enabled reports whether a search provider is configured.
func (v *Verifier) Enabled() bool { return v.searcher != nil }

// Verify checks candidateText against web search results for query,
// returning a verdict of supported/uncertain/refuted. When disabled
// (Enabled() is false) it returns the zero Verification; callers should
// check Enabled() before attaching a verdict to an insight at all.
func (v *Verifier) Verify(ctx context.Context, query, candidateText string) domain.Verification {
	if !v.Enabled() {
		return domain.Verification{}
	}

	composed := fmt.Sprintf("%s %q", query, candidateText)
	results, err := v.searcher.Search(ctx, composed, v.maxSites)
	if err != nil || len(results) == 0 {
		return domain.Verification{Verdict: "refuted", Notes: errNote(err)}
	}

	needle := strings.ToLower(candidateText)
	score := 0
	citations := make([]string, 0, v.maxSites)
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Snippet), needle) {
			score++
		}
		citations = append(citations, r.URL)
	}
	if len(citations) > v.maxSites {
		citations = citations[:v.maxSites]
	}

	verdict := "uncertain"
	if score >= 1 {
		verdict = "supported"
	}
	return domain.Verification{Verdict: verdict, Citations: citations}
}

func errNote(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
