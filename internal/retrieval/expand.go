// Package retrieval implements candidate-note retrieval for a source note:
// query expansion, lexical and vector ranking, and Reciprocal Rank Fusion.
// Grounded on manifold/internal/rag/retrieve (query.go for expansion shape,
// fusion.go for RRF), narrowed to the spec's fixed relation-kind set and
// single-pass fusion (no diversification stage — the spec does not call
// for one).
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"synapse/internal/llmrouter"
)

// relationKinds is the fixed set of 8 relation kinds a source topic is
// expanded against.
var relationKinds = []string{
	"Contradiction", "PracticalApplication", "HistoricalAnalogy", "ProblemToSolution",
	"DeepSimilarity", "Mechanism", "Boundary", "TradeOff",
}

var cheapTemplates = map[string]string{
	"Contradiction":        "%s limitation counterexample",
	"PracticalApplication": "%s practical application use case",
	"HistoricalAnalogy":    "%s historical analogy precedent",
	"ProblemToSolution":    "%s problem it solves",
	"DeepSimilarity":       "%s deep structural similarity",
	"Mechanism":            "%s underlying mechanism",
	"Boundary":             "%s boundary condition edge case",
	"TradeOff":             "%s trade-off cost benefit",
}

const defaultMaxQueries = 8

var expansionSchema = map[string]any{
	"type":       "object",
	"properties": map[string]any{},
	"additionalProperties": map[string]any{"type": "string"},
}

// ExpandQueries produces up to maxQueries search queries for topic. LLM
// queries (when a router is available) are concatenated before the cheap
// template queries; duplicates are removed preserving order.
func ExpandQueries(ctx context.Context, router *llmrouter.Router, topic string, maxQueries int) []string {
	if maxQueries <= 0 {
		maxQueries = defaultMaxQueries
	}
	cheap := cheapQueries(topic)

	var llmQueries []string
	if router != nil {
		llmQueries = tryLLMExpansion(ctx, router, topic)
	}

	combined := append(llmQueries, cheap...)
	return dedupePreserveOrder(combined, maxQueries)
}

func cheapQueries(topic string) []string {
	out := make([]string, 0, len(relationKinds))
	for _, kind := range relationKinds {
		tmpl := cheapTemplates[kind]
		out = append(out, fmt.Sprintf(tmpl, topic))
	}
	return out
}

func tryLLMExpansion(ctx context.Context, router *llmrouter.Router, topic string) []string {
	prompt := fmt.Sprintf(
		"Topic: %s\nFor any subset of these relation kinds that meaningfully applies, produce a short search query: %s. "+
			"Respond with a JSON object mapping relation kind to query string.",
		topic, strings.Join(relationKinds, ", "),
	)
	msgs := []llmrouter.Message{
		{Role: "system", Content: "You expand a topic into concise search queries keyed by relation kind."},
		{Role: "user", Content: prompt},
	}
	result, err := router.RouteStructured(ctx, llmrouter.TaskQueryExpansion, msgs, "queryExpansion", expansionSchema)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(result))
	for _, kind := range relationKinds {
		if v, ok := result[kind]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func dedupePreserveOrder(in []string, limit int) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, limit)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
