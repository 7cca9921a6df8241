// Package evolution refines a finished insight core through a
// generate -> evaluate -> merge loop, grounded on the shape of the
// teacher's RunAlphaEvolve (manifold/internal/evolve/evolve.go) — sample,
// mutate, score, keep the best — narrowed from diff-based code mutation to
// plain text-variant refinement, since this domain evolves prose, not
// source code.
package evolution

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"synapse/internal/llmrouter"
	"synapse/internal/logging"
)

const minVariantLength = 20

var focuses = []struct {
	task   string
	prompt string
}{
	{llmrouter.TaskRefineTechnical, "Refine this insight to sharpen its technical depth and precision."},
	{llmrouter.TaskRefineAnalogy, "Refine this insight by strengthening a cross-domain analogy that illuminates it."},
	{llmrouter.TaskRefinePragmatic, "Refine this insight to make its pragmatic implications concrete and actionable."},
}

type evaluation struct {
	Variant  int    `json:"variant"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Evolver runs the self-evolution refinement loop.
type Evolver struct {
	Router *llmrouter.Router
}

func New(router *llmrouter.Router) *Evolver {
	return &Evolver{Router: router}
}

// Refine takes a final-draft insight core and returns its refined text, or
// the original if evolution does not improve on it.
func (e *Evolver) Refine(ctx context.Context, original string) (string, error) {
	variants := e.generateVariants(ctx, original)
	if len(variants) < 2 {
		return original, nil
	}

	scores := e.evaluate(ctx, variants)
	top := topTwo(scores)
	if len(top) < 2 {
		return variants[top[0]], nil
	}

	merged, err := e.merge(ctx, variants[top[0]], variants[top[1]])
	if err != nil || strings.TrimSpace(merged) == "" {
		logging.Log.WithError(err).Debug("evolution: merge failed, returning best single variant")
		return variants[top[0]], nil
	}
	return merged, nil
}

// generateVariants launches the three fixed-focus refinements concurrently,
// keeps non-empty trimmed variants over minVariantLength, adds the
// original, and dedupes.
func (e *Evolver) generateVariants(ctx context.Context, original string) []string {
	results := make([]string, len(focuses))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range focuses {
		i, f := i, f
		g.Go(func() error {
			msgs := []llmrouter.Message{
				{Role: "system", Content: f.prompt},
				{Role: "user", Content: original},
			}
			out, err := e.Router.Route(gctx, f.task, msgs, llmrouter.Options{})
			if err != nil {
				logging.Log.WithError(err).WithField("focus", f.task).Warn("evolution: refinement call failed")
				return nil
			}
			results[i] = strings.TrimSpace(out)
			return nil
		})
	}
	_ = g.Wait()

	seen := map[string]bool{strings.TrimSpace(original): true}
	out := []string{strings.TrimSpace(original)}
	for _, v := range results {
		if len(v) <= minVariantLength || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// evaluate asks the router to score every variant, falling back to equal
// scores in input order when the response doesn't parse.
func (e *Evolver) evaluate(ctx context.Context, variants []string) []evaluation {
	var b strings.Builder
	for i, v := range variants {
		b.WriteString("Variant ")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n\n")
	}
	prompt := "Score each variant 1-10 for insight quality. Respond with a JSON array of " +
		"{variant:int, score:1..10, feedback:str}.\n\n" + b.String()

	result, err := e.Router.RouteJSON(ctx, llmrouter.TaskEvaluateRefinements, prompt, 0)
	if err == nil {
		if evals, ok := parseEvaluations(result, len(variants)); ok {
			return evals
		}
	}

	out := make([]evaluation, len(variants))
	for i := range variants {
		out[i] = evaluation{Variant: i, Score: 5}
	}
	return out
}

// parseEvaluations extracts an evaluation array from a router JSON result
// that may have wrapped the array under a top-level key.
func parseEvaluations(result map[string]any, n int) ([]evaluation, bool) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, false
	}
	var direct []evaluation
	if err := json.Unmarshal(raw, &direct); err == nil && len(direct) > 0 {
		return direct, true
	}
	for _, v := range result {
		if arr, ok := v.([]any); ok {
			b, err := json.Marshal(arr)
			if err != nil {
				continue
			}
			var evals []evaluation
			if err := json.Unmarshal(b, &evals); err == nil && len(evals) > 0 {
				return evals, true
			}
		}
	}
	return nil, false
}

// topTwo returns the Variant numbers of the two highest-scoring
// evaluations, descending, stable on ties by input order.
func topTwo(evals []evaluation) []int {
	ordered := make([]evaluation, len(evals))
	copy(ordered, evals)
	sort.SliceStable(ordered, func(a, b int) bool { return ordered[a].Score > ordered[b].Score })
	n := 2
	if len(ordered) < n {
		n = len(ordered)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = ordered[i].Variant
	}
	return out
}

func (e *Evolver) merge(ctx context.Context, a, b string) (string, error) {
	msgs := []llmrouter.Message{
		{Role: "system", Content: "Merge these two refinements of the same insight into one coherent, improved version."},
		{Role: "user", Content: "Variant A:\n" + a + "\n\nVariant B:\n" + b},
	}
	return e.Router.Route(ctx, llmrouter.TaskMergeRefinements, msgs, llmrouter.Options{})
}
