// Package ranking scores candidate insights and applies a fail-open
// adversarial counter-check, grounded on spec.md §4.5 (no direct teacher
// analog; the scoring formula and fail-open criticism pattern are novel to
// this domain, built in the teacher's error-handling idiom of "log and
// continue" seen throughout manifold/internal/rag).
package ranking

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"synapse/internal/domain"
	"synapse/internal/llmrouter"
	"synapse/internal/logging"
)

var counterCheckSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"counterEvidence": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"weakness":        map[string]any{"type": "string"},
		"severity":        map[string]any{"type": "number"},
	},
	"required": []any{"severity"},
}

// Ranker scores and orders candidate insights.
type Ranker struct {
	Router *llmrouter.Router
}

func New(router *llmrouter.Router) *Ranker {
	return &Ranker{Router: router}
}

// Rank scores every insight, sorts descending (stable on ties), and
// returns the top 3.
func (r *Ranker) Rank(ctx context.Context, insights []domain.Insight) []domain.Insight {
	type scored struct {
		insight domain.Insight
		score   float64
	}
	out := make([]scored, len(insights))
	for i, ins := range insights {
		severity, ok := r.counterCheck(ctx, ins)
		penalty := 0.0
		if ok {
			ins.CounterSeverity = severity
			penalty = 0.25 * math.Min(1, severity)
		}
		score := scoreOf(ins, penalty)
		ins.Score = score
		out[i] = scored{insight: ins, score: score}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })

	n := 3
	if len(out) < n {
		n = len(out)
	}
	top := make([]domain.Insight, n)
	for i := 0; i < n; i++ {
		top[i] = out[i].insight
	}
	return top
}

func scoreOf(ins domain.Insight, penalty float64) float64 {
	diversity := distinctNoteCount(ins.EvidenceRefs)
	return 0.40*ins.EurekaMarkers.Conviction +
		0.25*ins.EurekaMarkers.Fluency +
		0.15*ins.BayesianSurprise +
		0.10*math.Tanh(float64(diversity)/6) -
		penalty
}

func distinctNoteCount(refs []domain.EvidenceRef) int {
	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		seen[r.NoteID] = true
	}
	return len(seen)
}

// counterCheck asks the LLM Router for counter-evidence and a severity
// score. On any router error or malformed response it fails open: returns
// (0, false), so the caller applies no penalty.
func (r *Ranker) counterCheck(ctx context.Context, ins domain.Insight) (float64, bool) {
	evidence, err := json.Marshal(ins.EvidenceRefs)
	if err != nil {
		return 0, false
	}
	msgs := []llmrouter.Message{
		{Role: "system", Content: "You are an adversarial reviewer. Find counter-evidence and weaknesses in the given insight."},
		{Role: "user", Content: "Insight core: " + ins.Title + "\nEvidence: " + string(evidence)},
	}
	result, err := r.Router.RouteStructured(ctx, llmrouter.TaskCounterCheck, msgs, "counterCheck", counterCheckSchema)
	if err != nil {
		logging.Log.WithError(err).Debug("ranking: counter-check failed open")
		return 0, false
	}
	sev, ok := result["severity"].(float64)
	if !ok {
		return 0, false
	}
	return sev, true
}
