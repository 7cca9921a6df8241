package llmrouter

import "strings"

// Task names used as keys into the task->model map and the heavy/distillation
// sets. Callers pass these constants to Route/RouteJSON/RouteStructured/Embed.
const (
	TaskQueryExpansion      = "queryExpansion"
	TaskGenerateInsight     = "generateInsight"
	TaskConstellation       = "constellation"
	TaskBridgeQuery         = "bridgeQuery"
	TaskCounterCheck        = "counterInsight"
	TaskRefineTechnical     = "refineTechnical"
	TaskRefineAnalogy       = "refineAnalogy"
	TaskRefinePragmatic     = "refinePragmatic"
	TaskMergeRefinements    = "mergeRefinements"
	TaskEvaluateRefinements = "evaluateRefinements"
	TaskVerify              = "verify"
	TaskEmbed               = "embed"
)

// defaultModels is the single source of truth for task->model dispatch,
// grounded on the teacher's per-task model configuration
// (manifold/internal/config/config.go). Overridable per task with
// LLM_MODEL_<TASK> (see internal/config).
var defaultModels = map[string]string{
	TaskQueryExpansion:      "claude-haiku-4-5",
	TaskGenerateInsight:     "claude-opus-4-1",
	TaskConstellation:       "claude-opus-4-1",
	TaskBridgeQuery:         "claude-haiku-4-5",
	TaskCounterCheck:        "claude-sonnet-4-5",
	TaskRefineTechnical:     "claude-sonnet-4-5",
	TaskRefineAnalogy:       "claude-sonnet-4-5",
	TaskRefinePragmatic:     "claude-sonnet-4-5",
	TaskMergeRefinements:    "claude-opus-4-1",
	TaskEvaluateRefinements: "claude-sonnet-4-5",
	TaskVerify:              "claude-haiku-4-5",
}

// heavyTasks skip cheaper providers and go straight to the preferred
// gateway, per spec: "tasks flagged heavy skip cheaper providers."
var heavyTasks = map[string]bool{
	TaskGenerateInsight:  true,
	TaskConstellation:    true,
	TaskMergeRefinements: true,
}

// distillationTasks prefer the gateway directly rather than falling through
// the cheaper-provider chain, independent of the heavy flag.
var distillationTasks = map[string]bool{
	TaskCounterCheck: true,
	TaskVerify:       true,
}

func normalizeTask(task string) string {
	return strings.ToLower(strings.TrimSpace(task))
}

func (r *Router) modelFor(task string) string {
	key := normalizeTask(task)
	if m, ok := r.modelOverrides[key]; ok && m != "" {
		return m
	}
	if m, ok := defaultModels[task]; ok {
		return m
	}
	return "claude-sonnet-4-5"
}

func (r *Router) isHeavy(task string) bool {
	if r.heavyOverrides[normalizeTask(task)] {
		return true
	}
	return heavyTasks[task]
}

func (r *Router) isDistillation(task string) bool {
	return distillationTasks[task]
}
