package synthesis

// insightSchema mirrors the structured Insight object requested from
// generateInsight, grounded on original_source/src/backend_pipeline.py's
// INSIGHT_SCHEMA (mode, reframedProblem, insightCore,
// selectedHypothesisName, hypotheses[], eurekaMarkers, bayesianSurprise,
// evidenceRefs[], test, risks).
var insightSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"mode":                   map[string]any{"type": "string", "enum": []any{"pairwise", "constellation", "none"}},
		"reframedProblem":        map[string]any{"type": "string"},
		"insightCore":            map[string]any{"type": "string"},
		"selectedHypothesisName": map[string]any{"type": "string"},
		"hypotheses": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":              map[string]any{"type": "string"},
					"statement":         map[string]any{"type": "string"},
					"predictedEvidence": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"disconfirmers":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"prior":             map[string]any{"type": "number"},
					"posterior":         map[string]any{"type": "number"},
				},
			},
		},
		"eurekaMarkers": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"suddennessProxy": map[string]any{"type": "number"},
				"fluency":         map[string]any{"type": "number"},
				"conviction":      map[string]any{"type": "number"},
				"positiveAffect":  map[string]any{"type": "number"},
			},
		},
		"bayesianSurprise": map[string]any{"type": "number"},
		"evidenceRefs": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"noteId":  map[string]any{"type": "string"},
					"childId": map[string]any{"type": "string"},
					"quote":   map[string]any{"type": "string"},
				},
			},
		},
		"test":  map[string]any{"type": "string"},
		"risks": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []any{"mode"},
}
