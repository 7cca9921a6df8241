package synthesis

import (
	"encoding/json"

	"synapse/internal/domain"
)

// decodeInsight re-marshals the router's loosely-typed JSON result into a
// domain.Insight, relying on struct tags for the field mapping.
func decodeInsight(raw map[string]any) (domain.Insight, error) {
	var ins domain.Insight
	b, err := json.Marshal(raw)
	if err != nil {
		return ins, err
	}
	if err := json.Unmarshal(b, &ins); err != nil {
		return ins, err
	}
	return ins, nil
}
