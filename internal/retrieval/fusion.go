package retrieval

import "sort"

const rrfK = 60

// FuseRRF reciprocal-rank-fuses two ranked id lists with constant k=60:
// score(doc) = sum over lists of 1/(k + rank_in_list + 1). Grounded on
// manifold/internal/rag/retrieve/fusion.go's FuseRRF, narrowed to plain id
// lists (no snippet/metadata carrying — this package returns ids only) and
// without the teacher's diversification stage, which spec.md does not ask
// for.
func FuseRRF(lexical, vector []string) []string {
	scores := make(map[string]float64)
	order := make([]string, 0, len(lexical)+len(vector))
	addRanked := func(ids []string) {
		for rank, id := range ids {
			if _, seen := scores[id]; !seen {
				order = append(order, id)
			}
			scores[id] += 1.0 / float64(rrfK+rank+1)
		}
	}
	addRanked(lexical)
	addRanked(vector)

	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })
	return order
}
