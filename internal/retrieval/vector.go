package retrieval

import (
	"context"

	"synapse/internal/llmrouter"
	"synapse/internal/notestore"
	"synapse/internal/vectorindex"
)

const vectorTopN = 20

// VectorRank embeds every query, means the embeddings of the predominant
// dimensionality, searches the vector index for 2*topK chunks, and maps
// each hit back to its owning note id, preserving first-seen order and
// excluding excludeNoteID.
func VectorRank(ctx context.Context, router *llmrouter.Router, index vectorindex.Store, store notestore.Store, queries []string, topK int, excludeNoteID string) ([]string, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	vectors, err := router.Embed(ctx, "text-embedding-3-small", queries)
	if err != nil {
		return nil, err
	}
	mean := meanOfPredominantDimension(vectors)
	if mean == nil {
		return nil, nil
	}

	k := 2 * topK
	if k <= 0 {
		k = 2 * vectorTopN
	}
	hits, err := index.Search(mean, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	chunkIDs := make([]string, len(hits))
	for i, h := range hits {
		chunkIDs[i] = h.ID
	}
	chunkToNote, err := store.GetNoteIDsForChunkIDs(ctx, chunkIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		noteID, ok := chunkToNote[h.ID]
		if !ok || noteID == excludeNoteID || seen[noteID] {
			continue
		}
		seen[noteID] = true
		out = append(out, noteID)
		if len(out) == vectorTopN {
			break
		}
	}
	return out, nil
}

// meanOfPredominantDimension filters empty vectors, keeps only those whose
// dimension matches the majority, and returns their element-wise mean.
func meanOfPredominantDimension(vectors [][]float32) []float32 {
	counts := make(map[int]int)
	for _, v := range vectors {
		if len(v) == 0 || isZero(v) {
			continue
		}
		counts[len(v)]++
	}
	if len(counts) == 0 {
		return nil
	}
	predominant, best := 0, -1
	for dim, c := range counts {
		if c > best {
			predominant, best = dim, c
		}
	}

	sum := make([]float32, predominant)
	n := 0
	for _, v := range vectors {
		if len(v) != predominant || isZero(v) {
			continue
		}
		for i, x := range v {
			sum[i] += x
		}
		n++
	}
	if n == 0 {
		return nil
	}
	for i := range sum {
		sum[i] /= float32(n)
	}
	return sum
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
