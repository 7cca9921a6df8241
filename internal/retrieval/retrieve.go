package retrieval

import (
	"context"

	"synapse/internal/domain"
	"synapse/internal/llmrouter"
	"synapse/internal/notestore"
	"synapse/internal/vectorindex"
)

const defaultTopK = 10

// Retriever finds candidate notes related to a source note, excluding the
// source itself.
type Retriever struct {
	Store  notestore.Store
	Index  vectorindex.Store
	Router *llmrouter.Router
}

func New(store notestore.Store, index vectorindex.Store, router *llmrouter.Router) *Retriever {
	return &Retriever{Store: store, Index: index, Router: router}
}

// Retrieve returns up to topK candidate note ids for source, excluding
// source.ID, following query expansion -> lexical/vector ranking -> RRF
// fusion -> truncation.
func (r *Retriever) Retrieve(ctx context.Context, source domain.Note, topK int) ([]string, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	queries := ExpandQueries(ctx, r.Router, source.Title, defaultMaxQueries)
	if len(queries) == 0 {
		return nil, nil
	}

	lexical, err := LexicalRank(ctx, r.Store, queries, source.ID)
	if err != nil {
		return nil, err
	}
	vector, err := VectorRank(ctx, r.Router, r.Index, r.Store, queries, topK, source.ID)
	if err != nil {
		return nil, err
	}

	fused := FuseRRF(lexical, vector)

	out := make([]string, 0, topK)
	for _, id := range fused {
		if id == source.ID {
			continue
		}
		out = append(out, id)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}
