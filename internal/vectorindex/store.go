package vectorindex

import "context"

// Store is the contract both the in-process flat index and the optional
// Qdrant-backed index satisfy, so the retrieval and chunking packages never
// need to know which backend is configured.
type Store interface {
	Add(vectors [][]float32, ids []string) error
	Search(query []float32, k int) ([]Result, error)
	Remove(ids []string) error
}

// *Index satisfies Store directly (its methods already match).
var _ Store = (*Index)(nil)

// contextlessStore lets a context-taking backend (e.g. Qdrant) satisfy
// Store's context-free methods by binding context.Background(), matching
// the spec's contract for C1 which is not context-aware.
type contextlessStore struct {
	ctx context.Context
	add func(ctx context.Context, vectors [][]float32, ids []string) error
	search func(ctx context.Context, query []float32, k int) ([]Result, error)
	remove func(ctx context.Context, ids []string) error
}

func (c contextlessStore) Add(vectors [][]float32, ids []string) error {
	return c.add(c.ctx, vectors, ids)
}

func (c contextlessStore) Search(query []float32, k int) ([]Result, error) {
	return c.search(c.ctx, query, k)
}

func (c contextlessStore) Remove(ids []string) error {
	return c.remove(c.ctx, ids)
}
