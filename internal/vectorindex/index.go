// Package vectorindex implements the concurrent in-memory flat L2 index
// mirrored to durable storage (C1). A single mutex guards every mutation
// and any read that depends on a coherent view of vectors and the id map,
// the same discipline the teacher uses for its in-memory stores (see
// manifold/internal/persistence/databases/memory_vector.go).
package vectorindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
)

// ErrDimensionMismatch is returned when a caller adds a vector whose length
// does not match the index's configured dimension. The call is rejected
// with no state change.
var ErrDimensionMismatch = errors.New("vectorindex: dimension mismatch")

// Result is a single nearest-neighbor hit.
type Result struct {
	ID       string
	Distance float64
}

// Index is a flat L2 index of fixed dimension D, mapping dense internal
// positions 0..N-1 to caller-supplied external ids.
type Index struct {
	mu     sync.Mutex
	dim    int
	vecs   [][]float32
	idMap  []string // idMap[i] == "" means tombstoned (internal id -1 equivalent)
	vecPath string
	idPath  string
}

// New constructs an empty index of the given dimension. vecPath/idPath name
// the two sibling files save/load use; both may be empty for an in-memory-only
// index.
func New(dim int, vecPath, idPath string) *Index {
	return &Index{dim: dim, vecPath: vecPath, idPath: idPath}
}

// Dimension reports the index's current vector dimension.
func (ix *Index) Dimension() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.dim
}

// Size reports the number of live (non-tombstoned) entries.
func (ix *Index) Size() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n := 0
	for _, id := range ix.idMap {
		if id != "" {
			n++
		}
	}
	return n
}

// Add appends vectors to the index, extending the id map. Rows whose
// dimension does not equal the index's configured dimension are rejected
// and the call makes no change to the index at all (atomic all-or-nothing).
func (ix *Index) Add(vectors [][]float32, ids []string) error {
	if len(vectors) != len(ids) {
		return fmt.Errorf("vectorindex: %d vectors but %d ids", len(vectors), len(ids))
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, v := range vectors {
		if len(v) != ix.dim {
			return ErrDimensionMismatch
		}
	}
	for i, v := range vectors {
		cp := make([]float32, len(v))
		copy(cp, v)
		ix.vecs = append(ix.vecs, cp)
		ix.idMap = append(ix.idMap, ids[i])
	}
	return nil
}

// Search returns up to k nearest neighbors by L2 distance, filtering out
// tombstoned entries. An empty index returns an empty result.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if k <= 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, ErrDimensionMismatch
	}
	out := make([]Result, 0, len(ix.vecs))
	for i, v := range ix.vecs {
		id := ix.idMap[i]
		if id == "" {
			continue
		}
		out = append(out, Result{ID: id, Distance: l2(query, v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// Remove rebuilds the index from vectors whose external id is not in ids,
// preserving order. This is O(N*D) but simple, and is the only path that
// shrinks the index.
func (ix *Index) Remove(ids []string) error {
	toRemove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		toRemove[id] = struct{}{}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	newVecs := make([][]float32, 0, len(ix.vecs))
	newIDs := make([]string, 0, len(ix.idMap))
	for i, id := range ix.idMap {
		if id == "" {
			continue
		}
		if _, drop := toRemove[id]; drop {
			continue
		}
		newVecs = append(newVecs, ix.vecs[i])
		newIDs = append(newIDs, id)
	}
	ix.vecs = newVecs
	ix.idMap = newIDs
	return nil
}

// onDiskVector is the JSON layout of the vector file: the dimension and
// every stored vector, in internal-id order.
type onDiskVector struct {
	Dim  int       `json:"dim"`
	Vecs [][]float32 `json:"vectors"`
}

// Save serializes vectors and the id map to the two configured sibling
// files. Only the process that owns the index should call Save, and only
// at shutdown or on an explicit checkpoint.
func (ix *Index) Save() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.vecPath == "" || ix.idPath == "" {
		return errors.New("vectorindex: no persistence paths configured")
	}
	vecBlob, err := json.Marshal(onDiskVector{Dim: ix.dim, Vecs: ix.vecs})
	if err != nil {
		return err
	}
	if err := os.WriteFile(ix.vecPath, vecBlob, 0o644); err != nil {
		return err
	}
	idBlob, err := json.Marshal(ix.idMap)
	if err != nil {
		return err
	}
	return os.WriteFile(ix.idPath, idBlob, 0o644)
}

// Load restores vectors and the id map from the two configured sibling
// files. The configured dimension is overridden by the loaded index's
// dimension, per the spec's open-question resolution: a subsequent Add at
// a different dimension is rejected, not silently re-adopted.
func (ix *Index) Load() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	vecBlob, err := os.ReadFile(ix.vecPath)
	if err != nil {
		return err
	}
	var onDisk onDiskVector
	if err := json.Unmarshal(vecBlob, &onDisk); err != nil {
		return err
	}
	idBlob, err := os.ReadFile(ix.idPath)
	if err != nil {
		return err
	}
	var idMap []string
	if err := json.Unmarshal(idBlob, &idMap); err != nil {
		return err
	}
	if len(onDisk.Vecs) != len(idMap) {
		return fmt.Errorf("vectorindex: loaded vector count %d != id count %d", len(onDisk.Vecs), len(idMap))
	}
	ix.dim = onDisk.Dim
	ix.vecs = onDisk.Vecs
	ix.idMap = idMap
	return nil
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
