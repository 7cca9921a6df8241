package notestore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"synapse/internal/domain"
)

// Memory is an in-process notes/chunks store, always available and used by
// default and by tests. Concurrency discipline (single RWMutex guarding a
// map, copy-out on read) is grounded on the teacher's memoryVector
// (manifold/internal/persistence/databases/memory_vector.go).
type Memory struct {
	mu         sync.RWMutex
	notes      map[string]domain.Note
	chunks     map[string]domain.Chunk   // chunkID -> chunk
	chunksByID map[string][]string       // noteID -> chunkIDs, insertion order
	embeddings map[string]domain.Embedding // chunkID -> embedding
}

func NewMemory() *Memory {
	return &Memory{
		notes:      make(map[string]domain.Note),
		chunks:     make(map[string]domain.Chunk),
		chunksByID: make(map[string][]string),
		embeddings: make(map[string]domain.Embedding),
	}
}

// PutNote seeds or overwrites a note. Used by tests and by any future
// ingestion path; not part of the Store contract itself.
func (m *Memory) PutNote(n domain.Note) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	m.notes[n.ID] = n
}

func (m *Memory) GetNotes(_ context.Context, limit int) ([]domain.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Note, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) GetNote(_ context.Context, id string) (*domain.Note, []domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, nil, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	chunks := m.chunksForNoteLocked(id)
	return &n, chunks, nil
}

func (m *Memory) GetChunksForNote(_ context.Context, noteID string) ([]domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chunksForNoteLocked(noteID), nil
}

func (m *Memory) chunksForNoteLocked(noteID string) []domain.Chunk {
	ids := m.chunksByID[noteID]
	out := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.chunks[id])
	}
	return out
}

func (m *Memory) GetNoteIDsForChunkIDs(_ context.Context, chunkIDs []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(chunkIDs))
	for _, cid := range chunkIDs {
		if c, ok := m.chunks[cid]; ok {
			out[cid] = c.NoteID
		}
	}
	return out, nil
}

func (m *Memory) GetChunk(_ context.Context, chunkID string) (*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chunks[chunkID]
	if !ok {
		return nil, fmt.Errorf("chunk %s: %w", chunkID, ErrNotFound)
	}
	return &c, nil
}

func (m *Memory) CreateChunks(_ context.Context, noteID string, texts []string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[noteID]; !ok {
		return nil, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	out := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		c := domain.Chunk{
			ID:        uuid.NewString(),
			NoteID:    noteID,
			Content:   text,
			Order:     i,
			CreatedAt: time.Now(),
		}
		m.chunks[c.ID] = c
		m.chunksByID[noteID] = append(m.chunksByID[noteID], c.ID)
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) DeleteChunksForNote(_ context.Context, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cid := range m.chunksByID[noteID] {
		delete(m.chunks, cid)
		delete(m.embeddings, cid)
	}
	delete(m.chunksByID, noteID)
	return nil
}

func (m *Memory) CreateEmbeddings(_ context.Context, chunks []domain.Chunk, vectors [][]float32, model string) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("notestore: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range chunks {
		m.embeddings[c.ID] = domain.Embedding{
			ID:      uuid.NewString(),
			ChunkID: c.ID,
			Model:   model,
			Vector:  vectors[i],
		}
	}
	return nil
}

var _ Store = (*Memory)(nil)
