// Package notestore defines the notes/chunks/embeddings persistence
// contract and an in-memory fake implementation, following the teacher's
// interface-then-backend pattern
// (manifold/internal/persistence/databases/interfaces.go). A real
// Postgres-backed store is out of scope (spec §1 Non-goals) but would
// satisfy the same Store interface.
package notestore

import (
	"context"
	"errors"

	"synapse/internal/domain"
)

// ErrNotFound is returned when a note, chunk, or id lookup misses.
var ErrNotFound = errors.New("notestore: not found")

// Store is the notes store contract consumed by chunking, retrieval, and
// the pipeline orchestrator.
type Store interface {
	GetNotes(ctx context.Context, limit int) ([]domain.Note, error)
	GetNote(ctx context.Context, id string) (*domain.Note, []domain.Chunk, error)
	GetChunksForNote(ctx context.Context, noteID string) ([]domain.Chunk, error)
	GetNoteIDsForChunkIDs(ctx context.Context, chunkIDs []string) (map[string]string, error)
	CreateChunks(ctx context.Context, noteID string, texts []string) ([]domain.Chunk, error)
	DeleteChunksForNote(ctx context.Context, noteID string) error
	CreateEmbeddings(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, model string) error
	GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error)
}
