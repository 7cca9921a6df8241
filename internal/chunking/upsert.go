package chunking

import (
	"context"
	"fmt"

	"synapse/internal/llmrouter"
	"synapse/internal/notestore"
	"synapse/internal/vectorindex"
)

const embeddingModel = "text-embedding-3-small"

// Upserter re-chunks and re-embeds a note, keeping the note store and the
// vector index in lockstep.
type Upserter struct {
	Store   notestore.Store
	Index   vectorindex.Store
	Router  *llmrouter.Router
	Chunker Chunker
}

func NewUpserter(store notestore.Store, index vectorindex.Store, router *llmrouter.Router) *Upserter {
	return &Upserter{Store: store, Index: index, Router: router, Chunker: ParagraphChunker{}}
}

// Upsert runs the embedding upsert sequence for noteID: remove the note's
// existing chunk vectors, delete its chunks, re-chunk its current content,
// persist the new chunks, embed them in one batch, add the vectors to the
// index, and persist the embeddings. On any failure partway through the
// index and the store may briefly disagree about this note's chunk ids;
// callers must not read the note's chunks/vectors concurrently with Upsert
// (spec.md's "external write transaction" framing).
func (u *Upserter) Upsert(ctx context.Context, noteID string) error {
	note, existing, err := u.Store.GetNote(ctx, noteID)
	if err != nil {
		return fmt.Errorf("chunking: load note: %w", err)
	}

	existingIDs := make([]string, len(existing))
	for i, c := range existing {
		existingIDs[i] = c.ID
	}
	if len(existingIDs) > 0 {
		if err := u.Index.Remove(existingIDs); err != nil {
			return fmt.Errorf("chunking: remove existing vectors: %w", err)
		}
	}
	if err := u.Store.DeleteChunksForNote(ctx, noteID); err != nil {
		return fmt.Errorf("chunking: delete existing chunks: %w", err)
	}

	texts := u.Chunker.Chunk(note.Content)
	if len(texts) == 0 {
		return nil
	}

	newChunks, err := u.Store.CreateChunks(ctx, noteID, texts)
	if err != nil {
		return fmt.Errorf("chunking: create chunks: %w", err)
	}

	vectors, err := u.Router.Embed(ctx, embeddingModel, texts)
	if err != nil {
		return fmt.Errorf("chunking: embed chunks: %w", err)
	}
	if len(vectors) != len(newChunks) {
		return fmt.Errorf("chunking: embedded %d vectors for %d chunks", len(vectors), len(newChunks))
	}

	ids := make([]string, len(newChunks))
	for i, c := range newChunks {
		ids[i] = c.ID
	}
	if err := u.Index.Add(vectors, ids); err != nil {
		return fmt.Errorf("chunking: add vectors: %w", err)
	}

	if err := u.Store.CreateEmbeddings(ctx, newChunks, vectors, embeddingModel); err != nil {
		return fmt.Errorf("chunking: persist embeddings: %w", err)
	}
	return nil
}
