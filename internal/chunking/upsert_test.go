package chunking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"synapse/internal/domain"
	"synapse/internal/llmrouter"
	"synapse/internal/notestore"
	"synapse/internal/vectorindex"
)

func newTestUpserter() (*Upserter, *notestore.Memory, *vectorindex.Index) {
	store := notestore.NewMemory()
	index := vectorindex.New(768, "", "")
	router := llmrouter.New("", "", "", "", nil, nil)
	return NewUpserter(store, index, router), store, index
}

func TestUpsert_CreatesChunksAndVectorsForNewNote(t *testing.T) {
	u, store, index := newTestUpserter()
	store.PutNote(domain.Note{ID: "n1", Title: "t", Content: "para one\n\npara two"})

	require.NoError(t, u.Upsert(context.Background(), "n1"))

	chunks, err := store.GetChunksForNote(context.Background(), "n1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, 2, index.Size())
}

func TestUpsert_SecondCallReplacesRatherThanDuplicates(t *testing.T) {
	u, store, index := newTestUpserter()
	store.PutNote(domain.Note{ID: "n1", Title: "t", Content: "alpha\n\nbeta\n\ngamma"})
	require.NoError(t, u.Upsert(context.Background(), "n1"))
	require.Equal(t, 3, index.Size())

	note, _, err := store.GetNote(context.Background(), "n1")
	require.NoError(t, err)
	note.Content = "alpha\n\nbeta"
	store.PutNote(*note)

	require.NoError(t, u.Upsert(context.Background(), "n1"))
	chunks, err := store.GetChunksForNote(context.Background(), "n1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, 2, index.Size())
}

func TestUpsert_EmptyContentLeavesNoChunks(t *testing.T) {
	u, store, index := newTestUpserter()
	store.PutNote(domain.Note{ID: "n1", Title: "t", Content: "   \n\n  "})
	require.NoError(t, u.Upsert(context.Background(), "n1"))
	chunks, err := store.GetChunksForNote(context.Background(), "n1")
	require.NoError(t, err)
	require.Empty(t, chunks)
	require.Equal(t, 0, index.Size())
}
