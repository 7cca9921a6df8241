package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"synapse/internal/domain"
	"synapse/internal/evolution"
	"synapse/internal/jobs"
	"synapse/internal/llmrouter"
	"synapse/internal/notestore"
	"synapse/internal/ranking"
	"synapse/internal/retrieval"
	"synapse/internal/synthesis"
	"synapse/internal/vectorindex"
	"synapse/internal/verifier"
)

func newFakeOrchestrator(t *testing.T) (*Orchestrator, *notestore.Memory, *jobs.Store) {
	t.Helper()
	store := notestore.NewMemory()
	router := llmrouter.New("", "", "", "", nil, nil)
	index := vectorindex.New(768, t.TempDir()+"/idx.bin", t.TempDir()+"/ids.json")
	jobStore := jobs.NewStore()

	orch := New(
		store,
		jobStore,
		retrieval.New(store, index, router),
		synthesis.New(router, store),
		ranking.New(router),
		evolution.New(router),
		verifier.New("", 0),
	)
	return orch, store, jobStore
}

func seedNote(store *notestore.Memory, id, title, content string) {
	store.PutNote(domain.Note{ID: id, Title: title, Content: content})
}

func TestRun_FailsWithNotFoundWhenSourceNoteMissing(t *testing.T) {
	orch, _, jobStore := newFakeOrchestrator(t)
	jobID, _ := jobStore.Create(context.Background())

	orch.Run(context.Background(), jobID, "does-not-exist")

	view, ok := jobStore.Get(jobID)
	require.True(t, ok)
	require.Equal(t, jobs.StateFailed, view.Status)
	require.Equal(t, string(KindNotFound), view.Error.Code)
}

func TestRun_FailsWithNoCandidatesWhenStoreHasOnlyTheSourceNote(t *testing.T) {
	orch, store, jobStore := newFakeOrchestrator(t)
	seedNote(store, "n1", "Solo note", "Nothing else relates to this.")
	jobID, _ := jobStore.Create(context.Background())

	orch.Run(context.Background(), jobID, "n1")

	view, ok := jobStore.Get(jobID)
	require.True(t, ok)
	require.Equal(t, jobs.StateFailed, view.Status)
	require.Equal(t, string(KindNoCandidates), view.Error.Code)
}

func TestRun_HonorsCancellationBetweenPhases(t *testing.T) {
	orch, store, jobStore := newFakeOrchestrator(t)
	seedNote(store, "n1", "Source", "Source content.")
	seedNote(store, "n2", "Candidate", "Candidate content.")
	jobID, _ := jobStore.Create(context.Background())
	jobStore.Cancel(jobID)

	orch.Run(context.Background(), jobID, "n1")

	view, ok := jobStore.Get(jobID)
	require.True(t, ok)
	require.Equal(t, jobs.StateCancelled, view.Status)
	require.Nil(t, view.Error)
}

func TestRun_JobReachesTerminalStateWithProgressInRange(t *testing.T) {
	orch, store, jobStore := newFakeOrchestrator(t)
	seedNote(store, "n1", "Source", "Source content discusses feedback loops.")
	seedNote(store, "n2", "Candidate", "Candidate content also discusses feedback loops.")
	jobID, _ := jobStore.Create(context.Background())

	done := make(chan struct{})
	go func() {
		orch.Run(context.Background(), jobID, "n1")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator run did not complete in time")
	}

	view, ok := jobStore.Get(jobID)
	require.True(t, ok)
	require.True(t, view.Status.Terminal())
	require.GreaterOrEqual(t, view.Progress.Pct, 0)
	require.LessOrEqual(t, view.Progress.Pct, 100)
}
