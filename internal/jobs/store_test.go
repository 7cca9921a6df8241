package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"synapse/internal/domain"
)

func TestCreate_SeedsQueuedCandidateSelectionZero(t *testing.T) {
	s := NewStore()
	id, trace := s.Create(context.Background())
	require.NotEmpty(t, id)
	require.NotEmpty(t, trace)
	require.NotEqual(t, id, trace)

	view, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, StateQueued, view.Status)
	require.Equal(t, PhaseCandidateSelection, view.Progress.Phase)
	require.Equal(t, 0, view.Progress.Pct)
	require.Equal(t, trace, view.TraceID)
}

func TestHeartbeat_AppliesDeltasAndIsMonotonicNonDecreasing(t *testing.T) {
	s := NewStore()
	id, _ := s.Create(context.Background())
	s.SetRunning(id)

	s.Heartbeat(id, PhaseCandidateSelection, 5, HeartbeatOpts{})
	s.Heartbeat(id, PhaseCandidateSelection, 30, HeartbeatOpts{MetricsDelta: Metrics{NotesConsidered: 12}})
	s.Heartbeat(id, PhaseInitialSynthesis, 50, HeartbeatOpts{Partial: []domain.Insight{{ID: "i1"}}})

	view, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, PhaseInitialSynthesis, view.Progress.Phase)
	require.Equal(t, 50, view.Progress.Pct)
	require.Equal(t, 12, view.Metrics.NotesConsidered)
	require.Len(t, view.PartialResults, 1)
	require.GreaterOrEqual(t, phaseOrder[view.Progress.Phase], phaseOrder[PhaseCandidateSelection])
}

func TestTerminalTransition_IsOnceOnly(t *testing.T) {
	s := NewStore()
	id, _ := s.Create(context.Background())

	s.Complete(id, Result{Version: "v2"})
	s.Fail(id, "NoInsights", "should be ignored")

	view, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, StateSucceeded, view.Status)
	require.Nil(t, view.Error)

	s.Heartbeat(id, PhaseFinalizing, 100, HeartbeatOpts{Message: "ignored"})
	view2, _ := s.Get(id)
	require.Equal(t, view.UpdatedAt, view2.UpdatedAt)
}

func TestCancel_SignalsAndTransitionsToCancelled(t *testing.T) {
	s := NewStore()
	id, _ := s.Create(context.Background())
	require.False(t, s.IsCancelled(id))

	require.True(t, s.Cancel(id))
	require.True(t, s.IsCancelled(id))

	view, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, StateCancelled, view.Status)

	require.True(t, s.Cancel(id), "cancelling twice must not panic on a closed channel")
}

func TestCancel_UnknownJobReturnsFalse(t *testing.T) {
	s := NewStore()
	require.False(t, s.Cancel("does-not-exist"))
}

func TestIsCancelled_UnknownJobReadsAsCancelled(t *testing.T) {
	s := NewStore()
	require.True(t, s.IsCancelled("does-not-exist"))
}

func TestGet_ExpiredJobIsEvictedAndReportsNotFound(t *testing.T) {
	s := NewStore()
	id, _ := s.Create(context.Background())
	s.jobs[id].ttl = time.Millisecond
	s.jobs[id].createdAt = time.Now().Add(-time.Hour)

	_, ok := s.Get(id)
	require.False(t, ok)

	s.mu.Lock()
	_, stillThere := s.jobs[id]
	s.mu.Unlock()
	require.False(t, stillThere)
}

func TestEvictExpired_RemovesOnlyExpiredJobs(t *testing.T) {
	s := NewStore()
	fresh, _ := s.Create(context.Background())
	stale, _ := s.Create(context.Background())
	s.jobs[stale].ttl = time.Millisecond
	s.jobs[stale].createdAt = time.Now().Add(-time.Hour)

	s.EvictExpired()

	_, freshOK := s.Get(fresh)
	require.True(t, freshOK)
	s.mu.Lock()
	_, staleOK := s.jobs[stale]
	s.mu.Unlock()
	require.False(t, staleOK)
}

func TestEvents_EmitsDiffsAndClosesAfterTerminal(t *testing.T) {
	s := NewStore()
	id, _ := s.Create(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ch := s.Events(ctx, id)

	first, ok := <-ch
	require.True(t, ok)
	var firstView View
	require.NoError(t, json.Unmarshal(first, &firstView))
	require.Equal(t, StateQueued, firstView.Status)

	s.Complete(id, Result{Version: "v2"})

	var last []byte
	for payload := range ch {
		last = payload
	}
	require.NotNil(t, last)
	var finalView View
	require.NoError(t, json.Unmarshal(last, &finalView))
	require.Equal(t, StateSucceeded, finalView.Status)
}

// fakePublisher is an in-process stand-in for RedisPublisher, exercising
// the Events(publisher) path without a real Redis instance.
type fakePublisher struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{subs: make(map[string][]chan []byte)}
}

func (p *fakePublisher) Publish(_ context.Context, jobID string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs[jobID] {
		ch <- payload
	}
	return nil
}

func (p *fakePublisher) Subscribe(_ context.Context, jobID string) (<-chan []byte, func()) {
	ch := make(chan []byte, 8)
	p.mu.Lock()
	p.subs[jobID] = append(p.subs[jobID], ch)
	p.mu.Unlock()
	return ch, func() {}
}

func TestEvents_WithPublisherRelaysUntilTerminal(t *testing.T) {
	s := NewStore()
	pub := newFakePublisher()
	s.SetPublisher(pub)
	id, _ := s.Create(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ch := s.Events(ctx, id)

	first, ok := <-ch
	require.True(t, ok)
	var firstView View
	require.NoError(t, json.Unmarshal(first, &firstView))
	require.Equal(t, StateQueued, firstView.Status)

	s.Heartbeat(id, PhaseInitialSynthesis, 50, HeartbeatOpts{})
	s.Complete(id, Result{Version: "v2"})

	var last []byte
	for payload := range ch {
		last = payload
	}
	require.NotNil(t, last)
	var finalView View
	require.NoError(t, json.Unmarshal(last, &finalView))
	require.Equal(t, StateSucceeded, finalView.Status)
}

func TestEvents_UnknownJobEmitsNotFoundAndCloses(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch := s.Events(ctx, "missing")
	payload, ok := <-ch
	require.True(t, ok)
	require.Contains(t, string(payload), "not_found")

	_, stillOpen := <-ch
	require.False(t, stillOpen)
}
