package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"synapse/internal/domain"
	"synapse/internal/telemetry"
)

const defaultTTL = 24 * time.Hour
const eventPollInterval = 250 * time.Millisecond

// record is the store's internal bookkeeping for one job; View is the part
// ever handed to callers, copied out on every read.
type record struct {
	view      View
	createdAt time.Time
	ttl       time.Duration
	cancelCh  chan struct{}
	cancelled bool
}

func (r *record) expired(now time.Time) bool {
	return now.Sub(r.createdAt) > r.ttl
}

// Store is the in-memory, TTL-bounded job store. A single mutex guards the
// map and every record; no work is held under the lock. Job state always
// lives in-process; publisher only changes how Events fans out changes to
// it.
type Store struct {
	mu        sync.Mutex
	jobs      map[string]*record
	publisher Publisher
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*record)}
}

// SetPublisher switches Events from its default poll loop to relaying
// through pub, notifying every call to Heartbeat/SetRunning/Complete/
// Fail/Cancel as it happens instead of on the next poll tick.
func (s *Store) SetPublisher(pub Publisher) {
	s.publisher = pub
}

// publish sends id's current view to the publisher, if one is configured.
// Marshal/publish failures are dropped without logging; an Events stream
// relaying through the publisher does not poll, so it never sees a
// snapshot whose publish failed.
func (s *Store) publish(id string) {
	if s.publisher == nil {
		return
	}
	view, ok := s.Get(id)
	if !ok {
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		return
	}
	_ = s.publisher.Publish(context.Background(), id, payload)
}

// Create mints a job id and trace id, seeds QUEUED/candidate_selection/0%,
// and returns the new job's id and trace id. The trace id is the trace id
// of a span opened against the process-wide OpenTelemetry TracerProvider
// (see internal/telemetry), so it correlates with any exported spans the
// run later emits; if no provider has been installed the span context is
// invalid and a random id is used instead.
func (s *Store) Create(ctx context.Context) (jobID, traceID string) {
	now := time.Now()
	jobID = uuid.NewString()

	_, span := telemetry.Tracer().Start(ctx, "job.create")
	defer span.End()
	if sc := span.SpanContext(); sc.IsValid() {
		traceID = sc.TraceID().String()
	} else {
		traceID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = &record{
		view: View{
			JobID:     jobID,
			Status:    StateQueued,
			Progress:  Progress{Phase: PhaseCandidateSelection, Pct: 0},
			StartedAt: now,
			UpdatedAt: now,
			TraceID:   traceID,
		},
		createdAt: now,
		ttl:       defaultTTL,
		cancelCh:  make(chan struct{}),
	}
	return jobID, traceID
}

// Get returns a copy of the job's current view. Expired jobs are evicted
// and reported as not found, matching the teacher's lazy-eviction style.
func (s *Store) Get(id string) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.jobs[id]
	if !ok {
		return View{}, false
	}
	if r.expired(time.Now()) {
		delete(s.jobs, id)
		return View{}, false
	}
	return r.view, true
}

// SetRunning transitions QUEUED -> RUNNING; a no-op once the job is terminal.
func (s *Store) SetRunning(id string) {
	s.mu.Lock()
	r, ok := s.jobs[id]
	if !ok || r.view.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	r.view.Status = StateRunning
	r.view.UpdatedAt = time.Now()
	s.mu.Unlock()
	s.publish(id)
}

// HeartbeatOpts carries the optional fields of a heartbeat call.
type HeartbeatOpts struct {
	Partial      []domain.Insight
	MetricsDelta Metrics
	Message      string
}

// Heartbeat replaces progress, and applies any optional partial results,
// metrics deltas, and log message. Ignored once the job is terminal.
func (s *Store) Heartbeat(id string, phase Phase, pct int, opts HeartbeatOpts) {
	s.mu.Lock()
	r, ok := s.jobs[id]
	if !ok || r.view.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	r.view.Progress = Progress{Phase: phase, Pct: pct}
	if opts.Partial != nil {
		r.view.PartialResults = opts.Partial
	}
	r.view.Metrics.NotesConsidered += opts.MetricsDelta.NotesConsidered
	r.view.Metrics.Clusters += opts.MetricsDelta.Clusters
	r.view.Metrics.LLMCalls += opts.MetricsDelta.LLMCalls
	r.view.Metrics.ElapsedMs += opts.MetricsDelta.ElapsedMs
	if opts.Message != "" {
		r.view.Log = opts.Message
	}
	r.view.UpdatedAt = time.Now()
	s.mu.Unlock()
	s.publish(id)
}

// Complete makes a once-only SUCCEEDED transition.
func (s *Store) Complete(id string, result Result) {
	s.mu.Lock()
	r, ok := s.jobs[id]
	if !ok || r.view.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	r.view.Status = StateSucceeded
	r.view.Result = &result
	r.view.UpdatedAt = time.Now()
	s.mu.Unlock()
	s.publish(id)
}

// Fail makes a once-only FAILED transition, recording {code, message}.
func (s *Store) Fail(id, code, message string) {
	s.mu.Lock()
	r, ok := s.jobs[id]
	if !ok || r.view.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	r.view.Status = StateFailed
	r.view.Error = &ErrorInfo{Code: code, Message: message}
	r.view.UpdatedAt = time.Now()
	s.mu.Unlock()
	s.publish(id)
}

// Cancel signals the in-flight runner and makes a once-only CANCELLED
// transition. Returns false if the job does not exist.
func (s *Store) Cancel(id string) bool {
	s.mu.Lock()
	r, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if !r.cancelled {
		r.cancelled = true
		close(r.cancelCh)
	}
	if !r.view.Status.Terminal() {
		r.view.Status = StateCancelled
		r.view.UpdatedAt = time.Now()
	}
	s.mu.Unlock()
	s.publish(id)
	return true
}

// IsCancelled reports whether cancel has been observed for id. A missing
// or expired job reads as cancelled, so runners exit rather than spin.
func (s *Store) IsCancelled(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.jobs[id]
	if !ok || r.expired(time.Now()) {
		return true
	}
	return r.cancelled
}

// EvictExpired removes every job whose TTL has elapsed.
func (s *Store) EvictExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.jobs {
		if r.expired(now) {
			delete(s.jobs, id)
		}
	}
}

// Events streams JSON snapshots of id's view, terminating once a terminal
// status has been emitted or the job is not found. The channel is closed
// when the stream ends. With no publisher configured it polls the store
// at eventPollInterval and equality-diffs against the last emission; with
// one configured (see SetPublisher) it relays snapshots as Publish calls
// arrive instead, so multiple processes sharing the same publisher can all
// serve the same job's events.
func (s *Store) Events(ctx context.Context, id string) <-chan []byte {
	if s.publisher != nil {
		return s.eventsViaPublisher(ctx, id)
	}
	return s.eventsViaPolling(ctx, id)
}

// eventsViaPublisher emits the current snapshot immediately, then relays
// every subsequent snapshot the publisher delivers, closing once a
// terminal status is observed.
func (s *Store) eventsViaPublisher(ctx context.Context, id string) <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)

		// Subscribe before taking the initial snapshot: any update
		// published after this point is guaranteed to be seen, even if it
		// lands between the snapshot read and the loop below starting.
		sub, unsubscribe := s.publisher.Subscribe(ctx, id)
		defer unsubscribe()

		view, ok := s.Get(id)
		if !ok {
			payload, _ := json.Marshal(map[string]string{"error": "not_found", "jobId": id})
			select {
			case out <- payload:
			case <-ctx.Done():
			}
			return
		}
		payload, _ := json.Marshal(view)
		select {
		case out <- payload:
		case <-ctx.Done():
			return
		}
		if view.Status.Terminal() {
			return
		}

		for msg := range sub {
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
			var v View
			if json.Unmarshal(msg, &v) == nil && v.Status.Terminal() {
				return
			}
		}
	}()
	return out
}

func (s *Store) eventsViaPolling(ctx context.Context, id string) <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		var last []byte
		ticker := time.NewTicker(eventPollInterval)
		defer ticker.Stop()

		emit := func() (done bool) {
			view, ok := s.Get(id)
			if !ok {
				payload, _ := json.Marshal(map[string]string{"error": "not_found", "jobId": id})
				select {
				case out <- payload:
				case <-ctx.Done():
				}
				return true
			}
			payload, _ := json.Marshal(view)
			if string(payload) != string(last) {
				last = payload
				select {
				case out <- payload:
				case <-ctx.Done():
					return true
				}
			}
			return view.Status.Terminal()
		}

		if emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if emit() {
					return
				}
			}
		}
	}()
	return out
}
