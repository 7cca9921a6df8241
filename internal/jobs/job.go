// Package jobs implements the in-memory, TTL-bounded job store that backs
// insight-generation runs: state machine, heartbeat progress, cooperative
// cancellation and SSE snapshot streaming. Grounded on the teacher's
// internal/a2a/sse.SSEWriter for the event-framing discipline, generalized
// from JSON-RPC envelopes to job-view snapshots.
package jobs

import (
	"time"

	"synapse/internal/domain"
)

// State is a job's position in QUEUED -> RUNNING -> {SUCCEEDED|FAILED|CANCELLED}.
type State string

const (
	StateQueued    State = "QUEUED"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Phase names the orchestrator's phase machine, in ascending order.
type Phase string

const (
	PhaseCandidateSelection Phase = "candidate_selection"
	PhaseInitialSynthesis   Phase = "initial_synthesis"
	PhaseMultiHop           Phase = "multi_hop"
	PhaseAgentRefinement    Phase = "agent_refinement"
	PhaseFinalizing         Phase = "finalizing"
)

// phaseOrder gives each phase a monotonic index, used only to assert the
// "phase index is non-decreasing" testable property; it is not exposed.
var phaseOrder = map[Phase]int{
	PhaseCandidateSelection: 0,
	PhaseInitialSynthesis:   1,
	PhaseMultiHop:           2,
	PhaseAgentRefinement:    3,
	PhaseFinalizing:         4,
}

// Progress is the current phase and percent-complete of a job.
type Progress struct {
	Phase Phase `json:"phase"`
	Pct   int   `json:"pct"`
}

// Metrics accumulates integer counters across a job's lifetime.
type Metrics struct {
	NotesConsidered int `json:"notesConsidered"`
	Clusters        int `json:"clusters"`
	LLMCalls        int `json:"llmCalls"`
	ElapsedMs       int `json:"elapsedMs"`
}

// Result is the terminal payload of a successful job.
type Result struct {
	Version  string           `json:"version"`
	Insights []domain.Insight `json:"insights"`
}

// ErrorInfo carries the structured {code, message} shape of a failed job.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// View is the externally visible snapshot of a job, exactly the payload
// returned by GET /jobs/{id} and emitted over SSE.
type View struct {
	JobID          string           `json:"jobId"`
	Status         State            `json:"status"`
	Progress       Progress         `json:"progress"`
	StartedAt      time.Time        `json:"startedAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	Metrics        Metrics          `json:"metrics"`
	PartialResults []domain.Insight `json:"partialResults,omitempty"`
	Result         *Result          `json:"result,omitempty"`
	Error          *ErrorInfo       `json:"error,omitempty"`
	TraceID        string           `json:"traceId"`
	Log            string           `json:"log,omitempty"`
}
