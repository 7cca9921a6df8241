// Package domain holds the data model shared across the insight-generation
// pipeline: notes and chunks owned by the external store, and the insight
// artifacts the pipeline produces.
package domain

import "time"

// Note is owned by the external note store and immutable from the
// pipeline's perspective.
type Note struct {
	ID        string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk is a paragraph-sized segment of a Note's content.
type Chunk struct {
	ID        string
	NoteID    string
	Content   string
	Order     int
	CreatedAt time.Time
}

// Embedding is the 1:1 vector representation of a Chunk under a given model.
type Embedding struct {
	ID      string
	ChunkID string
	Model   string
	Vector  []float32
}

// EvidenceRef points an insight claim back to a specific chunk of a note.
type EvidenceRef struct {
	NoteID  string `json:"noteId"`
	ChildID string `json:"childId"`
	Quote   string `json:"quote"`
}

// Hypothesis is a falsifiable sub-claim of an Insight.
type Hypothesis struct {
	Name              string   `json:"name"`
	Statement         string   `json:"statement"`
	PredictedEvidence []string `json:"predictedEvidence"`
	Disconfirmers     []string `json:"disconfirmers"`
	Prior             float64  `json:"prior"`
	Posterior         float64  `json:"posterior"`
}

// EurekaMarkers quantifies the subjective qualities of an insight, each in [0,1].
type EurekaMarkers struct {
	SuddennessProxy float64 `json:"suddennessProxy"`
	Fluency         float64 `json:"fluency"`
	Conviction      float64 `json:"conviction"`
	PositiveAffect  float64 `json:"positiveAffect"`
}

// Verification is the verdict a Verifier attaches to an insight's core claim.
type Verification struct {
	Verdict   string   `json:"verdict"` // supported | uncertain | refuted
	Notes     string   `json:"notes"`
	Citations []string `json:"citations"`
}

// Insight is a structured synthetic artifact connecting two or more notes.
type Insight struct {
	ID                     string         `json:"id"`
	Mode                   string         `json:"mode"` // pairwise | constellation | none
	Title                  string         `json:"insightCore"`
	ReframedProblem        string         `json:"reframedProblem,omitempty"`
	SelectedHypothesisName string         `json:"selectedHypothesisName,omitempty"`
	Hypotheses             []Hypothesis   `json:"hypotheses,omitempty"`
	EurekaMarkers          EurekaMarkers  `json:"eurekaMarkers"`
	BayesianSurprise       float64        `json:"bayesianSurprise"`
	Score                  float64        `json:"score"`
	Snippet                string         `json:"snippet,omitempty"`
	EvidenceRefs           []EvidenceRef  `json:"evidenceRefs"`
	Test                   string         `json:"test,omitempty"`
	Risks                  []string       `json:"risks,omitempty"`
	AgenticTranscript      string         `json:"agenticTranscript,omitempty"`
	Verification           *Verification  `json:"verification,omitempty"`
	CandidateNoteID        string         `json:"candidateNoteId,omitempty"`
	ConstellationNoteIDs   []string       `json:"constellationNoteIds,omitempty"`
	CounterSeverity        float64        `json:"-"`
}

// Prescription is the plan handed to the orchestrator for a generation run.
type Prescription struct {
	Goal       string
	Mode       string // pairwise | fusion
	Retrieval  RetrievalPlan
	Verify     VerifyPlan
	Toggles    Toggles
	Budgets    Budgets
}

type RetrievalPlan struct {
	Strategy string
	TopK     int
}

type VerifyPlan struct {
	Enabled    bool
	MaxSites   int
	Iterations int
}

type Toggles struct {
	LLM bool
	Web bool
}

type Budgets struct {
	USD     float64
	Tokens  int
	TimeSec int
}
