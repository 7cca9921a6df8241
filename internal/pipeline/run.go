// Package pipeline is the phase-machine orchestrator tying the vector
// index, LLM router, retrieval, chunking, ranking, synthesis, evolution
// and verifier components into one insight-generation run. Grounded on
// original_source/src/backend_pipeline.py's run_full_insight_pipeline,
// reshaped into the teacher's phase/heartbeat idiom via internal/jobs.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"synapse/internal/clustering"
	"synapse/internal/domain"
	"synapse/internal/evolution"
	"synapse/internal/jobs"
	"synapse/internal/logging"
	"synapse/internal/notestore"
	"synapse/internal/ranking"
	"synapse/internal/retrieval"
	"synapse/internal/synthesis"
	"synapse/internal/verifier"
)

const maxNotesLoaded = 1000
const retrievalTopK = 10
const verifiedScoreFloor = 0.85
const evolvedScoreMultiplier = 1.1

// Orchestrator runs one full insight-generation job end to end.
type Orchestrator struct {
	Store     notestore.Store
	Jobs      *jobs.Store
	Retriever *retrieval.Retriever
	Synthesis *synthesis.Synthesizer
	Ranker    *ranking.Ranker
	Evolver   *evolution.Evolver
	Verifier  *verifier.Verifier
}

func New(
	store notestore.Store,
	jobStore *jobs.Store,
	retriever *retrieval.Retriever,
	synth *synthesis.Synthesizer,
	ranker *ranking.Ranker,
	evolver *evolution.Evolver,
	verif *verifier.Verifier,
) *Orchestrator {
	return &Orchestrator{
		Store:     store,
		Jobs:      jobStore,
		Retriever: retriever,
		Synthesis: synth,
		Ranker:    ranker,
		Evolver:   evolver,
		Verifier:  verif,
	}
}

// Run executes the full phase machine for jobID against sourceNoteID,
// heartbeating progress as it goes and recording success or failure on
// the job store before returning. It never returns an error to its
// caller for expected fatal conditions; instead it calls Jobs.Fail or
// Jobs.Cancel and returns, so callers (typically launched as a
// goroutine per job) have nothing further to reconcile. An unexpected
// panic is recovered and reported as KindUnexpectedPanic.
func (o *Orchestrator) Run(ctx context.Context, jobID, sourceNoteID string) {
	defer func() {
		if r := recover(); r != nil {
			o.Jobs.Fail(jobID, string(KindUnexpectedPanic), fmt.Sprintf("%v", r))
		}
	}()

	o.Jobs.SetRunning(jobID)
	result, err := o.run(ctx, jobID, sourceNoteID)
	if err != nil {
		if perr, ok := err.(*Error); ok && perr.Kind == KindCancelled {
			o.Jobs.Cancel(jobID)
			return
		}
		kind := KindUnexpectedPanic
		if perr, ok := err.(*Error); ok {
			kind = perr.Kind
		}
		o.Jobs.Fail(jobID, string(kind), err.Error())
		return
	}
	o.Jobs.Complete(jobID, *result)
}

func (o *Orchestrator) checkCancelled(jobID string) error {
	if o.Jobs.IsCancelled(jobID) {
		return ErrCancelled
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, jobID, sourceNoteID string) (*jobs.Result, error) {
	notes, err := o.Store.GetNotes(ctx, maxNotesLoaded)
	if err != nil {
		return nil, newError(KindUnexpectedPanic, "loading notes: %v", err)
	}
	byID := make(map[string]domain.Note, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
	}

	o.Jobs.Heartbeat(jobID, jobs.PhaseCandidateSelection, 5, jobs.HeartbeatOpts{})
	if err := o.checkCancelled(jobID); err != nil {
		return nil, err
	}

	source, ok := byID[sourceNoteID]
	if !ok {
		return nil, newError(KindNotFound, "source note %q not found", sourceNoteID)
	}

	candidateIDs, err := o.Retriever.Retrieve(ctx, source, retrievalTopK)
	if err != nil {
		return nil, newError(KindUnexpectedPanic, "retrieval: %v", err)
	}
	if len(candidateIDs) == 0 {
		return nil, newError(KindNoCandidates, "no candidates retrieved for %q", sourceNoteID)
	}
	candidates := o.resolveNotes(ctx, byID, candidateIDs)
	clusterCount := o.clusterCandidates(ctx, candidates)
	o.Jobs.Heartbeat(jobID, jobs.PhaseCandidateSelection, 30, jobs.HeartbeatOpts{
		MetricsDelta: jobs.Metrics{NotesConsidered: len(candidates), Clusters: clusterCount},
	})
	if err := o.checkCancelled(jobID); err != nil {
		return nil, err
	}

	pairwise, err := o.Synthesis.Pairwise(ctx, source, candidates)
	if err != nil {
		return nil, newError(KindUnexpectedPanic, "pairwise synthesis: %v", err)
	}
	if len(pairwise) == 0 {
		return nil, newError(KindNoInsights, "no pairwise insights generated for %q", sourceNoteID)
	}
	o.Jobs.Heartbeat(jobID, jobs.PhaseInitialSynthesis, 50, jobs.HeartbeatOpts{Partial: topN(pairwise, 3)})
	if err := o.checkCancelled(jobID); err != nil {
		return nil, err
	}

	ranked := o.Ranker.Rank(ctx, pairwise)

	o.Jobs.Heartbeat(jobID, jobs.PhaseMultiHop, 55, jobs.HeartbeatOpts{})
	constellated, err := o.Synthesis.Constellation(ctx, o.Retriever, source, ranked)
	if err != nil {
		logging.Log.WithError(err).Warn("pipeline: constellation step failed, keeping pairwise ranking")
		constellated = ranked
	}
	o.Jobs.Heartbeat(jobID, jobs.PhaseMultiHop, 60, jobs.HeartbeatOpts{})
	if err := o.checkCancelled(jobID); err != nil {
		return nil, err
	}

	if len(constellated) > 0 {
		refined, err := o.Evolver.Refine(ctx, constellated[0].Title)
		if err != nil {
			logging.Log.WithError(err).Warn("pipeline: self-evolution failed open")
		} else if refined != constellated[0].Title {
			constellated[0].Title = refined
			constellated[0].Score *= evolvedScoreMultiplier
		}
	}
	o.Jobs.Heartbeat(jobID, jobs.PhaseAgentRefinement, 80, jobs.HeartbeatOpts{})
	if err := o.checkCancelled(jobID); err != nil {
		return nil, err
	}

	if len(constellated) > 0 && o.Verifier.Enabled() {
		o.applyVerification(ctx, source, &constellated[0])
	}

	o.Jobs.Heartbeat(jobID, jobs.PhaseFinalizing, 100, jobs.HeartbeatOpts{Partial: constellated})
	return &jobs.Result{Version: "v2", Insights: topN(constellated, 3)}, nil
}

// applyVerification checks the insight core and every hypothesis
// statement against the web; the first supported claim becomes the new
// insight core and its score is floored at verifiedScoreFloor.
func (o *Orchestrator) applyVerification(ctx context.Context, source domain.Note, ins *domain.Insight) {
	candidates := append([]string{ins.Title}, hypothesisStatements(ins.Hypotheses)...)
	for _, text := range candidates {
		v := o.Verifier.Verify(ctx, source.Title, text)
		if v.Verdict != "supported" {
			continue
		}
		ins.Title = text
		ins.Verification = &v
		ins.Score = math.Max(ins.Score, verifiedScoreFloor)
		return
	}
}

func hypothesisStatements(hs []domain.Hypothesis) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Statement)
	}
	return out
}

// resolveNotes maps candidate ids to domain.Note, falling back to a direct
// store lookup when a note fell outside the bounded maxNotesLoaded load
// (large note stores); lookup failures are skipped, not fatal.
func (o *Orchestrator) resolveNotes(ctx context.Context, byID map[string]domain.Note, ids []string) []domain.Note {
	out := make([]domain.Note, 0, len(ids))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			out = append(out, n)
			continue
		}
		n, _, err := o.Store.GetNote(ctx, id)
		if err != nil || n == nil {
			continue
		}
		out = append(out, *n)
	}
	return out
}

// clusterCandidates groups candidate notes by embedding similarity and
// reports how many clusters were actually populated, feeding the job's
// Metrics.Clusters counter. Grounded on
// original_source/src/eureka_rag/clusterer.py's cluster_chunks, applied to
// whole candidate notes rather than chunks. Embedding or clustering
// failures are non-fatal: the pipeline proceeds with a zero count.
func (o *Orchestrator) clusterCandidates(ctx context.Context, candidates []domain.Note) int {
	if len(candidates) == 0 {
		return 0
	}
	texts := make([]string, len(candidates))
	for i, n := range candidates {
		texts[i] = n.Title + "\n" + n.Content
	}
	vectors, err := o.Retriever.Router.Embed(ctx, "text-embedding-3-small", texts)
	if err != nil {
		logging.Log.WithError(err).Warn("pipeline: candidate clustering embed failed, skipping")
		return 0
	}
	vectors = nonEmptyVectors(vectors)
	if len(vectors) == 0 {
		return 0
	}
	labels := clustering.Cluster(vectors, clustering.DefaultK(len(vectors)))
	return clustering.CountClusters(labels)
}

func nonEmptyVectors(vectors [][]float32) [][]float32 {
	out := make([][]float32, 0, len(vectors))
	for _, v := range vectors {
		if len(v) > 0 {
			out = append(out, v)
		}
	}
	return out
}

func topN(insights []domain.Insight, n int) []domain.Insight {
	if len(insights) < n {
		n = len(insights)
	}
	return insights[:n]
}
