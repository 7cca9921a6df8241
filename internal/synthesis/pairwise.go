package synthesis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"synapse/internal/domain"
	"synapse/internal/llmrouter"
	"synapse/internal/logging"
	"synapse/internal/notestore"
)

// Synthesizer runs pairwise fusion and multi-hop constellation synthesis.
type Synthesizer struct {
	Router *llmrouter.Router
	Store  notestore.Store
}

func New(router *llmrouter.Router, store notestore.Store) *Synthesizer {
	return &Synthesizer{Router: router, Store: store}
}

// Pairwise fuses source against every candidate note concurrently, keeping
// index-ordered results (fan-out grounded on the teacher's
// ParallelCandidates pattern,
// manifold/internal/rag/retrieve/candidates.go, generalized here with
// golang.org/x/sync/errgroup per the concurrency model). Results with
// mode=="none" are dropped; a candidate generation error is logged and
// dropped rather than failing the whole batch.
func (s *Synthesizer) Pairwise(ctx context.Context, source domain.Note, candidates []domain.Note) ([]domain.Insight, error) {
	results := make([]*domain.Insight, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			ins, err := s.generatePairwise(gctx, source, candidate)
			if err != nil {
				logging.Log.WithError(err).WithField("candidate", candidate.ID).Warn("synthesis: pairwise generation failed")
				return nil
			}
			if ins == nil {
				return nil
			}
			results[i] = ins
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Insight, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *Synthesizer) generatePairwise(ctx context.Context, source, candidate domain.Note) (*domain.Insight, error) {
	evidence := buildEvidence(source, candidate)
	msgs := []llmrouter.Message{
		{Role: "system", Content: "You find a surprising, falsifiable insight connecting two notes. If none exists, respond with mode \"none\"."},
		{Role: "user", Content: fmt.Sprintf("Source note: %s\nCandidate note: %s\n\nEvidence:\n%s", source.Title, candidate.Title, evidence)},
	}
	result, err := s.Router.RouteStructured(ctx, llmrouter.TaskGenerateInsight, msgs, "insight", insightSchema)
	if err != nil {
		return nil, err
	}
	ins, err := decodeInsight(result)
	if err != nil {
		return nil, err
	}
	if ins.Mode == "none" || ins.Mode == "" {
		return nil, nil
	}
	ins.ID = uuid.NewString()
	ins.CandidateNoteID = candidate.ID
	return &ins, nil
}
