package synthesis

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"synapse/internal/domain"
	"synapse/internal/llmrouter"
	"synapse/internal/logging"
	"synapse/internal/retrieval"
)

const maxBridgeCandidates = 2

// Constellation performs multi-hop synthesis: taking the top-ranked
// pairwise insight's partner note A, it retrieves up to two bridge
// candidates B (excluding source and A), generates a three-way
// "constellation" insight for each, and keeps the highest-confidence one.
// If that confidence exceeds the current top insight's, it is prepended
// and the list truncated to 3. Grounded on
// original_source/src/backend_pipeline.py's find_bridging_insight /
// generate_constellation_insight.
func (s *Synthesizer) Constellation(ctx context.Context, retriever *retrieval.Retriever, source domain.Note, pairwise []domain.Insight) ([]domain.Insight, error) {
	if len(pairwise) == 0 {
		return pairwise, nil
	}
	top := pairwise[0]
	if top.CandidateNoteID == "" {
		return pairwise, nil
	}
	noteA, _, err := s.Store.GetNote(ctx, top.CandidateNoteID)
	if err != nil {
		return pairwise, nil
	}

	bridgeIDs, err := retriever.Retrieve(ctx, *noteA, maxBridgeCandidates+1)
	if err != nil {
		logging.Log.WithError(err).Warn("synthesis: bridge retrieval failed")
		return pairwise, nil
	}

	var best *domain.Insight
	count := 0
	for _, bid := range bridgeIDs {
		if bid == source.ID || bid == noteA.ID || count >= maxBridgeCandidates {
			continue
		}
		count++
		noteB, _, err := s.Store.GetNote(ctx, bid)
		if err != nil {
			continue
		}
		ins, err := s.generateConstellation(ctx, source, *noteA, *noteB)
		if err != nil {
			logging.Log.WithError(err).WithField("bridge", bid).Warn("synthesis: constellation generation failed")
			continue
		}
		if ins == nil {
			continue
		}
		if best == nil || ins.EurekaMarkers.Conviction > best.EurekaMarkers.Conviction {
			best = ins
		}
	}

	if best == nil || best.EurekaMarkers.Conviction <= top.EurekaMarkers.Conviction {
		return pairwise, nil
	}
	merged := append([]domain.Insight{*best}, pairwise...)
	if len(merged) > 3 {
		merged = merged[:3]
	}
	return merged, nil
}

func (s *Synthesizer) generateConstellation(ctx context.Context, source, a, b domain.Note) (*domain.Insight, error) {
	evidence := buildEvidence(source, a, b)
	msgs := []llmrouter.Message{
		{Role: "system", Content: "You find a surprising, falsifiable insight bridging three notes. If none exists, respond with mode \"none\"."},
		{Role: "user", Content: fmt.Sprintf("Source note: %s\nBridge note A: %s\nBridge note B: %s\n\nEvidence:\n%s", source.Title, a.Title, b.Title, evidence)},
	}
	result, err := s.Router.RouteStructured(ctx, llmrouter.TaskConstellation, msgs, "insight", insightSchema)
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
	ins.ConstellationNoteIDs = []string{source.ID, a.ID, b.ID}
	return &ins, nil
}
