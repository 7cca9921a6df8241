// Command synapsed runs the insight-generation HTTP service: it wires
// configuration, logging, the notes store, vector index, LLM router, and
// the retrieval/synthesis/ranking/evolution/verifier pipeline behind the
// job and pipeline-trigger HTTP surface. Grounded on the teacher's
// main.go/initialize.go composition-root style.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"synapse/internal/config"
	"synapse/internal/evolution"
	"synapse/internal/httpapi"
	"synapse/internal/jobs"
	"synapse/internal/llmrouter"
	"synapse/internal/logging"
	"synapse/internal/notestore"
	"synapse/internal/pipeline"
	"synapse/internal/ranking"
	"synapse/internal/retrieval"
	"synapse/internal/synthesis"
	"synapse/internal/telemetry"
	"synapse/internal/vectorindex"
	"synapse/internal/verifier"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogPath, cfg.LogLevel)

	shutdownTelemetry, err := telemetry.Init(context.Background(), "synapsed", cfg.OTLPEndpoint)
	if err != nil {
		logging.Log.WithError(err).Fatal("synapsed: failed to initialize telemetry")
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	router := llmrouter.New(
		cfg.AnthropicAPIKey,
		cfg.OpenAIAPIKey,
		cfg.GoogleAPIKey,
		cfg.ClickHouseDSN,
		cfg.LLMModelOverrides,
		cfg.LLMHeavyTasks,
	)

	index, err := newVectorIndex(cfg)
	if err != nil {
		logging.Log.WithError(err).Fatal("synapsed: failed to initialize vector index")
	}

	store := notestore.NewMemory()

	jobStore := jobs.NewStore()
	if cfg.JobEventsBackend == "redis" {
		pub, err := jobs.NewRedisPublisher(cfg.RedisDSN)
		if err != nil {
			logging.Log.WithError(err).Fatal("synapsed: failed to initialize redis job event publisher")
		}
		jobStore.SetPublisher(pub)
	}

	retriever := retrieval.New(store, index, router)
	synth := synthesis.New(router, store)
	ranker := ranking.New(router)
	evolver := evolution.New(router)
	verif := verifier.New(cfg.SerpAPIKey, 0)

	orch := pipeline.New(store, jobStore, retriever, synth, ranker, evolver, verif)
	server := httpapi.NewServer(jobStore, store, orch)

	logging.Log.WithField("addr", cfg.HTTPAddr).Info("synapsed: listening")
	if err := http.ListenAndServe(cfg.HTTPAddr, server); err != nil {
		logging.Log.WithError(err).Fatal("synapsed: server exited")
	}
}

// newVectorIndex selects the in-process flat index or the Qdrant-backed
// store per VECTOR_BACKEND, matching spec.md §4.1's C15 extension point.
func newVectorIndex(cfg config.Config) (vectorindex.Store, error) {
	if cfg.VectorBackend == "qdrant" {
		return vectorindex.NewQdrant(cfg.QdrantDSN, cfg.QdrantCollection, cfg.EmbeddingDim)
	}
	ix := vectorindex.New(cfg.EmbeddingDim, cfg.VectorIndexPath, cfg.VectorIDMappingPath)
	if err := ix.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Log.WithError(err).Warn("synapsed: vector index load failed, starting empty")
	}
	return ix, nil
}
