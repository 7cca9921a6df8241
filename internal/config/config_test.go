package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearSynapseEnv(t)
	cfg := Load()
	require.Equal(t, "memory", cfg.VectorBackend)
	require.Equal(t, defaultEmbeddingDim, cfg.EmbeddingDim)
	require.False(t, cfg.EmbeddingsFake)
	require.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoad_TaskModelOverridesAndHeavyTasks(t *testing.T) {
	clearSynapseEnv(t)
	t.Setenv("LLM_MODEL_GENERATEINSIGHT", "gpt-5-insight")
	t.Setenv("LLM_HEAVY_TASKS", "generateInsight, constellation")
	t.Setenv("EMBEDDINGS_FAKE", "1")

	cfg := Load()
	require.Equal(t, "gpt-5-insight", cfg.LLMModelOverrides["generateinsight"])
	require.True(t, cfg.LLMHeavyTasks["generateinsight"])
	require.True(t, cfg.LLMHeavyTasks["constellation"])
	require.True(t, cfg.EmbeddingsFake)
}

func clearSynapseEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "VECTOR_INDEX_PATH", "VECTOR_ID_MAPPING_PATH", "SYNAPSE_DATA_DIR",
		"VECTOR_BACKEND", "QDRANT_DSN", "EMBEDDING_DIM", "LLM_DEFAULT_PROVIDER",
		"LLM_HEAVY_TASKS", "EMBEDDINGS_FAKE", "HTTP_ADDR",
	} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		if had {
			t.Cleanup(func() { os.Setenv(k, old) })
		}
	}
}
