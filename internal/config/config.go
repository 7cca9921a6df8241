// Package config loads runtime configuration from environment variables
// (optionally from a .env file), following the teacher's pattern of
// explicit os.Getenv reads with post-hoc defaults rather than a
// reflection-based binder (manifold/internal/config/loader.go).
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the fully resolved runtime configuration for the process.
type Config struct {
	DatabaseURL          string
	VectorIndexPath      string
	VectorIDMappingPath  string
	DataDir              string
	VectorBackend        string // "memory" | "qdrant"
	QdrantDSN            string
	QdrantCollection     string
	EmbeddingDim         int

	LLMDefaultProvider string
	LLMHeavyTasks      map[string]bool
	LLMModelOverrides  map[string]string

	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string

	SerpAPIKey string

	ClickHouseDSN string

	EmbeddingsFake bool

	HTTPAddr string

	LogPath  string
	LogLevel string

	OTLPEndpoint string

	JobEventsBackend string // "memory" | "redis"
	RedisDSN         string
}

const defaultEmbeddingDim = 768

// Load reads configuration from the environment. godotenv.Overload lets a
// local .env deterministically control development runs, matching the
// teacher's Load().
func Load() Config {
	_ = godotenv.Overload()

	cfg := Config{
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		VectorIndexPath:     firstNonEmpty(os.Getenv("VECTOR_INDEX_PATH"), "./data/vector_index.bin"),
		VectorIDMappingPath: firstNonEmpty(os.Getenv("VECTOR_ID_MAPPING_PATH"), "./data/vector_ids.json"),
		DataDir:             firstNonEmpty(os.Getenv("SYNAPSE_DATA_DIR"), "./data"),
		VectorBackend:       strings.ToLower(firstNonEmpty(os.Getenv("VECTOR_BACKEND"), "memory")),
		QdrantDSN:           os.Getenv("QDRANT_DSN"),
		QdrantCollection:    firstNonEmpty(os.Getenv("QDRANT_COLLECTION"), "synapse_chunks"),
		EmbeddingDim:        defaultEmbeddingDim,

		LLMDefaultProvider: strings.ToLower(strings.TrimSpace(os.Getenv("LLM_DEFAULT_PROVIDER"))),
		LLMHeavyTasks:      parseCSVSet(os.Getenv("LLM_HEAVY_TASKS")),
		LLMModelOverrides:  parseTaskModelOverrides(),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),

		SerpAPIKey: os.Getenv("SERPAPI_API_KEY"),

		ClickHouseDSN: os.Getenv("CLICKHOUSE_DSN"),

		EmbeddingsFake: isTruthy(os.Getenv("EMBEDDINGS_FAKE")),

		HTTPAddr: firstNonEmpty(os.Getenv("HTTP_ADDR"), ":8080"),

		LogPath:  firstNonEmpty(os.Getenv("LOG_PATH"), "synapse.log"),
		LogLevel: firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		JobEventsBackend: strings.ToLower(firstNonEmpty(os.Getenv("JOB_EVENTS_BACKEND"), "memory")),
		RedisDSN:         os.Getenv("REDIS_DSN"),
	}
	if v := os.Getenv("EMBEDDING_DIM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EmbeddingDim = n
		}
	}
	return cfg
}

// parseTaskModelOverrides reads every LLM_MODEL_<TASK> variable present in
// the environment into a task-name -> model map. Task names are
// lower-cased to match the router's internal task keys.
func parseTaskModelOverrides() map[string]string {
	out := map[string]string{}
	const prefix = "LLM_MODEL_"
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		k, v := parts[0], parts[1]
		if !strings.HasPrefix(k, prefix) || v == "" {
			continue
		}
		task := strings.ToLower(strings.TrimPrefix(k, prefix))
		out[task] = v
	}
	return out
}

func parseCSVSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out[part] = true
		}
	}
	return out
}

func isTruthy(s string) bool {
	s = strings.TrimSpace(s)
	return s == "1" || strings.EqualFold(s, "true") || strings.EqualFold(s, "yes")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
