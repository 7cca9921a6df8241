package llmrouter

import "context"

// Message is the router's chat-style message shape, intentionally smaller
// than the teacher's llm.Message (manifold/internal/llm/provider.go) since
// this domain never needs tool calls, inline images, or thought-signature
// round-tripping — only plain chat completion, structured output, and
// embeddings.
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// Options adjusts a single Route call without changing the task->model
// mapping.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// StreamEvent is one element of the uniform token stream returned by
// Stream, matching spec.md's {token} / terminal {done,text} sequence.
type StreamEvent struct {
	Token string
	Done  bool
	Text  string // only set when Done
	Err   error
}

// provider is the internal SDK-facing contract. Each concrete provider
// (anthropic, openai, google, fake) implements it; Router never talks to an
// SDK directly.
type provider interface {
	name() string
	chat(ctx context.Context, model string, msgs []Message, opts Options) (chatResult, error)
}

type chatResult struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// embedder is implemented by providers capable of producing embeddings.
type embedder interface {
	embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// streamer is implemented by providers capable of native token streaming.
type streamer interface {
	stream(ctx context.Context, model string, msgs []Message, opts Options) (<-chan StreamEvent, error)
}
