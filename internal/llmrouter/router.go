package llmrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"synapse/internal/logging"
)

// ErrBadOutput is returned by RouteJSON/RouteStructured when no attempt
// produces parseable output, matching spec.md's BadOutput error kind.
var ErrBadOutput = errors.New("llmrouter: response was not valid JSON")

// Router is a pure dispatch layer: given a task name it resolves a provider
// and model, normalizes the call, and records usage. It never holds
// conversation state.
type Router struct {
	preferredGateway   provider // e.g. anthropic, configured via ANTHROPIC_API_KEY
	structuredProvider *openaiProvider
	fallback           provider // e.g. google
	fake               fakeProvider

	modelOverrides map[string]string
	heavyOverrides map[string]bool

	usage *UsageCounter
}

// New builds a Router from resolved API keys. Any key left empty disables
// that provider; route/routeStructured/embed then fall through to the next
// configured option, and finally to the deterministic fake provider.
func New(anthropicKey, openAIKey, googleKey, clickhouseDSN string, modelOverrides map[string]string, heavyOverrides map[string]bool) *Router {
	r := &Router{
		modelOverrides: modelOverrides,
		heavyOverrides: heavyOverrides,
		usage:          NewUsageCounter(clickhouseDSN),
	}
	if anthropicKey != "" {
		r.preferredGateway = newAnthropicProvider(anthropicKey)
	}
	if openAIKey != "" {
		r.structuredProvider = newOpenAIProvider(openAIKey)
	}
	if googleKey != "" {
		if g, err := newGoogleProvider(context.Background(), googleKey); err == nil {
			r.fallback = g
		} else {
			logging.Log.WithError(err).Warn("llmrouter: google provider unavailable")
		}
	}
	return r
}

// Usage exposes the process-wide usage counter.
func (r *Router) Usage() *UsageCounter { return r.usage }

// resolutionOrder returns the providers to try, in order, for task. Heavy
// and distillation tasks skip the cheaper chain and go straight to the
// preferred gateway.
func (r *Router) resolutionOrder(task string) []provider {
	var order []provider
	if r.isHeavy(task) || r.isDistillation(task) {
		if r.preferredGateway != nil {
			order = append(order, r.preferredGateway)
		}
		order = append(order, r.fake)
		return order
	}
	if r.preferredGateway != nil {
		order = append(order, r.preferredGateway)
	}
	if r.structuredProvider != nil {
		order = append(order, r.structuredProvider)
	}
	if r.fallback != nil {
		order = append(order, r.fallback)
	}
	order = append(order, r.fake)
	return order
}

// Route normalizes chat-style messages to a single completion, trying
// providers in resolution order until one succeeds.
func (r *Router) Route(ctx context.Context, task string, msgs []Message, opts Options) (string, error) {
	model := r.modelFor(task)
	var lastErr error
	for _, p := range r.resolutionOrder(task) {
		start := time.Now()
		res, err := p.chat(ctx, model, msgs, opts)
		elapsed := time.Since(start)
		if err != nil {
			lastErr = err
			logging.Log.WithError(err).WithField("provider", p.name()).WithField("task", task).Warn("llmrouter: provider call failed, trying next")
			continue
		}
		r.usage.record(UsageRecord{
			Provider:       p.name(),
			Model:          model,
			InputTokensEst: res.InputTokens,
			OutputTokenEst: res.OutputTokens,
			WallTime:       elapsed,
		})
		return res.Content, nil
	}
	return "", fmt.Errorf("llmrouter: all providers failed for task %q: %w", task, lastErr)
}

// RouteJSON wraps Route, injecting a system instruction forbidding prose or
// code fences, and parses the result as JSON. On a parse failure it retries
// once with the fence-stripped text before giving up with ErrBadOutput.
func (r *Router) RouteJSON(ctx context.Context, task, prompt string, temperature float64) (map[string]any, error) {
	msgs := []Message{
		{Role: "system", Content: "Respond with a single JSON object only. No prose, no markdown, no code fences."},
		{Role: "user", Content: prompt},
	}
	raw, err := r.Route(ctx, task, msgs, Options{Temperature: temperature})
	if err != nil {
		return nil, err
	}
	if v, ok := tryParseJSON(raw); ok {
		return v, nil
	}
	cleaned := stripFences(raw)
	if v, ok := tryParseJSON(cleaned); ok {
		return v, nil
	}
	return nil, ErrBadOutput
}

// RouteStructured attempts native structured output against the OpenAI
// provider when configured; otherwise falls back to RouteJSON and performs
// a shallow required-key validation against schema.
func (r *Router) RouteStructured(ctx context.Context, task string, msgs []Message, schemaName string, schema map[string]any) (map[string]any, error) {
	if r.structuredProvider != nil {
		model := r.modelFor(task)
		start := time.Now()
		raw, err := r.structuredProvider.chatStructured(ctx, model, msgs, schemaName, schema)
		if err == nil {
			if v, ok := tryParseJSON(raw); ok {
				r.usage.record(UsageRecord{
					Provider: r.structuredProvider.name(), Model: model,
					InputTokensEst: estimateTokens(joinContents(msgs)), OutputTokenEst: estimateTokens(raw),
					WallTime: time.Since(start),
				})
				return v, nil
			}
		} else {
			logging.Log.WithError(err).Warn("llmrouter: native structured output unavailable, falling back to JSON mode")
		}
	}

	var prompt strings.Builder
	for _, m := range msgs {
		prompt.WriteString(m.Content)
		prompt.WriteString("\n")
	}
	v, err := r.RouteJSON(ctx, task, prompt.String(), 0)
	if err != nil {
		return nil, err
	}
	if err := validateRequiredKeys(v, schema); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOutput, err)
	}
	return v, nil
}

// Embed produces one vector per text. In fake/test mode (no provider
// configured) it returns a deterministic hash-derived vector of dimension
// 768; otherwise it delegates to the OpenAI embeddings endpoint.
func (r *Router) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if r.structuredProvider == nil {
		return r.fake.embed(ctx, model, texts)
	}
	out, err := r.structuredProvider.embed(ctx, model, texts)
	if err != nil {
		logging.Log.WithError(err).Warn("llmrouter: embedding provider failed, using deterministic fallback")
		return r.fake.embed(ctx, model, texts)
	}
	return out, nil
}

// Stream normalizes provider SSE to a uniform token stream. Providers in
// this router never expose native streaming, so it always synthesizes a
// simulated stream by chunking the non-streaming result, matching spec.md's
// "when no provider is configured" fallback path unconditionally.
func (r *Router) Stream(ctx context.Context, task string, msgs []Message) (<-chan StreamEvent, error) {
	out := make(chan StreamEvent)
	text, err := r.Route(ctx, task, msgs, Options{})
	if err != nil {
		return nil, err
	}
	go func() {
		defer close(out)
		const chunkSize = 12
		runes := []rune(text)
		for i := 0; i < len(runes); i += chunkSize {
			end := i + chunkSize
			if end > len(runes) {
				end = len(runes)
			}
			select {
			case out <- StreamEvent{Token: string(runes[i:end])}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case out <- StreamEvent{Done: true, Text: text}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

func tryParseJSON(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func validateRequiredKeys(v map[string]any, schema map[string]any) error {
	req, ok := schema["required"].([]string)
	if !ok {
		if reqAny, ok2 := schema["required"].([]any); ok2 {
			for _, r := range reqAny {
				if name, ok3 := r.(string); ok3 {
					if _, present := v[name]; !present {
						return fmt.Errorf("missing required field %q", name)
					}
				}
			}
		}
		return nil
	}
	for _, name := range req {
		if _, present := v[name]; !present {
			return fmt.Errorf("missing required field %q", name)
		}
	}
	return nil
}

func joinContents(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Content)
	}
	return b.String()
}
