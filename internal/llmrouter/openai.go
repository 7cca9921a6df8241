package llmrouter

import (
	"context"
	"encoding/json"
	"errors"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

var errNoChoices = errors.New("llmrouter: openai response contained no choices")

// openaiProvider is the "structured provider" SDK, used for native
// structured output (routeStructured's first degradation tier) and as a
// chat fallback. Grounded on manifold/internal/llm/openai/client.go's
// ChatCompletionNewParams / sdk.Chat.Completions.New call shape; the
// teacher's image-generation, responses-API, and Gemini-raw-HTTP branches
// are dropped since this domain only ever calls Chat Completions.
type openaiProvider struct {
	sdk sdk.Client
}

func newOpenAIProvider(apiKey string) *openaiProvider {
	return &openaiProvider{sdk: sdk.NewClient(option.WithAPIKey(apiKey))}
}

func (p *openaiProvider) name() string { return "openai" }

func (p *openaiProvider) chat(ctx context.Context, model string, msgs []Message, opts Options) (chatResult, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(model),
		Messages: adaptOpenAIMessages(msgs),
	}
	if opts.Temperature > 0 {
		params.Temperature = sdk.Float(opts.Temperature)
	}
	comp, err := p.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return chatResult{}, err
	}
	var content string
	if len(comp.Choices) > 0 {
		content = comp.Choices[0].Message.Content
	}
	return chatResult{
		Content:      content,
		InputTokens:  int(comp.Usage.PromptTokens),
		OutputTokens: int(comp.Usage.CompletionTokens),
	}, nil
}

// chatStructured asks for a JSON-schema-constrained completion, the native
// structured output tier of routeStructured.
func (p *openaiProvider) chatStructured(ctx context.Context, model string, msgs []Message, schemaName string, schema map[string]any) (string, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}
	var schemaAny any
	if err := json.Unmarshal(raw, &schemaAny); err != nil {
		return "", err
	}
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(model),
		Messages: adaptOpenAIMessages(msgs),
		ResponseFormat: sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: schemaAny,
					Strict: sdk.Bool(true),
				},
			},
		},
	}
	comp, err := p.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(comp.Choices) == 0 {
		return "", errNoChoices
	}
	return comp.Choices[0].Message.Content, nil
}

func (p *openaiProvider) embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	resp, err := p.sdk.Embeddings.New(ctx, sdk.EmbeddingNewParams{
		Model: sdk.EmbeddingModel(model),
		Input: sdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		out[i] = vec
	}
	return out, nil
}

func adaptOpenAIMessages(msgs []Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, sdk.SystemMessage(m.Content))
		case "assistant":
			out = append(out, sdk.AssistantMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}
