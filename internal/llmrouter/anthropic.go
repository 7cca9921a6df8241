package llmrouter

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicProvider is the preferred gateway provider. Grounded on
// manifold/internal/llm/anthropic/client.go: the sdk.Messages.New call
// shape, system/messages split, and usage field extraction are kept;
// tool-calling, prompt-caching, and streaming-specific machinery are
// dropped since this domain never needs them for chat completion.
type anthropicProvider struct {
	sdk       anthropic.Client
	maxTokens int64
}

func newAnthropicProvider(apiKey string) *anthropicProvider {
	return &anthropicProvider{
		sdk:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		maxTokens: 4096,
	}
}

func (p *anthropicProvider) name() string { return "anthropic" }

func (p *anthropicProvider) chat(ctx context.Context, model string, msgs []Message, opts Options) (chatResult, error) {
	var system string
	messages := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			if system != "" {
				system += "\n"
			}
			system += m.Content
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := p.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = int64(opts.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.sdk.Messages.New(ctx, params)
	if err != nil {
		return chatResult{}, err
	}

	var text string
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}
	return chatResult{
		Content:      text,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}
