package llmrouter

import (
	"context"

	"google.golang.org/genai"
)

// googleProvider is the fallback lightweight provider. Grounded on
// manifold/internal/llm/google/client.go's genai.NewClient /
// client.Models.GenerateContent call shape; the teacher's tool-adaptation
// and thought-signature handling are dropped since this domain only needs
// plain chat completion.
type googleProvider struct {
	client *genai.Client
}

func newGoogleProvider(ctx context.Context, apiKey string) (*googleProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &googleProvider{client: client}, nil
}

func (p *googleProvider) name() string { return "google" }

func (p *googleProvider) chat(ctx context.Context, model string, msgs []Message, opts Options) (chatResult, error) {
	contents, system := toGenaiContents(msgs)
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if opts.Temperature > 0 {
		t := float32(opts.Temperature)
		cfg.Temperature = &t
	}
	resp, err := p.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return chatResult{}, err
	}
	result := chatResult{Content: resp.Text()}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

func toGenaiContents(msgs []Message) ([]*genai.Content, string) {
	var system string
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			if system != "" {
				system += "\n"
			}
			system += m.Content
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, system
}
