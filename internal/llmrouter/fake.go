package llmrouter

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// fakeDim is the dimensionality of deterministic embeddings, matching
// spec.md's "dimension 768" requirement for test/offline mode.
const fakeDim = 768

// fakeProvider is a no-SDK provider: the last entry of every chat
// resolution order, and the embedding path whenever no OpenAI key is
// configured. The router does not read EMBEDDINGS_FAKE, so with an OpenAI
// key set, embeddings come from the OpenAI endpoint whatever that variable
// says (the fake is then used only if that call fails). Its embedding path is grounded on the
// teacher's deterministicEmbedder
// (manifold/internal/rag/embedder/embedder.go), adapted from 3-gram
// byte-hashing + L2-normalize to 3-gram hashing + mean-centering, per the
// spec's "mean-centered" requirement rather than unit-norm.
type fakeProvider struct{}

func (fakeProvider) name() string { return "fake" }

func (fakeProvider) chat(_ context.Context, model string, msgs []Message, _ Options) (chatResult, error) {
	var b strings.Builder
	for _, m := range msgs {
		if m.Role == "user" {
			b.WriteString(m.Content)
			b.WriteString(" ")
		}
	}
	echoed := strings.TrimSpace(b.String())
	content := fmt.Sprintf("[fake:%s] %s", model, echoed)
	return chatResult{
		Content:      content,
		InputTokens:  estimateTokens(echoed),
		OutputTokens: estimateTokens(content),
	}, nil
}

func (fakeProvider) embed(_ context.Context, _ string, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashEmbed(t)
	}
	return out, nil
}

func hashEmbed(s string) []float32 {
	v := make([]float32, fakeDim)
	b := []byte(s)
	if len(b) < 3 {
		accumulateGram(b, v)
	} else {
		for i := 0; i <= len(b)-3; i++ {
			accumulateGram(b[i:i+3], v)
		}
	}
	var mean float64
	for _, x := range v {
		mean += float64(x)
	}
	mean /= float64(len(v))
	for i := range v {
		v[i] -= float32(mean)
	}
	return v
}

func accumulateGram(gram []byte, v []float32) {
	h := fnv.New64a()
	_, _ = h.Write(gram)
	hv := h.Sum64()
	idx := int(hv % uint64(len(v)))
	w := float32(int32(hv>>32)) / float32(1<<31)
	v[idx] += w
}

func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}
