package rag

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
)

// Embedder converts text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// LangchainEmbedder adapts a langchaingo embeddings.Embedder (OpenAI, Ollama,
// and friends) to the local interface.
type LangchainEmbedder struct {
	embedder embeddings.Embedder
}

// NewLangchainEmbedder wraps a langchaingo embedder.
func NewLangchainEmbedder(e embeddings.Embedder) *LangchainEmbedder {
	return &LangchainEmbedder{embedder: e}
}

// Embed embeds a single text.
func (l *LangchainEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return l.embedder.EmbedQuery(ctx, text)
}

// HashEmbedder is a deterministic, fully local embedder: tokens are hashed
// into a fixed number of buckets and the vector is L2-normalized. It needs
// no model or network and gives stable cosine similarities for keyword-heavy
// text, which makes it the offline default and the test embedder.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder creates a hash embedder with the given dimensionality.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{Dim: dim}
}

// Embed hashes lowercase tokens into buckets and normalizes.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.Dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:!?()[]{}\"'")
		if token == "" {
			continue
		}
		hasher := fnv.New32a()
		hasher.Write([]byte(token))
		vec[hasher.Sum32()%uint32(h.Dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

var (
	defaultEmbedderOnce sync.Once
	defaultEmbedder     Embedder
)

// DefaultEmbedder returns the process-wide embedder singleton, lazily
// initialized on first use and alive until process exit.
func DefaultEmbedder() Embedder {
	defaultEmbedderOnce.Do(func() {
		defaultEmbedder = NewHashEmbedder(256)
	})
	return defaultEmbedder
}
