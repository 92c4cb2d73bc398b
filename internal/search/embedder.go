package search

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/veridoc/veridoc/internal/cache"
)

// Embedder converts free text into a vector representation
type Embedder interface {
	// Model names the embedding model, used for cache keying
	Model() string

	// Embed returns the embedding of one text
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder produces embeddings through an OpenAI-compatible endpoint
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates a new embedder
func NewOpenAIEmbedder(apiKey, baseURL, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Model names the embedding model
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Embed returns the embedding of one text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

// CachedEmbedder wraps an Embedder with a cache. Embeddings are a pure
// function of (model, text), so reuse across runs is safe; verdicts and
// evidence never are.
type CachedEmbedder struct {
	inner Embedder
	cache cache.Cache
}

// NewCachedEmbedder creates a caching wrapper around an embedder
func NewCachedEmbedder(inner Embedder, c cache.Cache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c}
}

// Model names the wrapped embedding model
func (e *CachedEmbedder) Model() string {
	return e.inner.Model()
}

// Embed returns the cached embedding when present, otherwise delegates
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingKey(e.inner.Model(), text)
	if data, found := e.cache.Get(key); found {
		if vec := cache.DecodeVector(data); vec != nil {
			return vec, nil
		}
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	_ = e.cache.Set(key, cache.EncodeVector(vec), 0)
	return vec, nil
}
