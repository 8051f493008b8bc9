package domain

import (
	"context"
)

type WorldviewStore interface {
	Upsert(ctx context.Context, w *Worldview) error
	GetBySlug(ctx context.Context, slug string) (*Worldview, error)
	List(ctx context.Context) ([]WorldviewMeta, error)
	Search(ctx context.Context, query string) ([]WorldviewMeta, error)
	Delete(ctx context.Context, slug string) error
}

// EmbeddingClient turns text into a fixed-size vector.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbeddingClient is implemented by providers that can embed several
// texts in one call. Order of the result matches the input.
type BatchEmbeddingClient interface {
	EmbeddingClient
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingCache persists embeddings keyed by model and text.
type EmbeddingCache interface {
	Get(ctx context.Context, model string, texts []string) (map[string][]float32, error)
	Put(ctx context.Context, model string, entries map[string][]float32) error
}
