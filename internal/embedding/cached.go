package embedding

import (
	"context"
	"math"

	"github.com/bierlingm/worldview-extractor/internal/domain"
	"go.uber.org/zap"
)

// CachedClient persists embeddings across processes. Lookups and writes go
// through cache; cache failures are logged and the inner client is used.
type CachedClient struct {
	inner  domain.BatchEmbeddingClient
	cache  domain.EmbeddingCache
	model  string
	logger *zap.Logger
}

func NewCachedClient(inner domain.BatchEmbeddingClient, cache domain.EmbeddingCache, logger *zap.Logger) *CachedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{
		inner:  inner,
		cache:  cache,
		model:  ModelName(inner),
		logger: logger,
	}
}

func (c *CachedClient) Name() string {
	return c.model
}

func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *CachedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	hits, err := c.cache.Get(ctx, c.model, texts)
	if err != nil {
		c.logger.Warn("embedding cache read failed", zap.String("model", c.model), zap.Error(err))
		hits = nil
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		if _, ok := hits[text]; ok {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		missing = append(missing, text)
	}

	fresh := make(map[string][]float32, len(missing))
	if len(missing) > 0 {
		vecs, err := c.inner.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		store := make(map[string][]float32, len(missing))
		for i, text := range missing {
			if i >= len(vecs) {
				break
			}
			fresh[text] = vecs[i]
			if storable(vecs[i]) {
				store[text] = vecs[i]
			}
		}
		if len(store) < len(fresh) {
			c.logger.Warn("provider returned unusable embeddings, not caching them",
				zap.String("model", c.model), zap.Int("skipped", len(fresh)-len(store)))
		}
		if len(store) > 0 {
			if err := c.cache.Put(ctx, c.model, store); err != nil {
				c.logger.Warn("embedding cache write failed", zap.String("model", c.model), zap.Error(err))
			}
		}
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := hits[text]; ok {
			out[i] = vec
		} else {
			out[i] = fresh[text]
		}
	}

	c.logger.Debug("embedded batch",
		zap.Int("texts", len(texts)),
		zap.Int("cache_hits", len(texts)-len(missing)),
	)
	return out, nil
}

// storable reports whether vec is worth persisting: non-empty and finite.
func storable(vec []float32) bool {
	if len(vec) == 0 {
		return false
	}
	for _, x := range vec {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
