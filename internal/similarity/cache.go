package similarity

import (
	"context"
	"sync"
)

// ThemeCache ranks against embeddings computed up front, so a text shared
// by many comparisons is embedded once. Texts missing from the cache are
// embedded through the Service on demand and kept.
type ThemeCache struct {
	svc     *Service
	mu      sync.RWMutex
	vectors map[string][]float32
}

var _ Ranker = (*ThemeCache)(nil)

// NewThemeCache embeds the distinct texts in one batch. On failure the
// returned cache is empty but usable, and the error is returned alongside
// it for the caller to log.
func (s *Service) NewThemeCache(ctx context.Context, texts []string) (*ThemeCache, error) {
	c := &ThemeCache{svc: s, vectors: make(map[string][]float32)}
	if err := c.fill(ctx, texts); err != nil {
		return c, err
	}
	return c, nil
}

// Len returns the number of cached texts.
func (c *ThemeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

func (c *ThemeCache) RankBySimilarity(ctx context.Context, query string, candidates []string) ([]Ranked, error) {
	if len(candidates) == 0 {
		return []Ranked{}, nil
	}
	if err := c.fill(ctx, append([]string{query}, candidates...)); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	vecs := make([][]float32, len(candidates))
	for i, text := range candidates {
		vecs[i] = c.vectors[text]
	}
	return rank(c.vectors[query], vecs)
}

// fill embeds whichever of texts are not cached yet.
func (c *ThemeCache) fill(ctx context.Context, texts []string) error {
	c.mu.RLock()
	seen := make(map[string]struct{}, len(texts))
	var missing []string
	for _, t := range texts {
		if _, ok := c.vectors[t]; ok {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		missing = append(missing, t)
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return nil
	}
	vecs, err := c.svc.EmbedBatch(ctx, missing)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range missing {
		c.vectors[t] = vecs[i]
	}
	return nil
}
