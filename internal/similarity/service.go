// Package similarity wraps a text-embedding model: it embeds text, compares
// vectors and ranks candidate texts against a query.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/bierlingm/worldview-extractor/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrModelUnavailable = errors.New("embedding model unavailable")
	ErrInvalidEmbedding = errors.New("invalid embedding")
)

// Loader builds the embedding client. It is called lazily, on first use,
// and at most once successfully per Service.
type Loader func(ctx context.Context) (domain.EmbeddingClient, error)

// Ranked is one candidate's position in a similarity ranking.
type Ranked struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Ranker orders candidate texts by similarity to a query, best first.
type Ranker interface {
	RankBySimilarity(ctx context.Context, query string, candidates []string) ([]Ranked, error)
}

type loadedClient struct {
	client domain.EmbeddingClient
}

// Service is the shared similarity capability. Construct one per process
// and pass it to the comparator and synthesizer.
type Service struct {
	load   Loader
	group  singleflight.Group
	loaded atomic.Pointer[loadedClient]
	logger *zap.Logger
}

var _ Ranker = (*Service)(nil)

func NewService(load Loader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{load: load, logger: logger}
}

// NewServiceWithClient returns a Service around an already-built client.
func NewServiceWithClient(c domain.EmbeddingClient, logger *zap.Logger) *Service {
	return NewService(func(context.Context) (domain.EmbeddingClient, error) {
		return c, nil
	}, logger)
}

// Loaded reports whether the model has been initialized.
func (s *Service) Loaded() bool {
	return s.loaded.Load() != nil
}

func (s *Service) client(ctx context.Context) (domain.EmbeddingClient, error) {
	if lc := s.loaded.Load(); lc != nil {
		return lc.client, nil
	}
	if s.load == nil {
		return nil, ErrModelUnavailable
	}

	// Concurrent first callers share a single load. A failed load is not
	// remembered, so the next call tries again.
	v, err, _ := s.group.Do("model", func() (any, error) {
		if lc := s.loaded.Load(); lc != nil {
			return lc, nil
		}
		c, err := s.load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		if c == nil {
			return nil, ErrModelUnavailable
		}
		lc := &loadedClient{client: c}
		s.loaded.Store(lc)
		s.logger.Info("embedding model loaded")
		return lc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*loadedClient).client, nil
}

// Embed returns the embedding of text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	vec, err := c.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if err := checkVector(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch returns one embedding per input text, in input order. All
// vectors share one dimensionality.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	var vecs [][]float32
	if bc, ok := c.(domain.BatchEmbeddingClient); ok {
		vecs, err = bc.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch: %w", err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrInvalidEmbedding, len(vecs), len(texts))
		}
	} else {
		vecs = make([][]float32, len(texts))
		for i, text := range texts {
			vecs[i], err = c.Embed(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("embed text %d: %w", i, err)
			}
		}
	}

	for i, vec := range vecs {
		if err := checkVector(vec); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		if len(vec) != len(vecs[0]) {
			return nil, fmt.Errorf("%w: dimension %d, expected %d", ErrInvalidEmbedding, len(vec), len(vecs[0]))
		}
	}
	return vecs, nil
}

// RankBySimilarity embeds query and candidates and ranks the candidates by
// cosine similarity, highest first, ties by ascending index. An empty
// candidate list returns an empty ranking without touching the model.
func (s *Service) RankBySimilarity(ctx context.Context, query string, candidates []string) ([]Ranked, error) {
	if len(candidates) == 0 {
		return []Ranked{}, nil
	}
	q, err := s.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	vecs, err := s.EmbedBatch(ctx, candidates)
	if err != nil {
		return nil, err
	}
	return rank(q, vecs)
}

// checkVector rejects output no comparison can be defined on.
func checkVector(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", ErrInvalidEmbedding)
	}
	for i, x := range vec {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at %d", ErrInvalidEmbedding, i)
		}
	}
	return nil
}
