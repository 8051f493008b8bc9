package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bierlingm/worldview-extractor/internal/comparison"
	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/bierlingm/worldview-extractor/internal/synthesis"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrNoWorldviews = errors.New("at least one worldview is required")

// maxConcurrentLoads bounds parallel store reads for one request.
const maxConcurrentLoads = 8

// AnalysisService runs comparisons over stored worldviews addressed by slug.
type AnalysisService struct {
	worldviews  *WorldviewService
	comparator  *comparison.Comparator
	synthesizer *synthesis.Synthesizer
	logger      *zap.Logger
}

func NewAnalysisService(worldviews *WorldviewService, comparator *comparison.Comparator, synthesizer *synthesis.Synthesizer, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		worldviews:  worldviews,
		comparator:  comparator,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// Diff compares the worldview stored under slugA with the one under slugB.
func (s *AnalysisService) Diff(ctx context.Context, slugA, slugB string) (*domain.WorldviewDiff, error) {
	ws, err := s.load(ctx, []string{slugA, slugB})
	if err != nil {
		return nil, err
	}
	return s.comparator.Compare(ctx, &ws[0], &ws[1]), nil
}

// Blindspots finds the themes others address that target does not. With no
// others, every other stored worldview is used.
func (s *AnalysisService) Blindspots(ctx context.Context, target string, others []string) ([]domain.Blindspot, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrSlugRequired
	}

	if len(others) == 0 {
		metas, err := s.worldviews.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range metas {
			if m.Slug != target {
				others = append(others, m.Slug)
			}
		}
	}

	ws, err := s.load(ctx, append([]string{target}, others...))
	if err != nil {
		return nil, err
	}
	return comparison.FindBlindspots(&ws[0], ws[1:]), nil
}

// Movement synthesizes the worldviews stored under slugs, in slug order.
func (s *AnalysisService) Movement(ctx context.Context, slugs []string, title string) (*domain.Movement, error) {
	if len(slugs) == 0 {
		return nil, ErrNoWorldviews
	}
	ws, err := s.load(ctx, slugs)
	if err != nil {
		return nil, err
	}
	return s.synthesizer.GenerateMovement(ctx, ws, title), nil
}

// load fetches worldviews concurrently and returns them in slug order.
// The first failure cancels the remaining reads.
func (s *AnalysisService) load(ctx context.Context, slugs []string) ([]domain.Worldview, error) {
	for _, slug := range slugs {
		if strings.TrimSpace(slug) == "" {
			return nil, ErrSlugRequired
		}
	}

	out := make([]domain.Worldview, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, slug := range slugs {
		g.Go(func() error {
			w, err := s.worldviews.Get(gctx, slug)
			if err != nil {
				return err
			}
			out[i] = *w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("worldviews loaded", zap.Strings("slugs", slugs))
	return out, nil
}
