// Package comparison relates worldviews to one another: pairwise diffs and
// blindspot detection.
package comparison

import (
	"context"
	"slices"

	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/bierlingm/worldview-extractor/internal/similarity"
	"go.uber.org/zap"
)

// SimilarityThreshold is the minimum top-ranked score for a semantic theme match.
const SimilarityThreshold = 0.7

// Comparator matches the points of one worldview against another. Matching
// is semantic first, falling back to normalized exact theme equality when
// the ranker fails or nothing clears the threshold.
type Comparator struct {
	ranker     similarity.Ranker
	classifier StanceClassifier
	logger     *zap.Logger
}

// NewComparator returns a Comparator using ranker for semantic matching. A
// nil ranker restricts matching to the lexical path.
func NewComparator(ranker similarity.Ranker, logger *zap.Logger) *Comparator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Comparator{
		ranker:     ranker,
		classifier: NegationClassifier{},
		logger:     logger,
	}
}

func (c *Comparator) SetClassifier(sc StanceClassifier) {
	c.classifier = sc
}

// Ranker returns the ranker used for semantic matching, nil when matching
// is lexical only.
func (c *Comparator) Ranker() similarity.Ranker {
	return c.ranker
}

// WithRanker returns a copy of c that ranks with r.
func (c *Comparator) WithRanker(r similarity.Ranker) *Comparator {
	cp := *c
	cp.ranker = r
	return &cp
}

// Compare diffs a against b. It always returns a complete diff; similarity
// failures only lower match quality.
func (c *Comparator) Compare(ctx context.Context, a, b *domain.Worldview) *domain.WorldviewDiff {
	diff := &domain.WorldviewDiff{
		SubjectA:   a.Subject,
		SubjectB:   b.Subject,
		Agreements: []domain.PointComparison{},
		Tensions:   []domain.PointComparison{},
		UniqueToA:  []domain.Point{},
		UniqueToB:  []domain.Point{},
	}

	bThemes := b.Themes()
	matched := make(map[int]struct{})

	for _, pa := range a.Points {
		idx, ok := c.match(ctx, pa.Theme, bThemes)
		if !ok {
			diff.UniqueToA = append(diff.UniqueToA, clonePoint(pa))
			continue
		}
		// Two points of A may match the same point of B; it is recorded once.
		matched[idx] = struct{}{}
		pb := b.Points[idx]

		cmp := domain.PointComparison{
			Theme:     pa.Theme,
			PointA:    clonePoint(pa),
			PointB:    clonePoint(pb),
			Alignment: c.classifier.Classify(pa.Stance, pb.Stance),
		}
		if cmp.Alignment == domain.AlignmentTension {
			diff.Tensions = append(diff.Tensions, cmp)
		} else {
			diff.Agreements = append(diff.Agreements, cmp)
		}
	}

	for i, pb := range b.Points {
		if _, ok := matched[i]; !ok {
			diff.UniqueToB = append(diff.UniqueToB, clonePoint(pb))
		}
	}

	total := len(diff.Agreements) + len(diff.Tensions) + len(diff.UniqueToA) + len(diff.UniqueToB)
	if total > 0 {
		diff.SimilarityScore = float64(len(diff.Agreements)) / float64(total)
	}
	return diff
}

// match returns the index in candidates of the theme matching theme.
func (c *Comparator) match(ctx context.Context, theme string, candidates []string) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}

	if c.ranker != nil {
		ranked, err := c.ranker.RankBySimilarity(ctx, theme, candidates)
		switch {
		case err != nil:
			c.logger.Debug("semantic theme match failed, using lexical match",
				zap.String("theme", theme), zap.Error(err))
		case len(ranked) > 0 && ranked[0].Score >= SimilarityThreshold:
			return ranked[0].Index, true
		}
	}

	norm := domain.NormalizeTheme(theme)
	for i, cand := range candidates {
		if domain.NormalizeTheme(cand) == norm {
			return i, true
		}
	}
	return 0, false
}

func clonePoint(p domain.Point) domain.Point {
	p.Evidence = slices.Clone(p.Evidence)
	p.Sources = slices.Clone(p.Sources)
	return p
}
