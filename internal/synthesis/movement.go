// Package synthesis folds pairwise comparisons of N worldviews into a
// Movement: convergences, tensions and positions unique to one subject.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bierlingm/worldview-extractor/internal/comparison"
	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/bierlingm/worldview-extractor/internal/similarity"
	"go.uber.org/zap"
)

type Synthesizer struct {
	comparator *comparison.Comparator
	similarity *similarity.Service
	logger     *zap.Logger
	now        func() time.Time
}

// NewSynthesizer returns a Synthesizer. When sim is non-nil and comparator
// matches semantically, every theme is embedded once per call through sim
// and the embeddings are shared by all pairs. A lexical-only comparator
// keeps the whole synthesis lexical regardless of sim.
func NewSynthesizer(comparator *comparison.Comparator, sim *similarity.Service, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		comparator: comparator,
		similarity: sim,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// GenerateMovement compares every unordered pair of worldviews and
// collects the results. An empty title selects DefaultMovementTitle.
func (s *Synthesizer) GenerateMovement(ctx context.Context, worldviews []domain.Worldview, title string) *domain.Movement {
	if title == "" {
		title = domain.DefaultMovementTitle
	}

	subjects := make([]string, len(worldviews))
	for i, w := range worldviews {
		subjects[i] = w.Subject
	}

	comparator := s.pairComparator(ctx, worldviews)

	convergences := []domain.SectionItem{}
	tensions := []domain.SectionItem{}
	for i := 0; i < len(worldviews); i++ {
		for j := i + 1; j < len(worldviews); j++ {
			a, b := &worldviews[i], &worldviews[j]
			diff := comparator.Compare(ctx, a, b)

			for _, cmp := range diff.Agreements {
				convergences = append(convergences, domain.SectionItem{
					Theme:     cmp.Theme,
					Voices:    pairVoices(a.Subject, b.Subject, cmp),
					Synthesis: fmt.Sprintf("Both %s and %s converge on: %s", a.Subject, b.Subject, cmp.Theme),
				})
			}
			for _, cmp := range diff.Tensions {
				tensions = append(tensions, domain.SectionItem{
					Theme:     cmp.Theme,
					Voices:    pairVoices(a.Subject, b.Subject, cmp),
					Synthesis: fmt.Sprintf("Tension between %s and %s on: %s", a.Subject, b.Subject, cmp.Theme),
				})
			}
		}
	}

	unique := uniqueVoices(worldviews)

	m := &domain.Movement{
		Title:       title,
		GeneratedAt: s.now(),
		Subjects:    subjects,
		Sections: []domain.Section{
			{Name: domain.SectionConvergences, Content: convergences},
			{Name: domain.SectionTensions, Content: tensions},
			{Name: domain.SectionUniqueVoices, Content: unique},
		},
	}
	m.Summary = fmt.Sprintf("Synthesis of %d worldviews: %d convergences, %d tensions, %d unique positions.",
		len(worldviews), len(convergences), len(tensions), len(unique))

	s.logger.Debug("movement generated",
		zap.Int("worldviews", len(worldviews)),
		zap.Int("convergences", len(convergences)),
		zap.Int("tensions", len(tensions)),
		zap.Int("unique", len(unique)),
	)
	return m
}

// pairComparator returns a comparator ranking against embeddings computed
// once for this call. A failed warm-up leaves the cache to embed per pair
// on demand, so one bad theme only downgrades the pairs it appears in.
// If the model itself cannot load, the call is matched lexically.
func (s *Synthesizer) pairComparator(ctx context.Context, worldviews []domain.Worldview) *comparison.Comparator {
	if s.similarity == nil || s.comparator.Ranker() == nil || len(worldviews) < 2 {
		return s.comparator
	}

	var themes []string
	for _, w := range worldviews {
		themes = append(themes, w.Themes()...)
	}
	cache, err := s.similarity.NewThemeCache(ctx, themes)
	if errors.Is(err, similarity.ErrModelUnavailable) {
		s.logger.Warn("embedding model unavailable, matching themes lexically", zap.Error(err))
		return s.comparator.WithRanker(nil)
	}
	if err != nil {
		s.logger.Warn("theme embedding failed, embedding per pair", zap.Error(err))
	}
	return s.comparator.WithRanker(cache)
}

func pairVoices(subjectA, subjectB string, cmp domain.PointComparison) []domain.VoicePosition {
	return []domain.VoicePosition{
		{Subject: subjectA, Stance: cmp.PointA.Stance, Confidence: cmp.PointA.Confidence},
		{Subject: subjectB, Stance: cmp.PointB.Stance, Confidence: cmp.PointB.Confidence},
	}
}

// uniqueVoices returns the points whose theme no other worldview shares,
// by case-insensitive equality. This test is lexical only.
func uniqueVoices(worldviews []domain.Worldview) []domain.SectionItem {
	items := []domain.SectionItem{}
	for i, w := range worldviews {
		for _, p := range w.Points {
			if sharedElsewhere(worldviews, i, p.Theme) {
				continue
			}
			items = append(items, domain.SectionItem{
				Theme: p.Theme,
				Voices: []domain.VoicePosition{
					{Subject: w.Subject, Stance: p.Stance, Confidence: p.Confidence},
				},
				Synthesis: fmt.Sprintf("Unique to %s: %s", w.Subject, p.Theme),
			})
		}
	}
	return items
}

func sharedElsewhere(worldviews []domain.Worldview, self int, theme string) bool {
	for j, other := range worldviews {
		if j == self {
			continue
		}
		for _, op := range other.Points {
			if strings.EqualFold(op.Theme, theme) {
				return true
			}
		}
	}
	return false
}
