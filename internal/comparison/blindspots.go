package comparison

import (
	"sort"

	"github.com/bierlingm/worldview-extractor/internal/domain"
)

// FindBlindspots returns the themes raised in others that target never
// addresses. Detection is by normalized theme only; stances are ignored.
// Results are sorted by normalized theme.
func FindBlindspots(target *domain.Worldview, others []domain.Worldview) []domain.Blindspot {
	targetThemes := make(map[string]struct{}, len(target.Points))
	for _, p := range target.Points {
		targetThemes[domain.NormalizeTheme(p.Theme)] = struct{}{}
	}

	byTheme := make(map[string]*domain.Blindspot)
	for _, other := range others {
		for _, p := range other.Points {
			norm := domain.NormalizeTheme(p.Theme)
			if _, ok := targetThemes[norm]; ok {
				continue
			}
			bs, ok := byTheme[norm]
			if !ok {
				bs = &domain.Blindspot{
					Subject:      target.Subject,
					MissingTheme: p.Theme,
					AddressedBy:  []string{},
					Examples:     []domain.Point{},
				}
				byTheme[norm] = bs
			}
			bs.AddressedBy = append(bs.AddressedBy, other.Subject)
			bs.Examples = append(bs.Examples, clonePoint(p))
		}
	}

	keys := make([]string, 0, len(byTheme))
	for k := range byTheme {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	blindspots := make([]domain.Blindspot, 0, len(keys))
	for _, k := range keys {
		blindspots = append(blindspots, *byTheme[k])
	}
	return blindspots
}
