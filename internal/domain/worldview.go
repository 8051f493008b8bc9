package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var (
	ErrSubjectEmpty      = errors.New("subject is required")
	ErrNoPoints          = errors.New("worldview has no points")
	ErrThemeEmpty        = errors.New("point theme is required")
	ErrInvalidConfidence = errors.New("confidence must be between 0.0 and 1.0")
)

// Worldview is a subject's extracted belief set. Point order is kept for
// display; comparison does not depend on it.
type Worldview struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Subject   string    `json:"subject"`
	Points    []Point   `json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Point is one belief unit within a worldview.
type Point struct {
	Theme      string   `json:"theme"`
	Stance     string   `json:"stance"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
	Sources    []string `json:"sources"`
}

// Validate checks the invariants an ingested worldview must satisfy before
// it is stored or compared.
func (w *Worldview) Validate() error {
	if strings.TrimSpace(w.Subject) == "" {
		return ErrSubjectEmpty
	}
	if len(w.Points) == 0 {
		return ErrNoPoints
	}
	for i, p := range w.Points {
		if strings.TrimSpace(p.Theme) == "" {
			return fmt.Errorf("point %d: %w", i, ErrThemeEmpty)
		}
		if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("point %d %q: %w (got %v)", i, p.Theme, ErrInvalidConfidence, p.Confidence)
		}
	}
	return nil
}

// Themes returns the theme label of every point, in point order.
func (w *Worldview) Themes() []string {
	themes := make([]string, len(w.Points))
	for i, p := range w.Points {
		themes[i] = p.Theme
	}
	return themes
}

// SourceCount returns the number of distinct sources cited across all points.
func (w *Worldview) SourceCount() int {
	seen := make(map[string]struct{})
	for _, p := range w.Points {
		for _, s := range p.Sources {
			seen[s] = struct{}{}
		}
	}
	return len(seen)
}

// NormalizeTheme is the canonical comparison key for a theme label:
// lowercased and trimmed of surrounding whitespace.
func NormalizeTheme(theme string) string {
	return strings.TrimSpace(strings.ToLower(theme))
}

// Slugify derives a URL-safe slug from a subject name.
func Slugify(subject string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(subject) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// WorldviewMeta is the index row kept for listing and search results.
type WorldviewMeta struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Subject     string    `json:"subject"`
	PointCount  int       `json:"point_count"`
	SourceCount int       `json:"source_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Meta summarizes w for listings.
func (w *Worldview) Meta() WorldviewMeta {
	return WorldviewMeta{
		ID:          w.ID,
		Slug:        w.Slug,
		Subject:     w.Subject,
		PointCount:  len(w.Points),
		SourceCount: w.SourceCount(),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}
