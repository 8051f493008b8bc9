package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/bierlingm/worldview-extractor/internal/store"
	"github.com/google/uuid"
)

// mockWorldviewStore implements domain.WorldviewStore for testing.
type mockWorldviewStore struct {
	mu         sync.Mutex
	worldviews map[string]*domain.Worldview
	getErr     error
	gets       int
}

func newMockWorldviewStore() *mockWorldviewStore {
	return &mockWorldviewStore{worldviews: make(map[string]*domain.Worldview)}
}

func (m *mockWorldviewStore) Upsert(ctx context.Context, w *domain.Worldview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slug, existing := range m.worldviews {
		if existing.ID == w.ID && slug != w.Slug {
			return store.ErrConflict
		}
	}
	if existing, ok := m.worldviews[w.Slug]; ok {
		w.ID = existing.ID
		w.CreatedAt = existing.CreatedAt
	}
	cp := *w
	m.worldviews[w.Slug] = &cp
	return nil
}

func (m *mockWorldviewStore) GetBySlug(ctx context.Context, slug string) (*domain.Worldview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	w, ok := m.worldviews[slug]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *mockWorldviewStore) List(ctx context.Context) ([]domain.WorldviewMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.WorldviewMeta{}
	for _, w := range m.worldviews {
		out = append(out, w.Meta())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *mockWorldviewStore) Search(ctx context.Context, query string) ([]domain.WorldviewMeta, error) {
	all, _ := m.List(ctx)
	out := []domain.WorldviewMeta{}
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Subject), strings.ToLower(query)) {
			out = append(out, meta)
		}
	}
	return out, nil
}

func (m *mockWorldviewStore) Delete(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.worldviews[slug]; !ok {
		return store.ErrNotFound
	}
	delete(m.worldviews, slug)
	return nil
}

const aliceJSON = `{
  "subject": "Alice Example",
  "points": [
    {"theme": "Climate", "stance": "Act now", "confidence": 0.9, "evidence": ["q1"], "sources": ["s1", "s2"]},
    {"theme": "Taxes", "stance": "Lower them", "confidence": 0.6, "evidence": ["q2"], "sources": ["s2"]}
  ]
}`

func TestWorldviewService_Ingest(t *testing.T) {
	s := NewWorldviewService(newMockWorldviewStore(), nil)
	fixed := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	w, err := s.Ingest(context.Background(), []byte(aliceJSON))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if w.Slug != "alice-example" {
		t.Fatalf("expected slug alice-example, got %s", w.Slug)
	}
	if w.ID == uuid.Nil {
		t.Fatal("expected worldview ID to be set")
	}
	if !w.CreatedAt.Equal(fixed) || !w.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected timestamps %v, got %v/%v", fixed, w.CreatedAt, w.UpdatedAt)
	}
}

func TestWorldviewService_IngestReplacesBySlug(t *testing.T) {
	s := NewWorldviewService(newMockWorldviewStore(), nil)
	ctx := context.Background()

	first, err := s.Ingest(ctx, []byte(aliceJSON))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := s.Ingest(ctx, []byte(aliceJSON))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected re-ingest to keep id %s, got %s", first.ID, second.ID)
	}

	metas, _ := s.List(ctx)
	if len(metas) != 1 {
		t.Fatalf("expected 1 stored worldview, got %d", len(metas))
	}
	if metas[0].PointCount != 2 || metas[0].SourceCount != 2 {
		t.Fatalf("expected 2 points and 2 sources, got %+v", metas[0])
	}
}

func TestWorldviewService_IngestInvalid(t *testing.T) {
	s := NewWorldviewService(newMockWorldviewStore(), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"malformed", `{"subject":`, nil},
		{"no subject", `{"subject":"  ","points":[{"theme":"a","stance":"b","confidence":0.5}]}`, domain.ErrSubjectEmpty},
		{"no points", `{"subject":"Alice","points":[]}`, domain.ErrNoPoints},
		{"empty theme", `{"subject":"Alice","points":[{"theme":"","stance":"b","confidence":0.5}]}`, domain.ErrThemeEmpty},
		{"confidence too high", `{"subject":"Alice","points":[{"theme":"a","stance":"b","confidence":1.5}]}`, domain.ErrInvalidConfidence},
		{"unsluggable subject", `{"subject":"!!!","points":[{"theme":"a","stance":"b","confidence":0.5}]}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Ingest(ctx, []byte(tt.doc))
			if !errors.Is(err, ErrInvalidWorldview) {
				t.Fatalf("expected ErrInvalidWorldview, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWorldviewService_SaveConflict(t *testing.T) {
	s := NewWorldviewService(newMockWorldviewStore(), nil)
	ctx := context.Background()

	w, err := s.Ingest(ctx, []byte(aliceJSON))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	clash := &domain.Worldview{ID: w.ID, Subject: "Bob", Points: w.Points}
	if err := s.Save(ctx, clash); !errors.Is(err, ErrWorldviewConflict) {
		t.Fatalf("expected ErrWorldviewConflict, got %v", err)
	}
}

func TestWorldviewService_GetAndDelete(t *testing.T) {
	s := NewWorldviewService(newMockWorldviewStore(), nil)
	ctx := context.Background()

	if _, err := s.Get(ctx, "nobody"); !errors.Is(err, ErrWorldviewNotFound) {
		t.Fatalf("expected ErrWorldviewNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, " "); !errors.Is(err, ErrSlugRequired) {
		t.Fatalf("expected ErrSlugRequired, got %v", err)
	}

	if _, err := s.Ingest(ctx, []byte(aliceJSON)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := s.Get(ctx, "alice-example")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Subject != "Alice Example" {
		t.Fatalf("expected Alice Example, got %s", got.Subject)
	}

	if err := s.Delete(ctx, "alice-example"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := s.Delete(ctx, "alice-example"); !errors.Is(err, ErrWorldviewNotFound) {
		t.Fatalf("expected ErrWorldviewNotFound on second delete, got %v", err)
	}
}

func TestWorldviewService_Search(t *testing.T) {
	s := NewWorldviewService(newMockWorldviewStore(), nil)
	ctx := context.Background()
	if _, err := s.Ingest(ctx, []byte(aliceJSON)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	hits, err := s.Search(ctx, "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(hits) != 1 || hits[0].Slug != "alice-example" {
		t.Fatalf("expected alice-example, got %+v", hits)
	}
}

func TestEvalCriteria_Evaluate(t *testing.T) {
	w := &domain.Worldview{Subject: "Alice", Points: []domain.Point{
		{Theme: "Climate", Confidence: 0.3, Evidence: []string{"q"}},
		{Theme: "Taxes", Confidence: 0.4},
	}}

	violations := DefaultStrictCriteria().Evaluate(w)
	want := []CriteriaViolation{
		{Criterion: "min_points", Message: "Only 2 points, expected at least 5"},
		{Criterion: "min_avg_confidence", Message: "Average confidence 0.35 below minimum 0.50"},
		{Criterion: "require_evidence", Message: "Point 1 'Taxes' has no evidence"},
	}
	if len(violations) != len(want) {
		t.Fatalf("expected %d violations, got %+v", len(want), violations)
	}
	for i := range want {
		if violations[i] != want[i] {
			t.Fatalf("violation %d: expected %+v, got %+v", i, want[i], violations[i])
		}
	}
}

func TestEvalCriteria_MaxPointsAndPass(t *testing.T) {
	c := EvalCriteria{MaxPoints: 1}
	w := &domain.Worldview{Subject: "Alice", Points: []domain.Point{{Theme: "a"}, {Theme: "b"}}}
	v := c.Evaluate(w)
	if len(v) != 1 || v[0].Criterion != "max_points" || v[0].Message != "2 points exceeds max 1" {
		t.Fatalf("expected max_points violation, got %+v", v)
	}

	if v := (EvalCriteria{}).Evaluate(w); len(v) != 0 {
		t.Fatalf("expected zero criteria to pass, got %+v", v)
	}
}
