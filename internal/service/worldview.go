package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/bierlingm/worldview-extractor/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrWorldviewNotFound = errors.New("worldview not found")
	ErrWorldviewConflict = errors.New("worldview id already belongs to another slug")
	ErrInvalidWorldview  = errors.New("invalid worldview")
	ErrSlugRequired      = errors.New("slug is required")
)

type WorldviewService struct {
	store  domain.WorldviewStore
	logger *zap.Logger
	now    func() time.Time
}

func NewWorldviewService(s domain.WorldviewStore, logger *zap.Logger) *WorldviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorldviewService{
		store:  s,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ParseWorldview decodes and validates a worldview document. It fills in
// the slug when absent but assigns no id or timestamps.
func ParseWorldview(data []byte) (*domain.Worldview, error) {
	var w domain.Worldview
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorldview, err)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorldview, err)
	}
	if w.Slug == "" {
		w.Slug = domain.Slugify(w.Subject)
	}
	if w.Slug == "" {
		return nil, fmt.Errorf("%w: subject %q yields an empty slug", ErrInvalidWorldview, w.Subject)
	}
	return &w, nil
}

// Ingest parses a worldview document and saves it under its slug,
// replacing any worldview already stored there.
func (s *WorldviewService) Ingest(ctx context.Context, data []byte) (*domain.Worldview, error) {
	w, err := ParseWorldview(data)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Save validates and stores w. A zero id and zero timestamps are assigned.
func (s *WorldviewService) Save(ctx context.Context, w *domain.Worldview) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWorldview, err)
	}
	if w.Slug == "" {
		w.Slug = domain.Slugify(w.Subject)
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := s.now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	if err := s.store.Upsert(ctx, w); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrWorldviewConflict
		}
		return err
	}

	s.logger.Info("worldview saved",
		zap.String("slug", w.Slug),
		zap.String("subject", w.Subject),
		zap.Int("points", len(w.Points)),
	)
	return nil
}

func (s *WorldviewService) Get(ctx context.Context, slug string) (*domain.Worldview, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	w, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWorldviewNotFound, slug)
		}
		return nil, err
	}
	return w, nil
}

func (s *WorldviewService) List(ctx context.Context) ([]domain.WorldviewMeta, error) {
	return s.store.List(ctx)
}

func (s *WorldviewService) Search(ctx context.Context, query string) ([]domain.WorldviewMeta, error) {
	return s.store.Search(ctx, query)
}

func (s *WorldviewService) Delete(ctx context.Context, slug string) error {
	if strings.TrimSpace(slug) == "" {
		return ErrSlugRequired
	}
	err := s.store.Delete(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrWorldviewNotFound, slug)
		}
		return err
	}
	s.logger.Info("worldview deleted", zap.String("slug", slug))
	return nil
}
