package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WorldviewStore struct {
	db *pgxpool.Pool
}

func NewWorldviewStore(db *pgxpool.Pool) *WorldviewStore {
	return &WorldviewStore{db: db}
}

var _ domain.WorldviewStore = (*WorldviewStore)(nil)

// Upsert inserts w or replaces the stored worldview with the same slug.
// The stored id and created_at survive a replace.
func (s *WorldviewStore) Upsert(ctx context.Context, w *domain.Worldview) error {
	points, err := json.Marshal(w.Points)
	if err != nil {
		return fmt.Errorf("marshal points: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO worldviews (id, slug, subject, points, themes, point_count, source_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (slug) DO UPDATE SET
		     subject = EXCLUDED.subject,
		     points = EXCLUDED.points,
		     themes = EXCLUDED.themes,
		     point_count = EXCLUDED.point_count,
		     source_count = EXCLUDED.source_count,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at, updated_at`,
		w.ID, w.Slug, w.Subject, points, strings.Join(w.Themes(), " "), len(w.Points), w.SourceCount(), w.CreatedAt, w.UpdatedAt,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("upsert worldview: %w", err)
	}
	return nil
}

func (s *WorldviewStore) GetBySlug(ctx context.Context, slug string) (*domain.Worldview, error) {
	w := &domain.Worldview{}
	err := s.db.QueryRow(ctx,
		`SELECT id, slug, subject, points, created_at, updated_at
		 FROM worldviews WHERE slug = $1`,
		slug,
	).Scan(&w.ID, &w.Slug, &w.Subject, &w.Points, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// List returns summaries of every stored worldview, most recently updated first.
func (s *WorldviewStore) List(ctx context.Context) ([]domain.WorldviewMeta, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, slug, subject, point_count, source_count, created_at, updated_at
		 FROM worldviews
		 ORDER BY updated_at DESC, slug`)
	if err != nil {
		return nil, fmt.Errorf("list worldviews: %w", err)
	}
	return collectMeta(rows)
}

// Search matches query against subject, slug and themes. Full-text hits
// are ranked first; a substring match on subject or slug also qualifies.
func (s *WorldviewStore) Search(ctx context.Context, query string) ([]domain.WorldviewMeta, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.WorldviewMeta{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, slug, subject, point_count, source_count, created_at, updated_at
		 FROM worldviews
		 WHERE search_vector @@ websearch_to_tsquery('english', $1)
		    OR subject ILIKE '%' || $1 || '%'
		    OR slug ILIKE '%' || $1 || '%'
		 ORDER BY ts_rank(search_vector, websearch_to_tsquery('english', $1)) DESC, updated_at DESC`,
		query,
	)
	if err != nil {
		return nil, fmt.Errorf("search worldviews: %w", err)
	}
	return collectMeta(rows)
}

func (s *WorldviewStore) Delete(ctx context.Context, slug string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM worldviews WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectMeta(rows pgx.Rows) ([]domain.WorldviewMeta, error) {
	defer rows.Close()

	out := []domain.WorldviewMeta{}
	for rows.Next() {
		var m domain.WorldviewMeta
		if err := rows.Scan(&m.ID, &m.Slug, &m.Subject, &m.PointCount, &m.SourceCount, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan worldview: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
