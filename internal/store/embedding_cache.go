package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingCacheStore persists text embeddings keyed by model and the
// sha256 of the text.
type EmbeddingCacheStore struct {
	db *pgxpool.Pool
}

func NewEmbeddingCacheStore(db *pgxpool.Pool) *EmbeddingCacheStore {
	return &EmbeddingCacheStore{db: db}
}

var _ domain.EmbeddingCache = (*EmbeddingCacheStore)(nil)

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached embeddings among texts, keyed by text. Texts with
// no cached embedding are absent from the result.
func (s *EmbeddingCacheStore) Get(ctx context.Context, model string, texts []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	byHash := make(map[string]string, len(texts))
	hashes := make([]string, 0, len(texts))
	for _, t := range texts {
		h := textHash(t)
		if _, ok := byHash[h]; ok {
			continue
		}
		byHash[h] = t
		hashes = append(hashes, h)
	}

	rows, err := s.db.Query(ctx,
		`SELECT text_hash, embedding FROM theme_embeddings
		 WHERE model = $1 AND text_hash = ANY($2)`,
		model, hashes,
	)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		var vec pgvector.Vector
		if err := rows.Scan(&hash, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		if text, ok := byHash[hash]; ok {
			out[text] = vec.Slice()
		}
	}
	return out, rows.Err()
}

// Put stores entries in one batch. Existing rows for the same key are
// replaced.
func (s *EmbeddingCacheStore) Put(ctx context.Context, model string, entries map[string][]float32) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for text, vec := range entries {
		batch.Queue(
			`INSERT INTO theme_embeddings (model, text_hash, text, embedding)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (model, text_hash) DO UPDATE SET embedding = EXCLUDED.embedding`,
			model, textHash(text), text, pgvector.NewVector(vec),
		)
	}

	br := s.db.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()
	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("store embedding: %w", err)
		}
	}
	return nil
}
