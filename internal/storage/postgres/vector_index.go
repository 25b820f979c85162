package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/storage"
)

// VectorIndex implements storage.VectorIndex. With pgvector the ranking is
// done by the server using cosine distance (<=>); without it the REAL[]
// column is scanned and ranked in process.
type VectorIndex struct {
	db                *sql.DB
	pgvectorAvailable bool
	logger            zerolog.Logger
}

// NewVectorIndex creates a vector index over the embeddings table.
func NewVectorIndex(db *sql.DB, pgvectorAvailable bool, logger zerolog.Logger) *VectorIndex {
	return &VectorIndex{db: db, pgvectorAvailable: pgvectorAvailable, logger: logger}
}

// Upsert stores or replaces the embedding for id.
func (v *VectorIndex) Upsert(ctx context.Context, id string, vec []float32, model string) error {
	if id == "" {
		return fmt.Errorf("%w: embedding id is required", storage.ErrInvalidInput)
	}
	if len(vec) == 0 {
		return fmt.Errorf("%w: embedding vector cannot be empty", storage.ErrInvalidInput)
	}
	if model == "" {
		return fmt.Errorf("%w: model is required", storage.ErrInvalidInput)
	}

	if v.pgvectorAvailable {
		query := `
			INSERT INTO embeddings (id, embedding, dimension, model, embedding_vec, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (id) DO UPDATE SET
				embedding = EXCLUDED.embedding,
				dimension = EXCLUDED.dimension,
				model = EXCLUDED.model,
				embedding_vec = EXCLUDED.embedding_vec,
				updated_at = NOW()
		`
		_, err := v.db.ExecContext(ctx, query, id, pq.Array(vec), len(vec), model, pgvector.NewVector(vec))
		if err == nil {
			return nil
		}
		v.logger.Warn().Err(err).Str("id", id).Msg("failed to store embedding_vec, falling back to array only")
	}

	query := `
		INSERT INTO embeddings (id, embedding, dimension, model, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			dimension = EXCLUDED.dimension,
			model = EXCLUDED.model,
			updated_at = NOW()
	`
	if _, err := v.db.ExecContext(ctx, query, id, pq.Array(vec), len(vec), model); err != nil {
		return fmt.Errorf("postgres: failed to store embedding: %w", err)
	}
	return nil
}

// Nearest returns up to k ids ordered by descending cosine similarity.
func (v *VectorIndex) Nearest(ctx context.Context, vec []float32, k int) ([]storage.VectorMatch, error) {
	if len(vec) == 0 || k <= 0 {
		return nil, fmt.Errorf("%w: query vector and k are required", storage.ErrInvalidInput)
	}
	if v.pgvectorAvailable {
		matches, err := v.nearestPgvector(ctx, vec, k)
		if err == nil {
			return matches, nil
		}
		v.logger.Warn().Err(err).Msg("pgvector query failed, scanning arrays")
	}
	return v.nearestScan(ctx, vec, k)
}

func (v *VectorIndex) nearestPgvector(ctx context.Context, vec []float32, k int) ([]storage.VectorMatch, error) {
	const query = `
		SELECT id, 1 - (embedding_vec <=> $1::vector) AS similarity
		FROM embeddings
		WHERE embedding_vec IS NOT NULL AND dimension = $2
		ORDER BY embedding_vec <=> $1::vector
		LIMIT $3
	`
	rows, err := v.db.QueryContext(ctx, query, pgvector.NewVector(vec), len(vec), k)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var matches []storage.VectorMatch
	for rows.Next() {
		var m storage.VectorMatch
		if err := rows.Scan(&m.ID, &m.Similarity); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (v *VectorIndex) nearestScan(ctx context.Context, vec []float32, k int) ([]storage.VectorMatch, error) {
	rows, err := v.db.QueryContext(ctx, `SELECT id, embedding FROM embeddings WHERE dimension = $1`, len(vec))
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to scan embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []storage.VectorMatch
	for rows.Next() {
		var (
			id     string
			stored pq.Float32Array
		)
		if err := rows.Scan(&id, &stored); err != nil {
			return nil, fmt.Errorf("postgres: failed to read embedding: %w", err)
		}
		matches = append(matches, storage.VectorMatch{ID: id, Similarity: storage.CosineSimilarity(vec, stored)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
