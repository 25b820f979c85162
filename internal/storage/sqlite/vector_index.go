package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/scrypster/animus/internal/storage"
)

// VectorIndex implements storage.VectorIndex with a brute-force cosine scan.
// The fact store holds at most a few thousand entries, so a full scan stays cheap.
type VectorIndex struct {
	db *sql.DB
}

// NewVectorIndex creates a vector index sharing the document store's connection.
func NewVectorIndex(db *sql.DB) *VectorIndex {
	return &VectorIndex{db: db}
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

	query := `
		INSERT INTO embeddings (id, embedding, dimension, model, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			embedding = excluded.embedding,
			dimension = excluded.dimension,
			model = excluded.model,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := v.db.ExecContext(ctx, query, id, serializeEmbedding(vec), len(vec), model); err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

// Nearest returns up to k ids ordered by descending cosine similarity.
// Rows whose dimension differs from vec are skipped.
func (v *VectorIndex) Nearest(ctx context.Context, vec []float32, k int) ([]storage.VectorMatch, error) {
	if len(vec) == 0 || k <= 0 {
		return nil, fmt.Errorf("%w: query vector and k are required", storage.ErrInvalidInput)
	}

	rows, err := v.db.QueryContext(ctx,
		`SELECT id, embedding, dimension FROM embeddings WHERE dimension = ?`, len(vec))
	if err != nil {
		return nil, fmt.Errorf("failed to scan embeddings: %w", err)
	}
	defer rows.Close()

	var matches []storage.VectorMatch
	for rows.Next() {
		var (
			id  string
			buf []byte
			dim int
		)
		if err := rows.Scan(&id, &buf, &dim); err != nil {
			return nil, fmt.Errorf("failed to read embedding: %w", err)
		}
		stored, err := deserializeEmbedding(buf, dim)
		if err != nil {
			continue
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

// serializeEmbedding encodes vec as little-endian IEEE 754 float32 values.
func serializeEmbedding(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeEmbedding(buf []byte, dimension int) ([]float32, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", dimension)
	}
	if len(buf) != dimension*4 {
		return nil, fmt.Errorf("buffer size mismatch: expected %d bytes, got %d", dimension*4, len(buf))
	}
	vec := make([]float32, dimension)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
