// Package storage provides the persistence contracts for the agent.
//
// Every stateful engine owns exactly one Document, keyed by a stable
// identifier. Backends implement DocumentStore (and optionally VectorIndex)
// and are interchangeable: the engines never see which one is in use.
package storage

import (
	"context"
)

// DocumentStore provides keyed load/save of engine documents.
type DocumentStore interface {
	// Load retrieves the document stored under key.
	// Returns ErrNotFound if nothing was ever saved under key.
	Load(ctx context.Context, key string) (*Document, error)

	// Save creates or replaces the document (upsert semantics).
	// Returns ErrInvalidInput if doc is nil or has an empty key.
	Save(ctx context.Context, doc *Document) error

	// Keys lists every stored key in ascending order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// VectorIndex stores fact embeddings and answers nearest-neighbour queries.
// It is an enhancement layer: callers must tolerate any error by falling back
// to non-semantic retrieval.
type VectorIndex interface {
	// Upsert stores or replaces the embedding for id.
	Upsert(ctx context.Context, id string, vec []float32, model string) error

	// Nearest returns up to k ids ordered by descending cosine similarity.
	Nearest(ctx context.Context, vec []float32, k int) ([]VectorMatch, error)
}
