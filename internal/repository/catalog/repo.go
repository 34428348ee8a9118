// Package catalog implements product retrieval over the Redis search index.
package catalog

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/shopsense/internal/db"
	"github.com/kailas-cloud/shopsense/internal/domain"
)

// store is the consumer interface for catalog searches (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Config holds index parameters for the product catalog.
type Config struct {
	IndexName string
	KeyPrefix string
	TopK      int
}

// Repo implements usecase/orchestrator.SearchBackend.
type Repo struct {
	store    store
	embedder domain.Embedder
	cfg      Config
}

// New creates a catalog repository.
func New(s store, embedder domain.Embedder, cfg Config) *Repo {
	return &Repo{store: s, embedder: embedder, cfg: cfg}
}

// StandardSearch performs a BM25 keyword search over the product index.
func (r *Repo) StandardSearch(ctx context.Context, query string) ([]domain.Product, error) {
	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName: r.cfg.IndexName,
		Query:     query,
		TopK:      r.cfg.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("standard search: %w: %w", domain.ErrSearchBackend, err)
	}

	return entriesToProducts(sr.Entries, r.cfg.KeyPrefix), nil
}

// HybridSearch embeds the query and fuses KNN and BM25 rankings via
// reciprocal rank fusion.
func (r *Repo) HybridSearch(ctx context.Context, query string) ([]domain.Product, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrSearchBackend, err)
	}

	knn, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: r.cfg.IndexName,
		Vector:    vector,
		K:         r.cfg.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w: %w", domain.ErrSearchBackend, err)
	}

	bm25, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName: r.cfg.IndexName,
		Query:     query,
		TopK:      r.cfg.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w: %w", domain.ErrSearchBackend, err)
	}

	fused := fuseRRF(knn.Entries, bm25.Entries, r.cfg.TopK)
	return entriesToProducts(fused, r.cfg.KeyPrefix), nil
}
