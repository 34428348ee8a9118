package orchestrator

import (
	"context"

	"github.com/kailas-cloud/shopsense/internal/domain"
)

// SearchBackend retrieves ranked products from the catalog index.
type SearchBackend interface {
	StandardSearch(ctx context.Context, query string) ([]domain.Product, error)
	HybridSearch(ctx context.Context, query string) ([]domain.Product, error)
}

// ReasoningBackend drives the LLM operations of the pipeline.
type ReasoningBackend interface {
	RewriteQuery(ctx context.Context, query string, persona domain.Persona) (string, error)
	Rerank(ctx context.Context, query string, persona domain.Persona, products []domain.Product) ([]domain.Product, error)
	Reason(ctx context.Context, product domain.Product, query string, persona domain.Persona) (domain.Reasoning, error)
}

// ProgressSink issues search ids and records stage transitions for polling.
type ProgressSink interface {
	CreateID() string
	Update(searchID string, stage domain.Stage, message string, percentage int)
	Get(searchID string) (domain.ProgressRecord, bool)
}

// PersonaResolver maps persona ids to personas, falling back to a default
// for unknown ids.
type PersonaResolver interface {
	Resolve(id string) domain.Persona
}
