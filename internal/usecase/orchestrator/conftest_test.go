package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopsense/internal/domain"
)

type mockSearchBackend struct {
	standardFn func(ctx context.Context, query string) ([]domain.Product, error)
	hybridFn   func(ctx context.Context, query string) ([]domain.Product, error)
}

func (m *mockSearchBackend) StandardSearch(ctx context.Context, query string) ([]domain.Product, error) {
	if m.standardFn != nil {
		return m.standardFn(ctx, query)
	}
	return nil, nil
}

func (m *mockSearchBackend) HybridSearch(ctx context.Context, query string) ([]domain.Product, error) {
	if m.hybridFn != nil {
		return m.hybridFn(ctx, query)
	}
	return nil, nil
}

type mockReasoningBackend struct {
	rewriteFn func(ctx context.Context, query string, persona domain.Persona) (string, error)
	rerankFn  func(ctx context.Context, query string, persona domain.Persona, products []domain.Product) ([]domain.Product, error)
	reasonFn  func(ctx context.Context, product domain.Product, query string, persona domain.Persona) (domain.Reasoning, error)
}

func (m *mockReasoningBackend) RewriteQuery(ctx context.Context, query string, persona domain.Persona) (string, error) {
	if m.rewriteFn != nil {
		return m.rewriteFn(ctx, query, persona)
	}
	return query, nil
}

func (m *mockReasoningBackend) Rerank(ctx context.Context, query string, persona domain.Persona, products []domain.Product) ([]domain.Product, error) {
	if m.rerankFn != nil {
		return m.rerankFn(ctx, query, persona, products)
	}
	return products, nil
}

func (m *mockReasoningBackend) Reason(ctx context.Context, product domain.Product, query string, persona domain.Persona) (domain.Reasoning, error) {
	if m.reasonFn != nil {
		return m.reasonFn(ctx, product, query, persona)
	}
	return domain.Reasoning{
		Text:            "mock reasoning",
		ConfidenceScore: 90,
		Factors:         []domain.ReasoningFactor{{Factor: "f", Weight: 50, Description: "d"}},
	}, nil
}

// mockProgress records every update for assertions on ordering and values.
type mockProgress struct {
	mu      sync.Mutex
	nextID  int
	updates []domain.ProgressRecord
}

func (m *mockProgress) CreateID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return fmt.Sprintf("search-%d", m.nextID)
}

func (m *mockProgress) Update(searchID string, stage domain.Stage, message string, percentage int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, domain.ProgressRecord{
		SearchID:   searchID,
		Stage:      stage,
		Message:    message,
		Percentage: percentage,
	})
}

func (m *mockProgress) Get(searchID string) (domain.ProgressRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.updates) - 1; i >= 0; i-- {
		if m.updates[i].SearchID == searchID {
			return m.updates[i], true
		}
	}
	return domain.ProgressRecord{}, false
}

func (m *mockProgress) recorded(searchID string) []domain.ProgressRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ProgressRecord
	for _, u := range m.updates {
		if u.SearchID == searchID {
			out = append(out, u)
		}
	}
	return out
}

type mockPersonas struct{}

func (mockPersonas) Resolve(string) domain.Persona {
	return domain.Persona{
		ID:   "smart-shopper",
		Name: "Smart Shopper",
		Preferences: domain.Preferences{
			PriceWeight: 0.8, QualityWeight: 0.6, BrandWeight: 0.3,
			Description: "Hunts for the best value",
		},
	}
}

func newTestService(t *testing.T) (*Service, *mockSearchBackend, *mockReasoningBackend, *mockProgress) {
	t.Helper()
	search := &mockSearchBackend{}
	reason := &mockReasoningBackend{}
	progress := &mockProgress{}
	svc := New(search, reason, progress, mockPersonas{}, Config{ReasoningBatchSize: 2}, zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc, search, reason, progress
}

// waitForTerminal polls Results until the pipeline reaches a terminal stage.
func waitForTerminal(t *testing.T, svc *Service, searchID string) domain.SearchResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := svc.Results(context.Background(), searchID)
		if resp.Progress.Terminal() {
			return resp
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("search %s never reached a terminal stage", searchID)
	return domain.SearchResponse{}
}

func catalogOf(ids ...string) []domain.Product {
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Product{ID: id, Title: "Product " + id, Price: 10})
	}
	return out
}
