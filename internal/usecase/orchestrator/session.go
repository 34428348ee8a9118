package orchestrator

import (
	"sync/atomic"

	"github.com/kailas-cloud/shopsense/internal/domain"
)

// session holds the live state of one running search. The response snapshot
// is published atomically: pollers always observe a consistent view, never a
// half-written one. Snapshots are treated as immutable after publish.
type session struct {
	id       string
	snapshot atomic.Pointer[domain.SearchResponse]
}

func newSession(id string) *session {
	s := &session{id: id}
	s.publish(domain.StageInitiated, nil, nil, nil)
	return s
}

// publish replaces the visible snapshot wholesale.
func (s *session) publish(stage domain.Stage, standard, ai []domain.Product, summary *domain.SearchSummary) {
	s.snapshot.Store(&domain.SearchResponse{
		SearchID:        s.id,
		Progress:        stage,
		StandardResults: standard,
		AIResults:       ai,
		Summary:         summary,
	})
}

// load returns the latest published snapshot.
func (s *session) load() *domain.SearchResponse {
	return s.snapshot.Load()
}
