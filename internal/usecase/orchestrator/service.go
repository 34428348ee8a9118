// Package orchestrator runs the multi-stage search pipeline: standard
// retrieval, optional query rewriting and hybrid retrieval, optional
// LLM reranking, and optional per-product reasoning, with progressive
// results exposed to polling clients throughout.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopsense/internal/domain"
	"github.com/kailas-cloud/shopsense/internal/metrics"
	"github.com/kailas-cloud/shopsense/internal/rankdelta"
)

// Config holds pipeline tuning knobs.
type Config struct {
	// ReasoningBatchSize is how many per-product reasoning calls run
	// concurrently before progress is published.
	ReasoningBatchSize int
}

// Service orchestrates search pipelines and serves their results.
type Service struct {
	search   SearchBackend
	reason   ReasoningBackend
	progress ProgressSink
	personas PersonaResolver
	cfg      Config
	logger   *zap.Logger

	mu        sync.RWMutex
	sessions  map[string]*session
	completed map[string]*domain.SearchResponse

	// rootCtx outlives request contexts so pipelines keep running after the
	// initiating HTTP request returns. Cancelled on shutdown.
	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a pipeline orchestrator.
func New(
	search SearchBackend,
	reason ReasoningBackend,
	progress ProgressSink,
	personas PersonaResolver,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.ReasoningBatchSize <= 0 {
		cfg.ReasoningBatchSize = 5
	}
	rootCtx, cancel := context.WithCancel(context.Background())
	return &Service{
		search:    search,
		reason:    reason,
		progress:  progress,
		personas:  personas,
		cfg:       cfg,
		logger:    logger,
		sessions:  make(map[string]*session),
		completed: make(map[string]*domain.SearchResponse),
		rootCtx:   rootCtx,
		cancel:    cancel,
	}
}

// Initiate validates the request, registers a new search, and starts its
// pipeline in the background. Returns the search id immediately.
func (s *Service) Initiate(_ context.Context, req domain.SearchRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	searchID := s.progress.CreateID()
	s.progress.Update(searchID, domain.StageInitiated, "Search initiated", domain.PercentInitiated)

	sess := newSession(searchID)
	s.mu.Lock()
	s.sessions[searchID] = sess
	s.mu.Unlock()

	metrics.SearchesInFlight.Inc()
	s.wg.Add(1)
	go s.run(sess, req)

	s.logger.Info("Search initiated",
		zap.String("search_id", searchID),
		zap.String("query", req.Query),
		zap.String("persona_id", req.PersonaID),
		zap.Bool("vector", req.VectorSearchEnabled),
		zap.Bool("rerank", req.RerankerEnabled),
		zap.Bool("reasoning", req.ReasoningEnabled))
	return searchID, nil
}

// Results returns the current response for a search: the immutable completed
// record when the pipeline has finished, a live partial snapshot while it
// runs, or an error-shaped empty response for ids this process never saw.
func (s *Service) Results(_ context.Context, searchID string) domain.SearchResponse {
	s.mu.RLock()
	if resp, ok := s.completed[searchID]; ok {
		s.mu.RUnlock()
		return *resp
	}
	sess, ok := s.sessions[searchID]
	s.mu.RUnlock()

	if ok {
		return *sess.load()
	}

	return domain.SearchResponse{
		SearchID:        searchID,
		Progress:        domain.StageError,
		StandardResults: []domain.Product{},
		AIResults:       []domain.Product{},
	}
}

// Progress returns the current progress record for a search.
func (s *Service) Progress(_ context.Context, searchID string) (domain.ProgressRecord, error) {
	rec, ok := s.progress.Get(searchID)
	if !ok {
		return domain.ProgressRecord{}, fmt.Errorf("search %s: %w", searchID, domain.ErrSearchNotFound)
	}
	return rec, nil
}

// Shutdown stops accepting pipeline progress and waits for running pipelines
// to drain, up to the context deadline.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pipelines did not drain: %w", ctx.Err())
	}
}

// run executes the pipeline state machine for one search.
func (s *Service) run(sess *session, req domain.SearchRequest) {
	defer s.wg.Done()
	defer metrics.SearchesInFlight.Dec()

	ctx := s.rootCtx
	log := s.logger.With(zap.String("search_id", sess.id))
	persona := s.personas.Resolve(req.PersonaID)

	// Phase 1a: standard search. The only hard dependency of the pipeline.
	s.stage(sess.id, domain.StageStandardSearch, "Performing standard search", domain.PercentStandardSearch)

	standard, err := s.timed(ctx, domain.StageStandardSearch, func(ctx context.Context) ([]domain.Product, error) {
		return s.search.StandardSearch(ctx, req.Query)
	})
	if err != nil {
		s.fail(sess, log, err)
		return
	}
	sess.publish(domain.StageStandardSearch, standard, nil, nil)
	log.Info("Standard search done", zap.Int("results", len(standard)))

	// Pure-lexical shortcut: no AI phases requested.
	if !req.VectorSearchEnabled && !req.RerankerEnabled && !req.ReasoningEnabled {
		annotated, summary := rankdelta.Identity(standard)
		s.complete(sess, log, annotated, annotated, summary)
		return
	}

	ai := domain.CloneProducts(standard)
	lastStage := domain.StageStandardSearch

	// Phase 1b: query rewriting + hybrid retrieval.
	if req.VectorSearchEnabled {
		s.stage(sess.id, domain.StageQueryRewriting, "Rewriting query", domain.PercentQueryRewriting)

		query := req.Query
		if rewritten, err := s.reason.RewriteQuery(ctx, req.Query, persona); err != nil {
			log.Warn("Query rewriting failed, using original query", zap.Error(err))
		} else {
			query = rewritten
		}

		s.stage(sess.id, domain.StageEnhancedSearch, "Performing vector search", domain.PercentEnhancedSearch)
		sess.publish(domain.StageEnhancedSearch, standard, nil, nil)

		enhanced, err := s.timed(ctx, domain.StageEnhancedSearch, func(ctx context.Context) ([]domain.Product, error) {
			return s.search.HybridSearch(ctx, query)
		})
		if err != nil {
			s.fail(sess, log, err)
			return
		}
		ai = enhanced
		lastStage = domain.StageEnhancedSearch
		log.Info("Enhanced search done", zap.Int("results", len(ai)))
	}

	// Phase 1b: reranking. Failure keeps the current order.
	if req.RerankerEnabled {
		s.stage(sess.id, domain.StageReranking, "Reranking results", domain.PercentReranking)

		reranked, err := s.timed(ctx, domain.StageReranking, func(ctx context.Context) ([]domain.Product, error) {
			return s.reason.Rerank(ctx, req.Query, persona, ai)
		})
		if err != nil {
			log.Warn("Reranking failed, keeping current order", zap.Error(err))
		} else {
			ai = reranked
		}
		lastStage = domain.StageReranking
	}

	// Interim rank delta so pollers see annotated partials during reasoning.
	annotatedStandard, annotatedAI, summary := rankdelta.Compute(standard, ai)
	sess.publish(lastStage, annotatedStandard, annotatedAI, &summary)

	// Phase 2: per-product reasoning with incremental publication.
	if req.ReasoningEnabled {
		s.stage(sess.id, domain.StageReasoning, "Generating AI reasoning", domain.PercentReasoning)

		start := time.Now()
		ai = s.runReasoning(ctx, sess, req.Query, persona, annotatedStandard, annotatedAI, &summary)
		metrics.StageDuration.WithLabelValues(string(domain.StageReasoning)).Observe(time.Since(start).Seconds())

		// Recompute: reasoning never reorders, but the published AI list now
		// carries reasoning annotations the final delta must preserve.
		annotatedStandard, annotatedAI, summary = rankdelta.Compute(standard, ai)
	}

	s.complete(sess, log, annotatedStandard, annotatedAI, summary)
}

// stage records a transition in the progress tracker.
func (s *Service) stage(searchID string, st domain.Stage, message string, percentage int) {
	s.progress.Update(searchID, st, message, percentage)
}

// timed runs one pipeline step and records its duration.
func (s *Service) timed(
	ctx context.Context, st domain.Stage,
	fn func(ctx context.Context) ([]domain.Product, error),
) ([]domain.Product, error) {
	start := time.Now()
	out, err := fn(ctx)
	metrics.StageDuration.WithLabelValues(string(st)).Observe(time.Since(start).Seconds())
	return out, err
}

// complete publishes the final response and promotes it to the immutable
// completed store.
func (s *Service) complete(sess *session, log *zap.Logger, standard, ai []domain.Product, summary domain.SearchSummary) {
	final := &domain.SearchResponse{
		SearchID:        sess.id,
		Progress:        domain.StageComplete,
		StandardResults: standard,
		AIResults:       ai,
		Summary:         &summary,
	}
	s.promote(sess, final)

	s.progress.Update(sess.id, domain.StageComplete, "Search completed", domain.PercentComplete)
	metrics.SearchesTotal.WithLabelValues("complete").Inc()
	log.Info("Search completed",
		zap.Int("standard_results", len(standard)),
		zap.Int("ai_results", len(ai)))
}

// fail records the terminal error state, preserving whatever partial results
// the session already published.
func (s *Service) fail(sess *session, log *zap.Logger, err error) {
	last := sess.load()
	final := &domain.SearchResponse{
		SearchID:        sess.id,
		Progress:        domain.StageError,
		StandardResults: orEmpty(last.StandardResults),
		AIResults:       orEmpty(last.AIResults),
		Summary:         last.Summary,
	}
	s.promote(sess, final)

	s.progress.Update(sess.id, domain.StageError, fmt.Sprintf("Search failed: %v", err), domain.PercentInitiated)
	metrics.SearchesTotal.WithLabelValues("error").Inc()
	log.Error("Search processing failed", zap.Error(err))
}

func orEmpty(items []domain.Product) []domain.Product {
	if items == nil {
		return []domain.Product{}
	}
	return items
}

func (s *Service) promote(sess *session, final *domain.SearchResponse) {
	s.mu.Lock()
	s.completed[sess.id] = final
	delete(s.sessions, sess.id)
	s.mu.Unlock()
}
