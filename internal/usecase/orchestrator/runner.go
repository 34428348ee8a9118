package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/shopsense/internal/domain"
	"github.com/kailas-cloud/shopsense/internal/metrics"
)

// runReasoning generates per-product reasoning in fixed-size concurrent
// batches. Each batch completes wholesale before the next starts, and after
// every batch the session snapshot and progress percentage are republished so
// pollers watch reasoning arrive incrementally.
//
// Failures are isolated per product: a failed call gets DefaultReasoning and
// never removes the product or aborts its siblings.
func (s *Service) runReasoning(
	ctx context.Context,
	sess *session,
	query string,
	persona domain.Persona,
	standard []domain.Product,
	ai []domain.Product,
	summary *domain.SearchSummary,
) []domain.Product {
	out := domain.CloneProducts(ai)
	total := len(out)
	if total == 0 {
		return out
	}

	log := s.logger.With(zap.String("search_id", sess.id))
	batchSize := s.cfg.ReasoningBatchSize

	for start := 0; start < total; start += batchSize {
		end := min(start+batchSize, total)

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				reasoning, err := s.reason.Reason(ctx, out[i], query, persona)
				if err != nil {
					log.Warn("Reasoning failed, using default",
						zap.String("product_id", out[i].ID),
						zap.Error(err))
					metrics.ReasoningCallsTotal.WithLabelValues("fallback").Inc()
					reasoning = domain.DefaultReasoning(out[i], query)
				} else {
					metrics.ReasoningCallsTotal.WithLabelValues("ok").Inc()
				}
				out[i].Reasoning = &reasoning
				out[i].Match = intPtr(reasoning.ConfidenceScore)
				return nil
			})
		}
		_ = g.Wait() // workers never return errors

		done := end
		span := domain.PercentReasoningDone - domain.PercentReasoning
		percentage := domain.PercentReasoning + done*span/total
		s.progress.Update(sess.id, domain.StageReasoning,
			fmt.Sprintf("Generated reasoning for %d/%d products", done, total),
			percentage)
		sess.publish(domain.StageReasoning, standard, domain.CloneProducts(out), summary)
	}

	return out
}

func intPtr(v int) *int { return &v }
