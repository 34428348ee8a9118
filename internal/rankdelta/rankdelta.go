// Package rankdelta computes per-product rank annotations and aggregate
// statistics between two ranked lists of the same conceptual result set.
package rankdelta

import "github.com/kailas-cloud/shopsense/internal/domain"

// Compute annotates both lists with 1-based ranks and rank changes, keyed by
// product id, and derives summary statistics over the "after" list.
//
// A positive rank change means the product moved up between the standard and
// AI rankings. Products absent from the counterpart list get nil for the
// missing rank and for the change. The function never reorders its inputs; it
// returns annotated copies and is free of side effects.
func Compute(before, after []domain.Product) ([]domain.Product, []domain.Product, domain.SearchSummary) {
	beforePos := positionsByID(before)
	afterPos := positionsByID(after)

	annotatedBefore := domain.CloneProducts(before)
	for i := range annotatedBefore {
		p := &annotatedBefore[i]
		p.StandardRank = intPtr(i + 1)
		if pos, ok := afterPos[p.ID]; ok {
			p.AIRank = intPtr(pos + 1)
			p.RankChange = intPtr(*p.StandardRank - *p.AIRank)
		} else {
			p.AIRank = nil
			p.RankChange = nil
		}
	}

	annotatedAfter := domain.CloneProducts(after)
	for i := range annotatedAfter {
		p := &annotatedAfter[i]
		p.AIRank = intPtr(i + 1)
		if pos, ok := beforePos[p.ID]; ok {
			p.StandardRank = intPtr(pos + 1)
			p.RankChange = intPtr(*p.StandardRank - *p.AIRank)
		} else {
			p.StandardRank = nil
			p.RankChange = nil
		}
	}

	return annotatedBefore, annotatedAfter, summarize(annotatedBefore, annotatedAfter, afterPos)
}

// Identity annotates a single list against itself: equal ranks, zero change.
// Used for the pure-lexical shortcut where no AI ranking exists.
func Identity(items []domain.Product) ([]domain.Product, domain.SearchSummary) {
	annotated := domain.CloneProducts(items)
	for i := range annotated {
		annotated[i].StandardRank = intPtr(i + 1)
		annotated[i].AIRank = intPtr(i + 1)
		annotated[i].RankChange = intPtr(0)
	}
	return annotated, domain.SearchSummary{TotalProductCount: len(annotated)}
}

func summarize(before, after []domain.Product, afterPos map[string]int) domain.SearchSummary {
	improved := 0
	newCount := 0
	totalImprovement := 0
	for _, p := range after {
		if p.RankChange != nil && *p.RankChange > 0 {
			improved++
			totalImprovement += *p.RankChange
		}
		if p.StandardRank == nil {
			newCount++
		}
	}

	removed := 0
	for _, p := range before {
		if _, ok := afterPos[p.ID]; !ok {
			removed++
		}
	}

	avg := 0.0
	if improved > 0 {
		avg = float64(totalImprovement) / float64(improved)
	}

	return domain.SearchSummary{
		TotalProductCount:      len(after),
		ImprovedRankCount:      improved,
		NewProductCount:        newCount,
		RemovedProductCount:    removed,
		AverageRankImprovement: avg,
	}
}

func positionsByID(items []domain.Product) map[string]int {
	m := make(map[string]int, len(items))
	for i, p := range items {
		m[p.ID] = i
	}
	return m
}

func intPtr(v int) *int { return &v }
