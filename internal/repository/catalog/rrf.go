package catalog

import (
	"sort"

	"github.com/kailas-cloud/shopsense/internal/db"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges KNN and BM25 results via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) for each ranking where d appears.
// When a product appears in both lists, the KNN entry's fields are kept.
func fuseRRF(knn, bm25 []db.SearchEntry, topK int) []db.SearchEntry {
	type scored struct {
		entry db.SearchEntry
		score float64
	}

	merged := make(map[string]*scored)

	for rank, e := range knn {
		merged[e.Key] = &scored{entry: e, score: 1.0 / float64(rrfK+rank+1)}
	}

	for rank, e := range bm25 {
		s := 1.0 / float64(rrfK+rank+1)
		if existing, ok := merged[e.Key]; ok {
			existing.score += s
		} else {
			merged[e.Key] = &scored{entry: e, score: s}
		}
	}

	fused := make([]db.SearchEntry, 0, len(merged))
	for _, s := range merged {
		e := s.entry
		e.Score = s.score
		fused = append(fused, e)
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].Key < fused[j].Key
	})

	if len(fused) > topK {
		fused = fused[:topK]
	}

	return fused
}
