package domain

import (
	"fmt"
	"strings"
)

// Stage is a phase of the search pipeline. Stages are strictly ordered and
// never revisited within one search.
type Stage string

const (
	StageInitiated      Stage = "initiated"
	StageStandardSearch Stage = "standard_search"
	StageQueryRewriting Stage = "query_rewriting"
	StageEnhancedSearch Stage = "enhanced_search"
	StageReranking      Stage = "reranking"
	StageReasoning      Stage = "reasoning"
	StageComplete       Stage = "complete"
	StageError          Stage = "error"
)

// Terminal reports whether the stage ends a search lifecycle.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// Progress percentage anchors per stage. The reasoning stage interpolates
// between PercentReasoning and PercentReasoningDone as batches complete.
const (
	PercentInitiated      = 0
	PercentStandardSearch = 10
	PercentQueryRewriting = 20
	PercentEnhancedSearch = 30
	PercentReranking      = 50
	PercentReasoning      = 70
	PercentReasoningDone  = 90
	PercentComplete       = 100
)

// SearchRequest carries one shopper query through the pipeline. Immutable
// once accepted.
type SearchRequest struct {
	Query               string `json:"query"`
	PersonaID           string `json:"personaId"`
	VectorSearchEnabled bool   `json:"vectorSearchEnabled"`
	RerankerEnabled     bool   `json:"rerankerEnabled"`
	ReasoningEnabled    bool   `json:"reasoningEnabled"`
}

// Validate rejects malformed requests before any pipeline work starts.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("query is required: %w", ErrInvalidRequest)
	}
	return nil
}

// SearchSummary aggregates a rank-delta comparison between the standard and
// AI result lists.
type SearchSummary struct {
	TotalProductCount      int     `json:"totalProductCount"`
	ImprovedRankCount      int     `json:"improvedRankCount"`
	NewProductCount        int     `json:"newProductCount"`
	RemovedProductCount    int     `json:"removedProductCount"`
	AverageRankImprovement float64 `json:"averageRankImprovement"`
}

// ProgressRecord is the current progress of one search. Overwritten on every
// stage transition, never appended.
type ProgressRecord struct {
	SearchID   string `json:"search_id"`
	Stage      Stage  `json:"stage"`
	Message    string `json:"message"`
	Percentage int    `json:"percentage"`
}

// SearchResponse is the snapshot returned to polling clients. Once a search
// completes the response is immutable and served verbatim on every poll.
type SearchResponse struct {
	SearchID        string         `json:"search_id"`
	Progress        Stage          `json:"progress"`
	StandardResults []Product      `json:"standardResults"`
	AIResults       []Product      `json:"aiResults"`
	Summary         *SearchSummary `json:"summary"`
}
