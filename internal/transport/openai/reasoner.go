// Package openai implements the reasoning and embedding backends over the
// OpenAI-compatible chat and embeddings APIs.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/shopsense/internal/domain"
)

// Reasoner drives query rewriting, reranking, and per-product reasoning via
// chat completions.
type Reasoner struct {
	client      *openai.Client
	model       string
	limiter     *rate.Limiter
	promptLimit int
	logger      *zap.Logger
}

// ReasonerConfig holds the chat provider settings.
type ReasonerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// RequestsPerSecond throttles all chat calls; zero disables throttling.
	RequestsPerSecond float64
	// PromptLimit caps how many products enter the rerank prompt.
	PromptLimit int
	Logger      *zap.Logger
}

// NewReasoner creates an OpenAI-compatible reasoning backend.
func NewReasoner(cfg *ReasonerConfig) *Reasoner {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Reasoner{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		limiter:     limiter,
		promptLimit: cfg.PromptLimit,
		logger:      cfg.Logger,
	}
}

// RewriteQuery rewrites the query for better retrieval given the persona.
func (r *Reasoner) RewriteQuery(ctx context.Context, query string, persona domain.Persona) (string, error) {
	content, err := r.complete(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Messages:    userMessage(rewritePrompt(query, persona)),
		Temperature: 0.3,
		MaxTokens:   100,
	})
	if err != nil {
		return "", err
	}

	rewritten := strings.TrimSpace(content)
	if rewritten == "" {
		return "", fmt.Errorf("empty rewrite response: %w", domain.ErrMalformedAnswer)
	}

	r.logger.Debug("Rewrote query",
		zap.String("original", query),
		zap.String("rewritten", rewritten))
	return rewritten, nil
}

// Rerank reorders products by persona relevance. Products the model names
// come first in the returned order; any it omits keep their relative order
// at the tail, so a partial answer never drops items.
func (r *Reasoner) Rerank(ctx context.Context, query string, persona domain.Persona, products []domain.Product) ([]domain.Product, error) {
	if len(products) == 0 {
		return nil, nil
	}

	prompted := products
	if r.promptLimit > 0 && len(prompted) > r.promptLimit {
		prompted = prompted[:r.promptLimit]
	}

	content, err := r.complete(ctx, openai.ChatCompletionRequest{
		Model:          r.model,
		Messages:       userMessage(rerankPrompt(query, persona, prompted)),
		Temperature:    0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return nil, err
	}

	var answer struct {
		ProductIDs []string `json:"product_ids"`
	}
	if err := json.Unmarshal([]byte(content), &answer); err != nil {
		return nil, fmt.Errorf("parse rerank response: %v: %w", err, domain.ErrMalformedAnswer)
	}
	if len(answer.ProductIDs) == 0 {
		return nil, fmt.Errorf("rerank response has no product ids: %w", domain.ErrMalformedAnswer)
	}

	return reorderByIDs(products, answer.ProductIDs), nil
}

// Reason generates a per-product explanation of the match.
func (r *Reasoner) Reason(ctx context.Context, product domain.Product, query string, persona domain.Persona) (domain.Reasoning, error) {
	content, err := r.complete(ctx, openai.ChatCompletionRequest{
		Model:          r.model,
		Messages:       userMessage(reasoningPrompt(product, query, persona)),
		Temperature:    0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return domain.Reasoning{}, err
	}

	var reasoning domain.Reasoning
	if err := json.Unmarshal([]byte(content), &reasoning); err != nil {
		return domain.Reasoning{}, fmt.Errorf("parse reasoning response: %v: %w", err, domain.ErrMalformedAnswer)
	}
	if err := reasoning.Validate(); err != nil {
		return domain.Reasoning{}, fmt.Errorf("reasoning for %s: %w", product.ID, err)
	}

	return reasoning, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (r *Reasoner) HealthCheck(ctx context.Context) error {
	if _, err := r.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (r *Reasoner) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", parseAPIError("chat", err, domain.ErrReasoningBackend)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response: %w", domain.ErrReasoningBackend)
	}

	return resp.Choices[0].Message.Content, nil
}

func userMessage(prompt string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}
}

// reorderByIDs puts products in the model's order, appending any it left out.
func reorderByIDs(products []domain.Product, ids []string) []domain.Product {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	out := make([]domain.Product, 0, len(products))
	taken := make(map[string]bool, len(ids))
	for _, id := range ids {
		if i, ok := byID[id]; ok && !taken[id] {
			out = append(out, products[i])
			taken[id] = true
		}
	}
	for _, p := range products {
		if !taken[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// parseAPIError extracts a human-readable error from the API response.
// Rate limit responses are additionally tagged with domain.ErrRateLimited.
func parseAPIError(op string, err error, wrap error) error {
	status := 0
	detail := ""

	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
		detail = extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		detail = apiErr.Message
	default:
		return fmt.Errorf("%s request failed: %w", op, wrap)
	}

	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%s API error %d: %s: %w: %w", op, status, detail, domain.ErrRateLimited, wrap)
	}
	return fmt.Errorf("%s API error %d: %s: %w", op, status, detail, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
