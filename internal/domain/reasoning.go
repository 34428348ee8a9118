package domain

import "fmt"

// ReasoningFactor is one weighted component of a product explanation.
type ReasoningFactor struct {
	Factor      string `json:"factor"`
	Weight      int    `json:"weight"` // 0-100
	Description string `json:"description"`
}

// Reasoning is a natural-language justification for why a product matches a
// query and persona, plus the weighted factors behind it.
type Reasoning struct {
	Text            string            `json:"text"`
	ConfidenceScore int               `json:"confidenceScore"` // 0-100
	Factors         []ReasoningFactor `json:"factors"`
}

// DefaultReasoning is the deterministic fallback used when per-product
// reasoning generation fails. Results with it are still well-formed, so a
// flaky LLM call never removes a product from the response.
func DefaultReasoning(p Product, query string) Reasoning {
	brand := p.Brand
	if brand == "" {
		brand = "brand"
	}
	return Reasoning{
		Text:            fmt.Sprintf("This %s %s matches your search for '%s'.", brand, p.Title, query),
		ConfidenceScore: 75,
		Factors: []ReasoningFactor{
			{
				Factor:      "Brand reputation",
				Weight:      80,
				Description: fmt.Sprintf("The %s brand has a solid reputation.", brand),
			},
			{
				Factor:      "Price point",
				Weight:      75,
				Description: fmt.Sprintf("This product's price of $%g fits your budget considerations.", p.Price),
			},
			{
				Factor:      "Customer ratings",
				Weight:      85,
				Description: fmt.Sprintf("With %g stars from %d reviews, this product has proven quality.", p.Rating, p.Reviews),
			},
		},
	}
}

// Validate checks the reasoning invariants: confidence and factor weights in
// [0,100] and at least one factor.
func (r *Reasoning) Validate() error {
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 100 {
		return fmt.Errorf("confidence score %d out of [0,100]: %w", r.ConfidenceScore, ErrMalformedAnswer)
	}
	if len(r.Factors) == 0 {
		return fmt.Errorf("reasoning needs at least one factor: %w", ErrMalformedAnswer)
	}
	for _, f := range r.Factors {
		if f.Weight < 0 || f.Weight > 100 {
			return fmt.Errorf("factor %q weight %d out of [0,100]: %w", f.Factor, f.Weight, ErrMalformedAnswer)
		}
	}
	return nil
}
