package domain

// Product is a single catalog item flowing through the search pipeline.
// The JSON field names are the service's wire format and are consumed by the
// storefront UI as-is. ID is the stable identity key: every merge, join, and
// rank-delta computation keys on it, never on list position.
type Product struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Price          float64  `json:"price"`
	Image          string   `json:"img,omitempty"`
	OriginalPrice  *float64 `json:"originalPrice,omitempty"`
	Discount       *int     `json:"discount,omitempty"`
	Brand          string   `json:"brand,omitempty"`
	Category       string   `json:"category,omitempty"`
	Features       []string `json:"features,omitempty"`
	Sustainability string   `json:"sustainability,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	Reviews        int      `json:"reviews,omitempty"`
	StockStatus    string   `json:"stockStatus,omitempty"`
	Delivery       string   `json:"delivery,omitempty"`

	// Pipeline-computed fields. Nil means "not computed" or "absent from the
	// counterpart ranking" — the distinction clients rely on for new/removed
	// item badges.
	Match        *int       `json:"match,omitempty"`
	StandardRank *int       `json:"standardRank,omitempty"`
	AIRank       *int       `json:"aiRank,omitempty"`
	RankChange   *int       `json:"rankChange,omitempty"`
	Reasoning    *Reasoning `json:"aiReasoning,omitempty"`
}

// CloneProducts returns a shallow copy of the slice. Pipeline stages that
// annotate products in place work on their own copy so published snapshots
// stay immutable.
func CloneProducts(items []Product) []Product {
	out := make([]Product, len(items))
	copy(out, items)
	return out
}
