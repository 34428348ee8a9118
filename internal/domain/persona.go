package domain

import "fmt"

// Preferences holds a persona's shopping weights. All weights are in [0,1].
type Preferences struct {
	PriceWeight   float64 `json:"priceWeight" yaml:"price_weight"`
	QualityWeight float64 `json:"qualityWeight" yaml:"quality_weight"`
	BrandWeight   float64 `json:"brandWeight" yaml:"brand_weight"`
	Description   string  `json:"description" yaml:"description"`
}

// Persona is a weighted shopper profile used to bias query rewriting,
// reranking, and reasoning. Loaded once at startup and read-only afterwards.
type Persona struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Type        string      `json:"type" yaml:"type"`
	Avatar      string      `json:"avatar" yaml:"avatar"`
	Preferences Preferences `json:"preferences" yaml:"preferences"`
}

// NewPersona validates and constructs a persona. Out-of-range weights are
// rejected here, before any pipeline work can observe them.
func NewPersona(id, name, kind, avatar string, prefs Preferences) (Persona, error) {
	if id == "" {
		return Persona{}, fmt.Errorf("persona id is required: %w", ErrPersonaInvalid)
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"price_weight", prefs.PriceWeight},
		{"quality_weight", prefs.QualityWeight},
		{"brand_weight", prefs.BrandWeight},
	} {
		if w.value < 0 || w.value > 1 {
			return Persona{}, fmt.Errorf("persona %q: %s %g out of [0,1]: %w", id, w.name, w.value, ErrPersonaInvalid)
		}
	}
	return Persona{ID: id, Name: name, Type: kind, Avatar: avatar, Preferences: prefs}, nil
}
