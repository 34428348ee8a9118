// Package persona loads and serves the read-only shopper persona registry.
package persona

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/shopsense/internal/domain"
)

// Registry holds all personas, loaded once at startup and immutable
// afterwards. The declaration order is preserved so the fallback persona is
// deterministic.
type Registry struct {
	personas map[string]domain.Persona
	order    []string
	logger   *zap.Logger
}

// Load builds the registry. If file is empty the built-in personas are used,
// otherwise the YAML file replaces them. Personas with out-of-range weights
// are rejected.
func Load(file string, logger *zap.Logger) (*Registry, error) {
	defs := builtinPersonas()
	if file != "" {
		loaded, err := readFile(file)
		if err != nil {
			return nil, err
		}
		defs = loaded
	}

	r := &Registry{
		personas: make(map[string]domain.Persona, len(defs)),
		order:    make([]string, 0, len(defs)),
		logger:   logger,
	}
	for _, d := range defs {
		p, err := domain.NewPersona(d.ID, d.Name, d.Type, d.Avatar, d.Preferences)
		if err != nil {
			return nil, err
		}
		if _, dup := r.personas[p.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q: %w", p.ID, domain.ErrPersonaInvalid)
		}
		r.personas[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	if len(r.order) == 0 {
		return nil, fmt.Errorf("at least one persona is required: %w", domain.ErrPersonaInvalid)
	}
	return r, nil
}

// Resolve returns the persona for id, falling back to the first registered
// persona with a warning when the id is unknown. Never fails.
func (r *Registry) Resolve(id string) domain.Persona {
	if p, ok := r.personas[id]; ok {
		return p
	}
	fallback := r.order[0]
	r.logger.Warn("persona not found, using fallback",
		zap.String("persona_id", id),
		zap.String("fallback_id", fallback),
	)
	return r.personas[fallback]
}

// All returns the personas in declaration order.
func (r *Registry) All() []domain.Persona {
	out := make([]domain.Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.personas[id])
	}
	return out
}

func readFile(file string) ([]domain.Persona, error) {
	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return nil, fmt.Errorf("read personas file: %w", err)
	}
	var parsed struct {
		Personas []domain.Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse personas file: %w", err)
	}
	return parsed.Personas, nil
}

// builtinPersonas are the personas the service ships with.
func builtinPersonas() []domain.Persona {
	return []domain.Persona{
		{
			ID: "luxury", Name: "Luxury Diva", Type: "Premium Shopper",
			Avatar: "https://placehold.co/100x100",
			Preferences: domain.Preferences{
				PriceWeight: 0.2, QualityWeight: 0.9, BrandWeight: 0.9,
				Description: "Focuses on premium brands and luxury items",
			},
		},
		{
			ID: "smart", Name: "Smart Saver", Type: "Value Hunter",
			Avatar: "https://placehold.co/100x100",
			Preferences: domain.Preferences{
				PriceWeight: 0.9, QualityWeight: 0.6, BrandWeight: 0.4,
				Description: "Hunts for the best deals and discounts",
			},
		},
		{
			ID: "tech", Name: "Tech Maven", Type: "Early Adopter",
			Avatar: "https://placehold.co/100x100",
			Preferences: domain.Preferences{
				PriceWeight: 0.5, QualityWeight: 0.8, BrandWeight: 0.7,
				Description: "Loves latest gadgets and innovations",
			},
		},
		{
			ID: "eco", Name: "Eco Warrior", Type: "Sustainable Shopper",
			Avatar: "https://placehold.co/100x100",
			Preferences: domain.Preferences{
				PriceWeight: 0.4, QualityWeight: 0.8, BrandWeight: 0.6,
				Description: "Prioritizes eco-friendly and sustainable products",
			},
		},
	}
}
