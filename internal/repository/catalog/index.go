package catalog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shopsense/internal/db"
	"github.com/kailas-cloud/shopsense/internal/domain"
)

// IndexDefinition is the FT schema the catalog searches against. The seeder
// creates it; the repo assumes it exists.
func IndexDefinition(cfg Config, vectorDim int) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     cfg.IndexName,
		Prefixes: []string{cfg.KeyPrefix},
		Fields: []db.IndexField{
			{Name: fieldTitle, Type: db.IndexFieldText},
			{Name: fieldDescription, Type: db.IndexFieldText},
			{Name: fieldBrand, Type: db.IndexFieldText},
			{Name: fieldCategory, Type: db.IndexFieldTag},
			{Name: fieldSustainability, Type: db.IndexFieldText},
			{Name: fieldPrice, Type: db.IndexFieldNumeric},
			{Name: fieldRating, Type: db.IndexFieldNumeric},
			{Name: fieldReviews, Type: db.IndexFieldNumeric},
			{
				Name:           fieldVector,
				Type:           db.IndexFieldVector,
				VectorDim:      vectorDim,
				VectorDistance: db.DistanceCosine,
			},
		},
	}
}

// HashFields flattens a product and its embedding into the hash the index
// consumes. Inverse of entryToProduct.
func HashFields(p domain.Product, vector []float32) map[string]string {
	fields := map[string]string{
		fieldID:          p.ID,
		fieldTitle:       p.Title,
		fieldDescription: p.Description,
		fieldPrice:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		fieldImageURL:    p.Image,
		fieldBrand:       p.Brand,
		fieldCategory:    p.Category,
		fieldRating:      strconv.FormatFloat(p.Rating, 'f', -1, 64),
		fieldReviews:     strconv.Itoa(p.Reviews),
	}

	if p.Sustainability != "" {
		fields[fieldSustainability] = p.Sustainability
	}
	if len(p.Features) > 0 {
		raw, err := json.Marshal(p.Features)
		if err == nil {
			fields[fieldFeatures] = string(raw)
		}
	}
	if p.OriginalPrice != nil {
		fields[fieldOriginalPrice] = strconv.FormatFloat(*p.OriginalPrice, 'f', -1, 64)
	}
	if len(vector) > 0 {
		fields[fieldVector] = db.VectorBlob(vector)
	}

	return fields
}

// EmbeddingText is the text embedded for a product: the descriptive fields
// joined so one vector covers title, description, brand, and features.
func EmbeddingText(p domain.Product) string {
	parts := make([]string, 0, 5)
	for _, s := range []string{p.Title, p.Description, p.Brand, p.Category} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(p.Features) > 0 {
		parts = append(parts, strings.Join(p.Features, ", "))
	}
	return strings.Join(parts, ". ")
}
