package catalog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shopsense/internal/db"
	"github.com/kailas-cloud/shopsense/internal/domain"
)

// Hash fields written by the catalog seeder. The vector blob is index-only
// and never surfaces in API responses.
const (
	fieldID             = "id"
	fieldTitle          = "title"
	fieldDescription    = "description"
	fieldPrice          = "price"
	fieldImageURL       = "image_url"
	fieldBrand          = "brand"
	fieldCategory       = "category"
	fieldFeatures       = "features"
	fieldSustainability = "sustainability"
	fieldRating         = "rating"
	fieldReviews        = "reviews"
	fieldOriginalPrice  = "original_price"
	fieldVector         = "vector"
)

func entriesToProducts(entries []db.SearchEntry, keyPrefix string) []domain.Product {
	products := make([]domain.Product, 0, len(entries))
	for _, e := range entries {
		products = append(products, entryToProduct(e, keyPrefix))
	}
	return products
}

// entryToProduct maps flat hash fields into a domain.Product.
func entryToProduct(entry db.SearchEntry, keyPrefix string) domain.Product {
	f := entry.Fields

	p := domain.Product{
		ID:             f[fieldID],
		Title:          f[fieldTitle],
		Description:    f[fieldDescription],
		Price:          parseFloat(f[fieldPrice]),
		Image:          f[fieldImageURL],
		Brand:          f[fieldBrand],
		Category:       f[fieldCategory],
		Features:       parseFeatures(f[fieldFeatures]),
		Sustainability: f[fieldSustainability],
		Rating:         parseFloat(f[fieldRating]),
		Reviews:        parseInt(f[fieldReviews]),
		StockStatus:    "In Stock",
		Delivery:       "Free Delivery",
	}

	if p.ID == "" {
		p.ID = strings.TrimPrefix(entry.Key, keyPrefix)
	}
	if p.Title == "" {
		p.Title = "Untitled Product"
	}

	if raw, ok := f[fieldOriginalPrice]; ok {
		original := parseFloat(raw)
		p.OriginalPrice = &original
		// Discount only when the item is actually marked down.
		if original > p.Price && p.Price > 0 {
			discount := int((original - p.Price) / original * 100)
			p.Discount = &discount
		}
	}

	return p
}

func parseFeatures(raw string) []string {
	if raw == "" {
		return nil
	}
	var features []string
	if err := json.Unmarshal([]byte(raw), &features); err != nil {
		return nil
	}
	return features
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
