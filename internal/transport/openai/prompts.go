package openai

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/shopsense/internal/domain"
)

func personaBlock(p domain.Persona) string {
	return fmt.Sprintf(`User preferences:
- Price sensitivity: %g/10
- Quality importance: %g/10
- Brand importance: %g/10
- Description: %s`,
		p.Preferences.PriceWeight*10,
		p.Preferences.QualityWeight*10,
		p.Preferences.BrandWeight*10,
		p.Preferences.Description,
	)
}

func rewritePrompt(query string, persona domain.Persona) string {
	return fmt.Sprintf(`You are an expert search query optimizer. Rewrite the following search query to improve
product search results. Consider the user's preferences when rewriting the query.

Original query: %s

%s

Return only the rewritten query without explanation.`,
		query, personaBlock(persona))
}

func rerankPrompt(query string, persona domain.Persona, products []domain.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		brand := p.Brand
		if brand == "" {
			brand = "Unknown"
		}
		category := p.Category
		if category == "" {
			category = "General"
		}
		lines = append(lines, fmt.Sprintf("ID: %s, Title: %s, Brand: %s, Price: $%g, Category: %s",
			p.ID, p.Title, brand, p.Price, category))
	}

	return fmt.Sprintf(`You are an expert product recommendation system. Rerank the following product search results
based on the user's preferences and the search query.

Search query: %s

%s

Products:
%s

Return a JSON array of product IDs in order of relevance to the user. Only include the IDs, nothing else.
Format: {"product_ids": ["id1", "id2", "id3", ...]}`,
		query, personaBlock(persona), strings.Join(lines, "\n"))
}

func reasoningPrompt(product domain.Product, query string, persona domain.Persona) string {
	brand := product.Brand
	if brand == "" {
		brand = "Unknown"
	}
	category := product.Category
	if category == "" {
		category = "General"
	}
	features := "None listed"
	if len(product.Features) > 0 {
		top := product.Features
		if len(top) > 3 {
			top = top[:3]
		}
		features = strings.Join(top, ", ")
	}

	return fmt.Sprintf(`You are an expert shopping assistant that explains product recommendations.
Explain why the following product would be a good match for this user based on their preferences.

Product:
- Title: %s
- Brand: %s
- Price: $%g
- Category: %s
- Features: %s
- Rating: %g out of 5 (%d reviews)

%s

Search query: %s

Return a JSON object with the following structure:
{
    "text": "Brief explanation of why this product matches the user (2-3 sentences)",
    "confidenceScore": 0-100,
    "factors": [
        {
            "factor": "Factor name",
            "weight": 0-100,
            "description": "Brief explanation of this factor"
        },
        ...at least 2 more factors...
    ]
}`,
		product.Title, brand, product.Price, category, features,
		product.Rating, product.Reviews, personaBlock(persona), query)
}
