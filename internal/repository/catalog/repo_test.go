package catalog

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/shopsense/internal/db"
	"github.com/kailas-cloud/shopsense/internal/domain"
)

func TestStandardSearch_Success(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	ms.searchTextFn = func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if q.IndexName != "idx:products" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if q.Query != "wireless headphones" {
			t.Errorf("unexpected query: %s", q.Query)
		}
		if q.TopK != 50 {
			t.Errorf("unexpected topK: %d", q.TopK)
		}
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			productEntry("p1", "Headphones A", "99.99"),
			productEntry("p2", "Headphones B", "59.99"),
		}}, nil
	}

	products, err := repo.StandardSearch(context.Background(), "wireless headphones")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].ID != "p1" || products[0].Title != "Headphones A" || products[0].Price != 99.99 {
		t.Errorf("unexpected first product: %+v", products[0])
	}
}

func TestStandardSearch_BackendError(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	ms.searchTextFn = func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		return nil, errors.New("connection refused")
	}

	_, err := repo.StandardSearch(context.Background(), "query")
	if !errors.Is(err, domain.ErrSearchBackend) {
		t.Fatalf("expected ErrSearchBackend, got %v", err)
	}
}

func TestHybridSearch_FusesRankings(t *testing.T) {
	repo, ms, me := newTestRepo(t)

	me.embedFn = func(ctx context.Context, text string) ([]float32, error) {
		if text != "eco shoes" {
			t.Errorf("unexpected embed text: %s", text)
		}
		return []float32{0.5, 0.5}, nil
	}
	ms.searchKNNFn = func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if !reflect.DeepEqual(q.Vector, []float32{0.5, 0.5}) {
			t.Errorf("unexpected vector: %v", q.Vector)
		}
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			productEntry("p1", "A", "10"),
			productEntry("p2", "B", "20"),
		}}, nil
	}
	ms.searchTextFn = func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			productEntry("p2", "B", "20"),
			productEntry("p3", "C", "30"),
		}}, nil
	}

	products, err := repo.HybridSearch(context.Background(), "eco shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	// p2 appears in both rankings, so it wins the fusion.
	if products[0].ID != "p2" {
		t.Errorf("expected p2 first, got %s", products[0].ID)
	}
}

func TestHybridSearch_EmbedError(t *testing.T) {
	repo, _, me := newTestRepo(t)

	me.embedFn = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("quota exceeded")
	}

	_, err := repo.HybridSearch(context.Background(), "query")
	if !errors.Is(err, domain.ErrSearchBackend) {
		t.Fatalf("expected ErrSearchBackend, got %v", err)
	}
}

func TestHybridSearch_KNNError(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	ms.searchKNNFn = func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("index gone")
	}

	_, err := repo.HybridSearch(context.Background(), "query")
	if !errors.Is(err, domain.ErrSearchBackend) {
		t.Fatalf("expected ErrSearchBackend, got %v", err)
	}
}

func TestFuseRRF(t *testing.T) {
	knn := []db.SearchEntry{
		{Key: "a"}, {Key: "b"}, {Key: "c"},
	}
	bm25 := []db.SearchEntry{
		{Key: "b"}, {Key: "d"},
	}

	fused := fuseRRF(knn, bm25, 10)
	if len(fused) != 4 {
		t.Fatalf("expected 4 fused entries, got %d", len(fused))
	}
	// b: 1/62 + 1/61 beats a: 1/61
	if fused[0].Key != "b" {
		t.Errorf("expected b first, got %s", fused[0].Key)
	}
	if fused[1].Key != "a" {
		t.Errorf("expected a second, got %s", fused[1].Key)
	}
	if fused[0].Score <= fused[1].Score {
		t.Errorf("scores not descending: %f, %f", fused[0].Score, fused[1].Score)
	}
}

func TestFuseRRF_TopK(t *testing.T) {
	knn := []db.SearchEntry{{Key: "a"}, {Key: "b"}, {Key: "c"}}

	fused := fuseRRF(knn, nil, 2)
	if len(fused) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(fused))
	}
}

func TestEntryToProduct_Full(t *testing.T) {
	entry := db.SearchEntry{
		Key: "shopsense:product:p9",
		Fields: map[string]string{
			fieldID:             "p9",
			fieldTitle:          "Trail Runner",
			fieldDescription:    "Lightweight trail shoe",
			fieldPrice:          "80",
			fieldImageURL:       "https://img.example/p9.jpg",
			fieldBrand:          "Northpeak",
			fieldCategory:       "Footwear",
			fieldFeatures:       `["waterproof","recycled sole"]`,
			fieldSustainability: "B Corp certified",
			fieldRating:         "4.5",
			fieldReviews:        "231",
			fieldOriginalPrice:  "100",
		},
	}

	p := entryToProduct(entry, "shopsense:product:")
	if p.ID != "p9" || p.Title != "Trail Runner" || p.Brand != "Northpeak" {
		t.Errorf("unexpected product: %+v", p)
	}
	if !reflect.DeepEqual(p.Features, []string{"waterproof", "recycled sole"}) {
		t.Errorf("unexpected features: %v", p.Features)
	}
	if p.OriginalPrice == nil || *p.OriginalPrice != 100 {
		t.Fatalf("expected originalPrice 100, got %v", p.OriginalPrice)
	}
	// (100 - 80) / 100 = 20%
	if p.Discount == nil || *p.Discount != 20 {
		t.Fatalf("expected discount 20, got %v", p.Discount)
	}
	if p.StockStatus != "In Stock" || p.Delivery != "Free Delivery" {
		t.Errorf("expected defaults, got %q / %q", p.StockStatus, p.Delivery)
	}
}

func TestEntryToProduct_Defaults(t *testing.T) {
	entry := db.SearchEntry{
		Key:    "shopsense:product:p1",
		Fields: map[string]string{},
	}

	p := entryToProduct(entry, "shopsense:product:")
	if p.ID != "p1" {
		t.Errorf("expected ID from key, got %s", p.ID)
	}
	if p.Title != "Untitled Product" {
		t.Errorf("expected default title, got %s", p.Title)
	}
	if p.OriginalPrice != nil || p.Discount != nil {
		t.Errorf("expected no price markdown fields, got %+v", p)
	}
}

func TestEntryToProduct_NoDiscountWhenNotMarkedDown(t *testing.T) {
	entry := db.SearchEntry{
		Key: "shopsense:product:p1",
		Fields: map[string]string{
			fieldID:            "p1",
			fieldPrice:         "100",
			fieldOriginalPrice: "100",
		},
	}

	p := entryToProduct(entry, "shopsense:product:")
	if p.OriginalPrice == nil || *p.OriginalPrice != 100 {
		t.Fatalf("expected originalPrice 100, got %v", p.OriginalPrice)
	}
	if p.Discount != nil {
		t.Errorf("expected no discount, got %d", *p.Discount)
	}
}
