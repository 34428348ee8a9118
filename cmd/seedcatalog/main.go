// Command seedcatalog loads a product JSON file into the search index:
// it creates the FT index when missing, embeds each product's descriptive
// text, and writes the product hashes the API searches over.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopsense/internal/config"
	"github.com/kailas-cloud/shopsense/internal/db"
	dbRedis "github.com/kailas-cloud/shopsense/internal/db/redis"
	"github.com/kailas-cloud/shopsense/internal/domain"
	logpkg "github.com/kailas-cloud/shopsense/internal/logger"
	"github.com/kailas-cloud/shopsense/internal/metrics"
	"github.com/kailas-cloud/shopsense/internal/repository/catalog"
	"github.com/kailas-cloud/shopsense/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/shopsense/internal/transport/openai"
)

// seedProduct is the on-disk product format. Field names match the hash
// contract, not the API wire format.
type seedProduct struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	ImageURL       string   `json:"image_url"`
	Brand          string   `json:"brand"`
	Category       string   `json:"category"`
	Features       []string `json:"features"`
	Sustainability string   `json:"sustainability"`
	Rating         float64  `json:"rating"`
	Reviews        int      `json:"reviews"`
	OriginalPrice  *float64 `json:"original_price"`
}

func main() {
	file := flag.String("file", "data/products.json", "product JSON file to load")
	reuseIndex := flag.Bool("reuse-index", false, "tolerate an existing search index instead of failing")
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	products, err := readProducts(*file)
	if err != nil {
		logger.Fatal("Failed to read product file", zap.String("file", *file), zap.Error(err))
	}
	logger.Info("Loaded products", zap.String("file", *file), zap.Int("count", len(products)))

	catalogCfg := catalog.Config{
		IndexName: cfg.Search.IndexName,
		KeyPrefix: cfg.Search.KeyPrefix,
		TopK:      cfg.Search.TopK,
	}

	if err := ensureIndex(ctx, store, catalogCfg, cfg.OpenAI.EmbeddingDimensions, *reuseIndex, logger); err != nil {
		logger.Fatal("Failed to create index", zap.Error(err))
	}

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		Model:             cfg.OpenAI.EmbeddingModel,
		Dimensions:        cfg.OpenAI.EmbeddingDimensions,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		Logger:            logger,
	})
	// Cached so reseeding an unchanged catalog costs no embedding calls.
	embedder := embcache.New(
		baseEmbedder, store,
		time.Duration(cfg.OpenAI.EmbeddingCacheTTLH)*time.Hour,
		metrics.EmbeddingCacheTotal, logger,
	)

	seeded, failed := 0, 0
	for _, sp := range products {
		if sp.ID == "" {
			logger.Warn("Skipping product without id", zap.String("title", sp.Title))
			failed++
			continue
		}

		p := toDomain(sp)

		vector, err := embedder.Embed(ctx, catalog.EmbeddingText(p))
		if err != nil {
			logger.Warn("Failed to embed product", zap.String("id", p.ID), zap.Error(err))
			failed++
			continue
		}

		key := catalogCfg.KeyPrefix + p.ID
		if err := store.HSet(ctx, key, catalog.HashFields(p, vector)); err != nil {
			logger.Warn("Failed to write product", zap.String("id", p.ID), zap.Error(err))
			failed++
			continue
		}
		seeded++
	}

	logger.Info("Seeding finished", zap.Int("seeded", seeded), zap.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}

func readProducts(file string) ([]seedProduct, error) {
	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var products []seedProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse products: %w", err)
	}
	if len(products) == 0 {
		return nil, errors.New("product file is empty")
	}
	return products, nil
}

func ensureIndex(
	ctx context.Context,
	store db.Store,
	cfg catalog.Config,
	vectorDim int,
	tolerateExisting bool,
	logger *zap.Logger,
) error {
	def := catalog.IndexDefinition(cfg, vectorDim)

	err := store.CreateIndex(ctx, def)
	switch {
	case err == nil:
		logger.Info("Created search index", zap.String("index", cfg.IndexName))
		return nil
	case errors.Is(err, db.ErrIndexExists) && tolerateExisting:
		logger.Info("Search index already exists", zap.String("index", cfg.IndexName))
		return nil
	case errors.Is(err, db.ErrIndexExists):
		return fmt.Errorf("index %s already exists (re-run with -reuse-index): %w", cfg.IndexName, err)
	default:
		return err
	}
}

func toDomain(sp seedProduct) domain.Product {
	return domain.Product{
		ID:             sp.ID,
		Title:          sp.Title,
		Description:    sp.Description,
		Price:          sp.Price,
		Image:          sp.ImageURL,
		Brand:          sp.Brand,
		Category:       sp.Category,
		Features:       sp.Features,
		Sustainability: sp.Sustainability,
		Rating:         sp.Rating,
		Reviews:        sp.Reviews,
		OriginalPrice:  sp.OriginalPrice,
	}
}
