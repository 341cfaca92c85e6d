package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Avi18971911/Emporium/internal/productcatalog/model"
	"github.com/Avi18971911/Emporium/internal/productcatalog/repository"
	traceService "github.com/Avi18971911/Emporium/internal/telemetry/trace/service"
	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

type ProductService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, productId string) (*model.Product, error)
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)
}

// ProductServiceImpl answers catalog reads and caches search results by
// normalized query. Cache entries are keyed on the lowercased trimmed query,
// so repeated searches skip the scan entirely.
type ProductServiceImpl struct {
	repository repository.ProductRepository
	cache      *ristretto.Cache
	tracer     *traceService.Tracer
	logger     *zap.Logger
}

func NewProductServiceImpl(
	repository repository.ProductRepository,
	cache *ristretto.Cache,
	tracer *traceService.Tracer,
	logger *zap.Logger,
) *ProductServiceImpl {
	return &ProductServiceImpl{
		repository: repository,
		cache:      cache,
		tracer:     tracer,
		logger:     logger,
	}
}

func (ps *ProductServiceImpl) ListProducts(ctx context.Context) ([]model.Product, error) {
	ctx, span := ps.tracer.Start(ctx, "list_products")
	defer span.End()

	products, err := ps.repository.GetAllProducts(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	span.SetAttribute("product.count", strconv.Itoa(len(products)))
	return products, nil
}

func (ps *ProductServiceImpl) GetProduct(ctx context.Context, productId string) (*model.Product, error) {
	ctx, span := ps.tracer.Start(ctx, "get_product")
	defer span.End()
	span.SetAttribute("product.id", productId)

	product, err := ps.repository.GetProductById(ctx, productId)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			span.SetAttribute("product.found", "false")
			return nil, model.ErrProductNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("error fetching product %s: %w", productId, err)
	}
	span.SetAttributes(map[string]string{
		"product.found": "true",
		"product.name":  product.Name,
	})
	return product, nil
}

func (ps *ProductServiceImpl) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	ctx, span := ps.tracer.Start(ctx, "search_products")
	defer span.End()
	normalizedQuery := strings.ToLower(strings.TrimSpace(query))
	span.SetAttribute("search.query", normalizedQuery)

	if cached, found := ps.cache.Get(normalizedQuery); found {
		typedProducts, ok := cached.([]model.Product)
		if !ok {
			return nil, fmt.Errorf("value not of expected type %T returned from cache when searching", cached)
		}
		span.SetAttributes(map[string]string{
			"search.results_count": strconv.Itoa(len(typedProducts)),
			"cache.hit":            "true",
		})
		return typedProducts, nil
	}

	products, err := ps.repository.GetAllProducts(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error listing products for search: %w", err)
	}
	matches := filterProducts(products, normalizedQuery)
	if set := ps.cache.Set(normalizedQuery, matches, int64(len(matches)+1)); !set {
		ps.logger.Debug("Search result not admitted to cache", zap.String("query", normalizedQuery))
	}
	span.SetAttributes(map[string]string{
		"search.results_count": strconv.Itoa(len(matches)),
		"cache.hit":            "false",
	})
	return matches, nil
}

// filterProducts keeps the products whose name, description, or any category
// contains the normalized query. An empty query matches everything.
func filterProducts(products []model.Product, normalizedQuery string) []model.Product {
	if normalizedQuery == "" {
		return products
	}
	matches := make([]model.Product, 0)
	for _, product := range products {
		if productMatches(product, normalizedQuery) {
			matches = append(matches, product)
		}
	}
	return matches
}

func productMatches(product model.Product, normalizedQuery string) bool {
	if strings.Contains(strings.ToLower(product.Name), normalizedQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(product.Description), normalizedQuery) {
		return true
	}
	for _, category := range product.Categories {
		if strings.Contains(strings.ToLower(category), normalizedQuery) {
			return true
		}
	}
	return false
}
