package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Avi18971911/Emporium/internal/cart/model"
	"github.com/Avi18971911/Emporium/internal/cart/store"
	"github.com/Avi18971911/Emporium/internal/productcatalog/client"
	productModel "github.com/Avi18971911/Emporium/internal/productcatalog/model"
	metricService "github.com/Avi18971911/Emporium/internal/telemetry/metric/service"
	traceService "github.com/Avi18971911/Emporium/internal/telemetry/trace/service"
	"go.uber.org/zap"
)

type CartService interface {
	AddItem(ctx context.Context, userId string, item model.CartItem) error
	GetCart(ctx context.Context, userId string) (*model.Cart, error)
	EmptyCart(ctx context.Context, userId string) error
}

// CartServiceImpl validates items against the product catalog before letting
// them into a cart, and keeps the cart_items_total instrument in step with
// every quantity change.
type CartServiceImpl struct {
	store         store.CartStore
	catalogClient client.ProductCatalogClient
	tracer        *traceService.Tracer
	itemsTotal    *metricService.UpDownCounter
	logger        *zap.Logger
}

func NewCartServiceImpl(
	store store.CartStore,
	catalogClient client.ProductCatalogClient,
	tracer *traceService.Tracer,
	itemsTotal *metricService.UpDownCounter,
	logger *zap.Logger,
) *CartServiceImpl {
	return &CartServiceImpl{
		store:         store,
		catalogClient: catalogClient,
		tracer:        tracer,
		itemsTotal:    itemsTotal,
		logger:        logger,
	}
}

func (cs *CartServiceImpl) AddItem(ctx context.Context, userId string, item model.CartItem) error {
	ctx, span := cs.tracer.Start(ctx, "add_to_cart")
	defer span.End()
	span.SetAttributes(map[string]string{
		"user.id":       userId,
		"product.id":    item.ProductID,
		"item.quantity": strconv.Itoa(item.Quantity),
	})

	if item.Quantity <= 0 {
		return model.ErrInvalidQuantity
	}
	if _, err := cs.getProductFromCatalog(ctx, item.ProductID); err != nil {
		return err
	}

	cs.store.AddItem(userId, item)
	cs.itemsTotal.Add(float64(item.Quantity), nil)
	cs.logger.Info(
		"Added item to cart",
		zap.String("user_id", userId),
		zap.String("product_id", item.ProductID),
		zap.Int("quantity", item.Quantity),
	)
	return nil
}

func (cs *CartServiceImpl) GetCart(ctx context.Context, userId string) (*model.Cart, error) {
	ctx, span := cs.tracer.Start(ctx, "get_cart")
	defer span.End()
	span.SetAttribute("user.id", userId)

	items := cs.store.Snapshot(userId)
	span.SetAttribute("cart.item_count", strconv.Itoa(len(items)))
	return &model.Cart{UserID: userId, Items: items}, nil
}

func (cs *CartServiceImpl) EmptyCart(ctx context.Context, userId string) error {
	ctx, span := cs.tracer.Start(ctx, "empty_cart")
	defer span.End()
	span.SetAttribute("user.id", userId)

	removed := cs.store.Empty(userId)
	if removed > 0 {
		cs.itemsTotal.Add(-float64(removed), nil)
	}
	span.SetAttribute("cart.items_removed", strconv.Itoa(removed))
	cs.logger.Info(
		"Emptied cart",
		zap.String("user_id", userId),
		zap.Int("removed_quantity", removed),
	)
	return nil
}

// getProductFromCatalog confirms the product exists before it may enter a
// cart. The catalog call is traced as its own child span.
func (cs *CartServiceImpl) getProductFromCatalog(
	ctx context.Context,
	productId string,
) (*productModel.Product, error) {
	ctx, span := cs.tracer.Start(ctx, "get_product_from_catalog")
	defer span.End()
	span.SetAttribute("product.id", productId)

	product, err := cs.catalogClient.GetProduct(ctx, productId)
	if err != nil {
		if errors.Is(err, productModel.ErrProductNotFound) {
			span.SetAttribute("product.found", "false")
			return nil, err
		}
		span.RecordError(err)
		return nil, fmt.Errorf("error validating product with the catalog: %w", err)
	}
	span.SetAttribute("product.name", product.Name)
	return product, nil
}
