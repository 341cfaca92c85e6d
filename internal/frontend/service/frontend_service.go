package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	cartClient "github.com/Avi18971911/Emporium/internal/cart/client"
	cartModel "github.com/Avi18971911/Emporium/internal/cart/model"
	"github.com/Avi18971911/Emporium/internal/frontend/model"
	productClient "github.com/Avi18971911/Emporium/internal/productcatalog/client"
	productModel "github.com/Avi18971911/Emporium/internal/productcatalog/model"
	traceService "github.com/Avi18971911/Emporium/internal/telemetry/trace/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type FrontendService interface {
	ListProducts(ctx context.Context) ([]productModel.Product, error)
	GetProduct(ctx context.Context, productId string) (*productModel.Product, error)
	GetCartView(ctx context.Context, userId string) (*model.CartView, error)
	AddCartItem(ctx context.Context, userId string, item cartModel.CartItem) error
	EmptyCart(ctx context.Context, userId string) error
}

// FrontendServiceImpl composes the catalog and cart services into the views
// the storefront serves. Catalog and cart calls ride on the instrumented HTTP
// client, so every downstream hop shows up as a child span of the inbound
// request.
type FrontendServiceImpl struct {
	catalogClient productClient.ProductCatalogClient
	cartClient    cartClient.CartClient
	tracer        *traceService.Tracer
	logger        *zap.Logger
}

func NewFrontendServiceImpl(
	catalogClient productClient.ProductCatalogClient,
	cartClient cartClient.CartClient,
	tracer *traceService.Tracer,
	logger *zap.Logger,
) *FrontendServiceImpl {
	return &FrontendServiceImpl{
		catalogClient: catalogClient,
		cartClient:    cartClient,
		tracer:        tracer,
		logger:        logger,
	}
}

func (fs *FrontendServiceImpl) ListProducts(ctx context.Context) ([]productModel.Product, error) {
	return fs.catalogClient.ListProducts(ctx)
}

func (fs *FrontendServiceImpl) GetProduct(
	ctx context.Context,
	productId string,
) (*productModel.Product, error) {
	return fs.catalogClient.GetProduct(ctx, productId)
}

func (fs *FrontendServiceImpl) AddCartItem(
	ctx context.Context,
	userId string,
	item cartModel.CartItem,
) error {
	return fs.cartClient.AddItem(ctx, userId, item)
}

func (fs *FrontendServiceImpl) EmptyCart(ctx context.Context, userId string) error {
	return fs.cartClient.EmptyCart(ctx, userId)
}

// GetCartView fetches the user's cart and joins every line with its catalog
// product, fetching the products concurrently. Items whose product has
// vanished from the catalog are dropped from the view rather than failing it.
func (fs *FrontendServiceImpl) GetCartView(
	ctx context.Context,
	userId string,
) (*model.CartView, error) {
	ctx, span := fs.tracer.Start(ctx, "view_cart")
	defer span.End()
	span.SetAttribute("user.id", userId)

	cart, err := fs.cartClient.GetCart(ctx, userId)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error fetching cart for view: %w", err)
	}

	enriched := make([]model.CartViewItem, len(cart.Items))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, item := range cart.Items {
		i, item := i, item
		group.Go(func() error {
			product, err := fs.catalogClient.GetProduct(groupCtx, item.ProductID)
			if err != nil {
				if errors.Is(err, productModel.ErrProductNotFound) {
					fs.logger.Warn(
						"Cart references a product missing from the catalog",
						zap.String("user_id", userId),
						zap.String("product_id", item.ProductID),
					)
					return nil
				}
				return fmt.Errorf("error enriching cart item %s: %w", item.ProductID, err)
			}
			lineTotal := product.PriceUsd.Decimal().Mul(decimal.NewFromInt(int64(item.Quantity)))
			enriched[i] = model.CartViewItem{
				Product:   *product,
				Quantity:  item.Quantity,
				LineTotal: lineTotal.String(),
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	items := make([]model.CartViewItem, 0, len(enriched))
	totalItems := 0
	totalPrice := decimal.Zero
	currency := "USD"
	for _, viewItem := range enriched {
		if viewItem.Product.Id == "" {
			continue
		}
		items = append(items, viewItem)
		totalItems += viewItem.Quantity
		totalPrice = totalPrice.Add(
			viewItem.Product.PriceUsd.Decimal().Mul(decimal.NewFromInt(int64(viewItem.Quantity))),
		)
		currency = viewItem.Product.PriceUsd.CurrencyCode
	}
	span.SetAttributes(map[string]string{
		"cart.item_count":  strconv.Itoa(len(items)),
		"cart.total_price": totalPrice.String(),
	})
	return &model.CartView{
		UserID:     userId,
		Items:      items,
		TotalItems: totalItems,
		TotalPrice: totalPrice.String(),
		Currency:   currency,
	}, nil
}
