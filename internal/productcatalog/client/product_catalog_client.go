package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Avi18971911/Emporium/internal/productcatalog/model"
	"github.com/Avi18971911/Emporium/internal/telemetry/middleware"
)

// ProductCatalogClient is the typed HTTP client for the product catalog
// service, used by the cart and frontend services.
type ProductCatalogClient interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, productId string) (*model.Product, error)
}

type ProductCatalogClientImpl struct {
	baseUrl string
	client  *middleware.HTTPClient
}

func NewProductCatalogClientImpl(
	baseUrl string,
	client *middleware.HTTPClient,
) *ProductCatalogClientImpl {
	return &ProductCatalogClientImpl{
		baseUrl: baseUrl,
		client:  client,
	}
}

func (pc *ProductCatalogClientImpl) ListProducts(ctx context.Context) ([]model.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pc.baseUrl+"/products", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating product list request: %w", err)
	}
	res, err := pc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling the product catalog: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product catalog returned unexpected status %d", res.StatusCode)
	}
	var payload struct {
		Products []model.Product `json:"products"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("error decoding product list response: %w", err)
	}
	return payload.Products, nil
}

func (pc *ProductCatalogClientImpl) GetProduct(
	ctx context.Context,
	productId string,
) (*model.Product, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		pc.baseUrl+"/products/"+url.PathEscape(productId),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating product request: %w", err)
	}
	res, err := pc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling the product catalog: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, model.ErrProductNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product catalog returned unexpected status %d", res.StatusCode)
	}
	var product model.Product
	if err := json.NewDecoder(res.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("error decoding product response: %w", err)
	}
	return &product, nil
}
