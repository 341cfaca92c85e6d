package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Avi18971911/Emporium/internal/productcatalog/model"
	"github.com/Avi18971911/Emporium/internal/telemetry/middleware"
	traceModel "github.com/Avi18971911/Emporium/internal/telemetry/trace/model"
	traceService "github.com/Avi18971911/Emporium/internal/telemetry/trace/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestProductCatalogClientListProducts(t *testing.T) {
	t.Run("Decodes the product list returned by the catalog", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products", r.URL.Path)
			assert.NotEmpty(t, r.Header.Get("traceparent"))
			w.Header().Set("Content-Type", "application/json")
			err := json.NewEncoder(w).Encode(map[string]interface{}{
				"products": []model.Product{
					{
						Id:       "OLJCESPC7Z",
						Name:     "Vintage Typewriter",
						PriceUsd: model.Money{CurrencyCode: "USD", Units: 67, Nanos: 990000000},
					},
					{Id: "66VCHSJNUP", Name: "Vintage Camera Lens"},
				},
			})
			assert.NoError(t, err)
		}))
		defer server.Close()
		catalogClient := getNewCatalogClient(server.URL)

		products, err := catalogClient.ListProducts(context.Background())
		assert.NoError(t, err)
		assert.Len(t, products, 2)
		assert.Equal(t, "Vintage Typewriter", products[0].Name)
		assert.Equal(t, int64(67), products[0].PriceUsd.Units)
		assert.Equal(t, int32(990000000), products[0].PriceUsd.Nanos)
	})

	t.Run("Fails when the catalog returns a server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()
		catalogClient := getNewCatalogClient(server.URL)

		_, err := catalogClient.ListProducts(context.Background())
		assert.ErrorContains(t, err, "unexpected status 500")
	})
}

func TestProductCatalogClientGetProduct(t *testing.T) {
	t.Run("Requests and decodes a single product by id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products/OLJCESPC7Z", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			err := json.NewEncoder(w).Encode(model.Product{
				Id:       "OLJCESPC7Z",
				Name:     "Vintage Typewriter",
				PriceUsd: model.Money{CurrencyCode: "USD", Units: 67, Nanos: 990000000},
			})
			assert.NoError(t, err)
		}))
		defer server.Close()
		catalogClient := getNewCatalogClient(server.URL)

		product, err := catalogClient.GetProduct(context.Background(), "OLJCESPC7Z")
		assert.NoError(t, err)
		assert.Equal(t, "Vintage Typewriter", product.Name)
	})

	t.Run("Returns the not found sentinel for an unknown product", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, err := w.Write([]byte(`{"error": "Product not found"}`))
			assert.NoError(t, err)
		}))
		defer server.Close()
		catalogClient := getNewCatalogClient(server.URL)

		_, err := catalogClient.GetProduct(context.Background(), "MISSING")
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})

	t.Run("Fails when the catalog is unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()
		catalogClient := getNewCatalogClient(server.URL)

		_, err := catalogClient.GetProduct(context.Background(), "OLJCESPC7Z")
		assert.ErrorContains(t, err, "error calling the product catalog")
	})
}

func getNewCatalogClient(baseUrl string) *ProductCatalogClientImpl {
	tracer := traceService.NewTracer(&noopSpanExporter{}, traceService.TracerConfig{}, zap.NewNop())
	return NewProductCatalogClientImpl(baseUrl, middleware.NewHTTPClient(&http.Client{}, tracer))
}

type noopSpanExporter struct{}

func (e *noopSpanExporter) ExportSpans(ctx context.Context, spans []traceModel.Span) error {
	return nil
}

func (e *noopSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}
