package handler

import (
	"errors"
	"net/http"

	"github.com/Avi18971911/Emporium/internal/productcatalog/model"
	"github.com/Avi18971911/Emporium/internal/productcatalog/service"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ProductListResponseDTO struct {
	Products []model.Product `json:"products"`
}

type ProductSearchResponseDTO struct {
	Query    string          `json:"query"`
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
}

// ProductListHandler creates a handler returning every product in the catalog.
func ProductListHandler(s service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := s.ListProducts(r.Context())
		if err != nil {
			logger.Error("Error encountered when listing products", zap.Error(err))
			HttpError(w, "Error encountered when listing products", http.StatusInternalServerError, logger)
			return
		}
		writeJSONResponse(w, ProductListResponseDTO{Products: products}, logger)
	}
}

// ProductGetHandler creates a handler returning a single product by id.
func ProductGetHandler(s service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productId := mux.Vars(r)["id"]
		product, err := s.GetProduct(r.Context(), productId)
		if err != nil {
			if errors.Is(err, model.ErrProductNotFound) {
				HttpError(w, "Product not found", http.StatusNotFound, logger)
				return
			}
			logger.Error("Error encountered when fetching product", zap.String("product_id", productId), zap.Error(err))
			HttpError(w, "Error encountered when fetching product", http.StatusInternalServerError, logger)
			return
		}
		writeJSONResponse(w, product, logger)
	}
}

// ProductSearchHandler creates a handler returning the products matching the
// q query parameter. An empty query matches the whole catalog.
func ProductSearchHandler(s service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		products, err := s.SearchProducts(r.Context(), query)
		if err != nil {
			logger.Error("Error encountered when searching products", zap.String("query", query), zap.Error(err))
			HttpError(w, "Error encountered when searching products", http.StatusInternalServerError, logger)
			return
		}
		writeJSONResponse(w, ProductSearchResponseDTO{
			Query:    query,
			Products: products,
			Total:    len(products),
		}, logger)
	}
}
