package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	cartClient "github.com/Avi18971911/Emporium/internal/cart/client"
	cartModel "github.com/Avi18971911/Emporium/internal/cart/model"
	"github.com/Avi18971911/Emporium/internal/frontend/service"
	productModel "github.com/Avi18971911/Emporium/internal/productcatalog/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ProductListResponseDTO struct {
	Products []productModel.Product `json:"products"`
}

type MessageResponseDTO struct {
	Message string `json:"message"`
}

// ProductListHandler creates a handler serving the catalog's product list
// through the frontend.
func ProductListHandler(s service.FrontendService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := s.ListProducts(r.Context())
		if err != nil {
			logger.Error("Error encountered when listing products", zap.Error(err))
			HttpError(w, "Product catalog unavailable", http.StatusBadGateway, logger)
			return
		}
		writeJSONResponse(w, ProductListResponseDTO{Products: products}, logger)
	}
}

// ProductGetHandler creates a handler serving one catalog product through the
// frontend.
func ProductGetHandler(s service.FrontendService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productId := mux.Vars(r)["id"]
		product, err := s.GetProduct(r.Context(), productId)
		if err != nil {
			if errors.Is(err, productModel.ErrProductNotFound) {
				HttpError(w, "Product not found", http.StatusNotFound, logger)
				return
			}
			logger.Error(
				"Error encountered when fetching product",
				zap.String("product_id", productId),
				zap.Error(err),
			)
			HttpError(w, "Product catalog unavailable", http.StatusBadGateway, logger)
			return
		}
		writeJSONResponse(w, product, logger)
	}
}

// CartViewHandler creates a handler returning the user's cart enriched with
// product data and totals.
func CartViewHandler(s service.FrontendService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId := mux.Vars(r)["user_id"]
		cartView, err := s.GetCartView(r.Context(), userId)
		if err != nil {
			logger.Error("Error encountered when loading cart view", zap.String("user_id", userId), zap.Error(err))
			HttpError(w, "Failed to load cart", http.StatusBadGateway, logger)
			return
		}
		writeJSONResponse(w, cartView, logger)
	}
}

// CartAddItemHandler creates a handler relaying an add-to-cart request to the
// cart service. Client errors from the cart service keep their status and
// message.
func CartAddItemHandler(s service.FrontendService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId := mux.Vars(r)["user_id"]

		var item cartModel.CartItem
		err := json.NewDecoder(r.Body).Decode(&item)
		if err != nil {
			logger.Error("Error encountered when decoding request body", zap.Error(err))
			HttpError(w, "Invalid request body", http.StatusBadRequest, logger)
			return
		}

		defer func(body io.ReadCloser) {
			err := body.Close()
			if err != nil {
				logger.Error("Error encountered when closing request body", zap.Error(err))
			}
		}(r.Body)

		err = s.AddCartItem(r.Context(), userId, item)
		if err != nil {
			writeCartError(w, "Cart service unavailable", err, logger)
			return
		}
		writeJSONResponse(w, MessageResponseDTO{Message: "Item added to cart"}, logger)
	}
}

// CartEmptyHandler creates a handler relaying a cart-empty request to the
// cart service.
func CartEmptyHandler(s service.FrontendService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId := mux.Vars(r)["user_id"]
		err := s.EmptyCart(r.Context(), userId)
		if err != nil {
			writeCartError(w, "Cart service unavailable", err, logger)
			return
		}
		writeJSONResponse(w, MessageResponseDTO{Message: "Cart emptied"}, logger)
	}
}

// writeCartError relays a downstream client error verbatim and folds
// everything else into a bad gateway.
func writeCartError(w http.ResponseWriter, fallback string, err error, logger *zap.Logger) {
	var statusError *cartClient.StatusError
	if errors.As(err, &statusError) &&
		statusError.StatusCode >= http.StatusBadRequest &&
		statusError.StatusCode < http.StatusInternalServerError {
		HttpError(w, statusError.Message, statusError.StatusCode, logger)
		return
	}
	logger.Error("Error encountered when calling the cart service", zap.Error(err))
	HttpError(w, fallback, http.StatusBadGateway, logger)
}
