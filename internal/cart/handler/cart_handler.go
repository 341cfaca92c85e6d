package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Avi18971911/Emporium/internal/cart/model"
	"github.com/Avi18971911/Emporium/internal/cart/service"
	productModel "github.com/Avi18971911/Emporium/internal/productcatalog/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type MessageResponseDTO struct {
	Message string `json:"message"`
}

// CartAddItemHandler creates a handler that adds an item to a user's cart.
// The product must exist in the catalog and the quantity must be positive.
func CartAddItemHandler(s service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId := mux.Vars(r)["user_id"]

		var item model.CartItem
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

		err = s.AddItem(r.Context(), userId, item)
		if err != nil {
			if errors.Is(err, model.ErrInvalidQuantity) {
				HttpError(w, "Quantity must be positive", http.StatusBadRequest, logger)
				return
			}
			if errors.Is(err, productModel.ErrProductNotFound) {
				HttpError(w, "Product not found", http.StatusBadRequest, logger)
				return
			}
			logger.Error(
				"Error encountered when adding item to cart",
				zap.String("user_id", userId),
				zap.Error(err),
			)
			HttpError(w, "Product catalog unavailable", http.StatusBadGateway, logger)
			return
		}
		writeJSONResponse(w, MessageResponseDTO{Message: "Item added to cart"}, logger)
	}
}

// CartGetHandler creates a handler returning the user's cart. Unknown users
// get an empty cart.
func CartGetHandler(s service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId := mux.Vars(r)["user_id"]
		cart, err := s.GetCart(r.Context(), userId)
		if err != nil {
			logger.Error("Error encountered when fetching cart", zap.String("user_id", userId), zap.Error(err))
			HttpError(w, "Error encountered when fetching cart", http.StatusInternalServerError, logger)
			return
		}
		writeJSONResponse(w, cart, logger)
	}
}

// CartEmptyHandler creates a handler that removes every item from the user's
// cart.
func CartEmptyHandler(s service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId := mux.Vars(r)["user_id"]
		err := s.EmptyCart(r.Context(), userId)
		if err != nil {
			logger.Error("Error encountered when emptying cart", zap.String("user_id", userId), zap.Error(err))
			HttpError(w, "Error encountered when emptying cart", http.StatusInternalServerError, logger)
			return
		}
		writeJSONResponse(w, MessageResponseDTO{Message: "Cart emptied"}, logger)
	}
}
