package model

import (
	productModel "github.com/Avi18971911/Emporium/internal/productcatalog/model"
)

// CartViewItem is one cart line joined with its catalog product. LineTotal is
// the decimal price times quantity, rendered exactly.
type CartViewItem struct {
	Product   productModel.Product `json:"product"`
	Quantity  int                  `json:"quantity"`
	LineTotal string               `json:"line_total"`
}

// CartView is the aggregated cart a shopper sees: every item enriched with
// product data plus cart-wide totals.
type CartView struct {
	UserID     string         `json:"user_id"`
	Items      []CartViewItem `json:"items"`
	TotalItems int            `json:"total_items"`
	TotalPrice string         `json:"total_price"`
	Currency   string         `json:"currency"`
}
