package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Money represents a price as whole units plus nanos so that the wire format
// carries no floating point values.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Units        int64  `json:"units"`
	Nanos        int32  `json:"nanos"`
}

// Decimal returns the exact decimal value of the amount.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.Units).Add(decimal.New(int64(m.Nanos), -9))
}

type Product struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Picture     string   `json:"picture"`
	PriceUsd    Money    `json:"price_usd"`
	Categories  []string `json:"categories"`
}

var ErrProductNotFound = errors.New("product not found")
