package repository

import (
	"context"

	"github.com/Avi18971911/Emporium/internal/productcatalog/model"
)

// ProductRepositoryInMemory serves the demo catalog from a fixed product
// list. Reads hand out copies so callers can never mutate the fixtures.
type ProductRepositoryInMemory struct {
	products []model.Product
}

func NewProductRepositoryInMemory() *ProductRepositoryInMemory {
	return &ProductRepositoryInMemory{
		products: catalogProducts,
	}
}

func (pr *ProductRepositoryInMemory) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	products := make([]model.Product, len(pr.products))
	for i, product := range pr.products {
		products[i] = copyProduct(product)
	}
	return products, nil
}

func (pr *ProductRepositoryInMemory) GetProductById(
	ctx context.Context,
	productId string,
) (*model.Product, error) {
	for _, product := range pr.products {
		if product.Id == productId {
			found := copyProduct(product)
			return &found, nil
		}
	}
	return nil, model.ErrProductNotFound
}

func copyProduct(product model.Product) model.Product {
	categories := make([]string, len(product.Categories))
	copy(categories, product.Categories)
	product.Categories = categories
	return product
}

var catalogProducts = []model.Product{
	{
		Id:          "OLJCESPC7Z",
		Name:        "Vintage Typewriter",
		Description: "This typewriter looks good in your living room.",
		Picture:     "/static/img/products/typewriter.jpg",
		PriceUsd:    model.Money{CurrencyCode: "USD", Units: 67, Nanos: 990000000},
		Categories:  []string{"vintage"},
	},
	{
		Id:          "66VCHSJNUP",
		Name:        "Vintage Camera Lens",
		Description: "You won't have a camera to use it and it probably doesn't work anyway.",
		Picture:     "/static/img/products/camera-lens.jpg",
		PriceUsd:    model.Money{CurrencyCode: "USD", Units: 12, Nanos: 490000000},
		Categories:  []string{"photography", "vintage"},
	},
	{
		Id:          "1YMWWN1N4O",
		Name:        "Home Barista Kit",
		Description: "Always wanted to brew coffee with Chemex and Aeropress at home?",
		Picture:     "/static/img/products/barista-kit.jpg",
		PriceUsd:    model.Money{CurrencyCode: "USD", Units: 124, Nanos: 0},
		Categories:  []string{"kitchen"},
	},
	{
		Id:          "L9ECAV7KIM",
		Name:        "Terrarium",
		Description: "This terrarium will looks great in your white painted living room.",
		Picture:     "/static/img/products/terrarium.jpg",
		PriceUsd:    model.Money{CurrencyCode: "USD", Units: 36, Nanos: 450000000},
		Categories:  []string{"gardening"},
	},
	{
		Id:          "2ZYFJ3GM2N",
		Name:        "Film Camera",
		Description: "This camera looks like it's a film camera, but it's actually digital.",
		Picture:     "/static/img/products/film-camera.jpg",
		PriceUsd:    model.Money{CurrencyCode: "USD", Units: 2245, Nanos: 0},
		Categories:  []string{"photography", "vintage"},
	},
}
