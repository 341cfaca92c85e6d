package repository

import (
	"context"

	"github.com/Avi18971911/Emporium/internal/productcatalog/model"
)

type ProductRepository interface {
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductById(ctx context.Context, productId string) (*model.Product, error)
}
