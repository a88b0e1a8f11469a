package cache

import (
	"context"
	"errors"

	"github.com/floralane/flower-shop/internal/models"
)

// ProductCache fronts the product catalog. Implementations must treat a
// missing entry as ErrCacheMiss, not an error.
type ProductCache interface {
	Get(ctx context.Context, id uint) (*models.Product, error)
	Set(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uint) error
}

var ErrCacheMiss = errors.New("cache miss")
