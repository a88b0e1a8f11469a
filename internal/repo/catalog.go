package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/floralane/flower-shop/internal/cache"
	"github.com/floralane/flower-shop/internal/logging"
	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/service"
	"gorm.io/gorm"
)

// Catalog is the product-catalog collaborator consumed by the cart and
// checkout services.
type Catalog interface {
	FindProduct(ctx context.Context, id uint) (*models.Product, error)
}

type GormCatalog struct {
	DB *gorm.DB
}

func (r *GormCatalog) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", service.ErrNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

// CachedCatalog is a cache-aside wrapper composed around a Catalog.
// Cache failures degrade to the inner catalog and are logged, never
// surfaced.
type CachedCatalog struct {
	Inner Catalog
	Cache cache.ProductCache
}

func (r *CachedCatalog) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := r.Cache.Get(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logging.FromContext(ctx).Warn("product cache get failed", "product_id", id, "error", err)
	}

	p, err = r.Inner.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.Cache.Set(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("product cache set failed", "product_id", id, "error", err)
	}
	return p, nil
}

// InvalidateProduct drops the cached entry after a catalog mutation.
func (r *CachedCatalog) InvalidateProduct(ctx context.Context, id uint) {
	if err := r.Cache.Delete(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("product cache delete failed", "product_id", id, "error", err)
	}
}
