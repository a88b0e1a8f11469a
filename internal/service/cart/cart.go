// Package cart implements the per-user cart aggregate: line items with
// price snapshots and a total recomputed on every mutation.
package cart

import (
	"context"
	"fmt"

	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/repo"
	"github.com/floralane/flower-shop/internal/service"
)

type Service struct {
	Carts   *repo.CartRepo
	Catalog repo.Catalog
}

// Get returns the user's cart, lazily creating an empty one. Never
// fails for a missing cart.
func (s *Service) Get(ctx context.Context, userID uint) (*models.Cart, error) {
	return s.Carts.GetOrCreate(ctx, userID)
}

// AddItem merges quantity into an existing line for the same product
// instead of duplicating it, snapshotting the product's current
// effective price, name and image. Re-adding refreshes the line's
// price snapshot to the current catalog price.
func (s *Service) AddItem(ctx context.Context, userID, productID uint, quantity uint) (*models.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.Catalog.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.InStock {
		return nil, fmt.Errorf("%w: %s", service.ErrOutOfStock, product.Name)
	}

	cart, err := s.Carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	price := product.EffectivePrice()
	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			cart.Items[i].Price = price
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			Price:     price,
			Name:      product.Name,
			Image:     product.Image,
		})
	}

	cart.RecalculateTotal()
	if err := s.Carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItemQuantity overwrites the line's quantity. Fails for
// non-positive quantities and for a missing cart or line.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID uint, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", service.ErrInvalidArgument)
	}

	cart, err := s.Carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = uint(quantity)
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: item %d not in cart", service.ErrNotFound, productID)
	}

	cart.RecalculateTotal()
	if err := s.Carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem filters the line out. Removing an absent item is a no-op,
// but a missing cart is NotFound.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) (*models.Cart, error) {
	cart, err := s.Carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	cart.Items = kept

	cart.RecalculateTotal()
	if err := s.Carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart and zeroes the total. Idempotent.
func (s *Service) Clear(ctx context.Context, userID uint) error {
	return s.Carts.Clear(ctx, userID)
}
