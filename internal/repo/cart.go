package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/service"
	"gorm.io/gorm"
)

type CartRepo struct {
	DB *gorm.DB
}

// GetOrCreate returns the user's cart, creating an empty one on first
// access. The unique index on user_id makes concurrent first access
// safe: the loser of the insert race re-reads.
func (r *CartRepo) GetOrCreate(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := r.Get(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, service.ErrNotFound) {
		return nil, err
	}

	fresh := models.Cart{UserID: userID, Items: []models.CartItem{}, TotalAmount: 0}
	if err := r.DB.WithContext(ctx).Create(&fresh).Error; err != nil {
		if cart, err2 := r.Get(ctx, userID); err2 == nil {
			return cart, nil
		}
		return nil, err
	}
	return &fresh, nil
}

func (r *CartRepo) Get(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cart for user %d", service.ErrNotFound, userID)
		}
		return nil, err
	}
	return &cart, nil
}

// Save persists the cart and replaces its line items in one
// transaction so a concurrent mutation cannot interleave between the
// item rewrite and the total update.
func (r *CartRepo) Save(ctx context.Context, cart *models.Cart) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for i := range cart.Items {
			cart.Items[i].ID = 0
			cart.Items[i].CartID = cart.ID
			if err := tx.Create(&cart.Items[i]).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
			Update("total_amount", cart.TotalAmount).Error
	})
}

// Clear empties the cart without deleting it. Idempotent; a missing
// cart is a no-op.
func (r *CartRepo) Clear(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Model(&cart).Update("total_amount", 0).Error
	})
}
