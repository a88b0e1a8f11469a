package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CouponRepo struct {
	DB *gorm.DB
}

func (r *CouponRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var cp models.Coupon
	err := r.DB.WithContext(ctx).Where("code = ?", strings.ToUpper(code)).First(&cp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: coupon %q", service.ErrNotFound, code)
		}
		return nil, err
	}
	return &cp, nil
}

// UserUsage returns how many times the user has redeemed the coupon.
func (r *CouponRepo) UserUsage(ctx context.Context, couponID, userID uint) (int64, error) {
	var usage models.CouponUsage
	err := r.DB.WithContext(ctx).Where("coupon_id = ? AND user_id = ?", couponID, userID).First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return usage.Count, nil
}

// redeemCoupon bumps the global and per-user counters inside the
// caller's transaction.
func redeemCoupon(tx *gorm.DB, couponID, userID uint) error {
	if err := tx.Model(&models.Coupon{}).Where("id = ?", couponID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error; err != nil {
		return err
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "coupon_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
	}).Create(&models.CouponUsage{CouponID: couponID, UserID: userID, Count: 1}).Error; err != nil {
		return err
	}
	return nil
}
