package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepo struct {
	DB *gorm.DB
}

// Create persists the order, its invoice number and the coupon
// redemption (when one applies) in one transaction. The sequence comes
// from the per-month counter row; the unique index on invoice_number
// fails loudly if the counter is ever bypassed.
func (r *OrderRepo) Create(ctx context.Context, order *models.Order, prefix string, coupon *models.Coupon) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created := order.CreatedAt
		period := fmt.Sprintf("%02d-%02d", created.Year()%100, int(created.Month()))

		seq, err := nextInvoiceSeq(tx, period)
		if err != nil {
			return fmt.Errorf("invoice counter: %w", err)
		}
		order.InvoiceNumber = fmt.Sprintf("%s-%s-%04d", prefix, period, seq)

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		if coupon != nil {
			if err := redeemCoupon(tx, coupon.ID, order.UserID); err != nil {
				return fmt.Errorf("redeem coupon: %w", err)
			}
		}
		return nil
	})
}

// nextInvoiceSeq increments the month's counter row atomically; the
// in-row UPDATE serializes concurrent checkouts on the database side.
func nextInvoiceSeq(tx *gorm.DB, period string) (int64, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.InvoiceCounter{Period: period}).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&models.InvoiceCounter{}).Where("period = ?", period).
		UpdateColumn("seq", gorm.Expr("seq + ?", 1)).Error; err != nil {
		return 0, err
	}
	var ctr models.InvoiceCounter
	if err := tx.Where("period = ?", period).First(&ctr).Error; err != nil {
		return 0, err
	}
	return ctr.Seq, nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", service.ErrNotFound, id)
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) Save(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: false}).Save(order).Error
}

type ListFilter struct {
	UserID *uint
	Status models.OrderStatus
	Sort   string
	Limit  int
	Offset int
}

func (r *OrderRepo) List(ctx context.Context, f ListFilter) ([]models.Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	switch f.Sort {
	case "oldest":
		order = "created_at ASC"
	case "total_desc":
		order = "total DESC"
	case "total_asc":
		order = "total ASC"
	}

	var orders []models.Order
	err := q.Preload("Items").Order(order).Limit(f.Limit).Offset(f.Offset).Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
