// Package order implements the order aggregate: checkout orchestration
// over the cart, catalog, pricing engine and external collaborators,
// plus the status lifecycle of a created order.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/floralane/flower-shop/internal/config"
	"github.com/floralane/flower-shop/internal/delivery"
	"github.com/floralane/flower-shop/internal/logging"
	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/notify"
	"github.com/floralane/flower-shop/internal/payment"
	"github.com/floralane/flower-shop/internal/pricing"
	"github.com/floralane/flower-shop/internal/repo"
	"github.com/floralane/flower-shop/internal/service"
)

type Service struct {
	Orders  *repo.OrderRepo
	Users   *repo.UserRepo
	Carts   *repo.CartRepo
	Coupons *repo.CouponRepo
	Catalog repo.Catalog
	Pricer  *pricing.Engine
	Gateway payment.Gateway
	Courier delivery.Provider
	Notify  notify.Service
	Cfg     config.Pricing

	// Now is the clock; tests pin it.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type RequestedItem struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type CreateInput struct {
	Items           []RequestedItem `json:"items"`
	ShippingAddress models.Address  `json:"shipping_address"`
	BillingAddress  *models.Address `json:"billing_address,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	DeliveryMethod  string          `json:"delivery_method"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	IsGift          bool            `json:"is_gift"`
	GiftMessage     string          `json:"gift_message,omitempty"`
}

func validPaymentMethod(m string) bool {
	switch m {
	case "card", "cash", "online":
		return true
	}
	return false
}

// Create converts validated checkout input into a persisted order with
// status pending. Item resolution is all-or-nothing: any missing or
// out-of-stock product aborts the whole order. The cart is cleared
// best-effort after the order is durably committed.
func (s *Service) Create(ctx context.Context, userID uint, in CreateInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: no order items", service.ErrInvalidArgument)
	}
	if !validPaymentMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("%w: payment method %q", service.ErrInvalidArgument, in.PaymentMethod)
	}
	method := in.DeliveryMethod
	if method == "" {
		method = pricing.MethodStandard
	}
	if !pricing.ValidMethod(method) {
		return nil, fmt.Errorf("%w: delivery method %q", service.ErrInvalidArgument, method)
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", service.ErrInvalidArgument)
		}
	}

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	lines := make([]pricing.Line, 0, len(in.Items))
	var weightKg float64
	for _, it := range in.Items {
		product, err := s.Catalog.FindProduct(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.InStock {
			return nil, fmt.Errorf("%w: %s", service.ErrOutOfStock, product.Name)
		}

		price := product.EffectivePrice()
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			UnitPrice: price,
			Quantity:  it.Quantity,
			LineTotal: price * float64(it.Quantity),
		})
		lines = append(lines, pricing.Line{UnitPrice: price, Quantity: it.Quantity})
		weightKg += product.WeightKg * float64(it.Quantity)
	}

	now := s.now()

	var coupon *models.Coupon
	var couponUsage int64
	if in.CouponCode != "" {
		coupon, err = s.Coupons.FindByCode(ctx, in.CouponCode)
		if err != nil {
			return nil, err
		}
		couponUsage, err = s.Coupons.UserUsage(ctx, coupon.ID, userID)
		if err != nil {
			return nil, err
		}
		if !coupon.ValidForUser(couponUsage, now) {
			return nil, fmt.Errorf("%w: coupon %s is not valid", service.ErrInvalidArgument, coupon.Code)
		}
	}

	amounts := s.Pricer.Quote(lines, method, weightKg, coupon, couponUsage, now)

	billing := in.ShippingAddress
	if in.BillingAddress != nil {
		billing = *in.BillingAddress
	}

	order := &models.Order{
		UserID:          user.ID,
		UserName:        user.Name,
		UserEmail:       user.Email,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   in.PaymentMethod,
		Payment:         models.PaymentResult{Status: "pending"},
		Delivery: models.DeliveryInfo{
			Method: method,
			Price:  amounts.ShippingPrice,
			Status: "processing",
		},
		Subtotal:      amounts.Subtotal,
		ShippingPrice: amounts.ShippingPrice,
		Tax:           amounts.Tax,
		Discount:      amounts.Discount,
		Total:         amounts.Total,
		Status:        models.StatusPending,
		IsGift:        in.IsGift,
		GiftMessage:   in.GiftMessage,
		CreatedAt:     now,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}

	if err := s.Orders.Create(ctx, order, s.Cfg.InvoicePrefix, coupon); err != nil {
		return nil, err
	}

	// Best-effort: the order is committed, a stale cart is recoverable.
	if err := s.Carts.Clear(ctx, userID); err != nil {
		logging.FromContext(ctx).Error("cart clear after checkout failed",
			"user_id", userID, "order_id", order.ID, "error", err)
	}

	s.Notify.OrderConfirmed(ctx, order)
	return order, nil
}

// Get returns the order after an ownership check: only the owner or an
// admin may read it.
func (s *Service) Get(ctx context.Context, orderID, callerID uint, isAdmin bool) (*models.Order, error) {
	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID && !isAdmin {
		return nil, fmt.Errorf("%w: order %d", service.ErrForbidden, orderID)
	}
	return order, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Order, int64, error) {
	return s.Orders.List(ctx, repo.ListFilter{UserID: &userID, Limit: limit, Offset: offset})
}

func (s *Service) ListAll(ctx context.Context, status models.OrderStatus, sort string, limit, offset int) ([]models.Order, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("%w: status %q", service.ErrInvalidArgument, status)
	}
	return s.Orders.List(ctx, repo.ListFilter{Status: status, Sort: sort, Limit: limit, Offset: offset})
}

// CreatePaymentIntent asks the gateway for a client secret for the
// order's total and records the pending transaction id.
func (s *Service) CreatePaymentIntent(ctx context.Context, orderID, callerID uint, isAdmin bool) (*payment.Intent, error) {
	order, err := s.Get(ctx, orderID, callerID, isAdmin)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, fmt.Errorf("%w: order %d", service.ErrAlreadyPaid, orderID)
	}

	intent, err := s.Gateway.CreateIntent(ctx, order)
	if err != nil {
		return nil, err
	}

	order.Payment.TransactionID = intent.ID
	if err := s.Orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return intent, nil
}
