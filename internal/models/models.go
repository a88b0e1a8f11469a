package models

import (
	"time"
)

type Product struct {
	ID            uint     `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name          string   `gorm:"not null"                  json:"name"`
	Description   string   `gorm:"not null"                  json:"description"`
	Price         float64  `gorm:"not null"                  json:"price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	Image         string   `json:"image"`
	WeightKg      float64  `json:"weight_kg"`
	InStock       bool     `gorm:"default:true"              json:"in_stock"`
}

// EffectivePrice is the discounted price when one is set and lower
// than the list price, otherwise the list price.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil && *p.DiscountPrice < p.Price {
		return *p.DiscountPrice
	}
	return p.Price
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type Cart struct {
	ID          uint       `gorm:"primaryKey"              json:"id"`
	UserID      uint       `gorm:"uniqueIndex;not null"    json:"user_id"`
	Items       []CartItem `gorm:"foreignKey:CartID"       json:"items"`
	TotalAmount float64    `gorm:"not null;default:0"      json:"total_amount"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RecalculateTotal keeps the cart invariant: total always equals
// sum(price * quantity) over items.
func (c *Cart) RecalculateTotal() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	c.TotalAmount = total
	return total
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey"                  json:"id"`
	CartID    uint    `gorm:"index;not null"              json:"-"`
	ProductID uint    `gorm:"not null"                    json:"product_id"`
	Quantity  uint    `gorm:"default:1;check:quantity>0"  json:"quantity"`
	Price     float64 `gorm:"not null"                    json:"price"`
	Name      string  `gorm:"not null"                    json:"name"`
	Image     string  `json:"image"`
}

type Address struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

type PaymentResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	UpdateTime    string `json:"update_time"`
	PayerEmail    string `json:"payer_email"`
}

type DeliveryInfo struct {
	Method            string     `json:"method"`
	Price             float64    `json:"price"`
	Status            string     `json:"status"`
	TrackingNumber    string     `json:"tracking_number"`
	Carrier           string     `json:"carrier"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
}

// Order is immutable once created except for the payment/delivery
// sub-records and the status lifecycle.
type Order struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// User snapshot, denormalized at creation time.
	UserID    uint   `gorm:"index;not null" json:"user_id"`
	UserName  string `gorm:"not null"       json:"user_name"`
	UserEmail string `gorm:"not null"       json:"user_email"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_"  json:"billing_address"`

	PaymentMethod string        `gorm:"not null"                         json:"payment_method"`
	Payment       PaymentResult `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	Delivery DeliveryInfo `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery"`

	Subtotal      float64 `gorm:"not null" json:"subtotal"`
	ShippingPrice float64 `gorm:"not null" json:"shipping_price"`
	Tax           float64 `gorm:"not null" json:"tax"`
	Discount      float64 `gorm:"not null" json:"discount"`
	Total         float64 `gorm:"not null" json:"total"`

	CouponCode string `json:"coupon_code,omitempty"`

	Status        OrderStatus `gorm:"not null;index"       json:"status"`
	InvoiceNumber string      `gorm:"uniqueIndex;not null" json:"invoice_number"`

	IsGift      bool   `gorm:"default:false" json:"is_gift"`
	GiftMessage string `json:"gift_message,omitempty"`

	IsPaid      bool       `gorm:"not null;default:false" json:"is_paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	IsDelivered bool       `gorm:"not null;default:false" json:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is a frozen snapshot of the product at order creation;
// later catalog changes never affect it.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey"     json:"id"`
	OrderID   uint    `gorm:"index;not null" json:"-"`
	ProductID uint    `gorm:"not null"       json:"product_id"`
	Name      string  `gorm:"not null"       json:"name"`
	Image     string  `json:"image"`
	UnitPrice float64 `gorm:"not null"       json:"unit_price"`
	Quantity  uint    `gorm:"not null;check:quantity>0" json:"quantity"`
	LineTotal float64 `gorm:"not null"       json:"line_total"`
}

// InvoiceCounter serializes invoice-number assignment: one row per
// calendar month, incremented atomically inside the order-creation
// transaction.
type InvoiceCounter struct {
	Period string `gorm:"primaryKey"`
	Seq    int64  `gorm:"not null;default:0"`
}

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

type Coupon struct {
	ID          uint       `gorm:"primaryKey"           json:"id"`
	Code        string     `gorm:"uniqueIndex;not null" json:"code"`
	Description string     `json:"description"`
	Type        CouponType `gorm:"not null"             json:"type"`
	Amount      float64    `gorm:"not null"             json:"amount"`
	MinPurchase float64    `gorm:"default:0"            json:"min_purchase"`
	MaxDiscount *float64   `json:"max_discount,omitempty"`
	StartDate   time.Time  `gorm:"not null"             json:"start_date"`
	EndDate     time.Time  `gorm:"not null"             json:"end_date"`
	IsActive    bool       `gorm:"default:true"         json:"is_active"`

	UsageLimit   *int64 `json:"usage_limit,omitempty"`
	UsageCount   int64  `gorm:"default:0" json:"usage_count"`
	PerUserLimit *int64 `json:"per_user_limit,omitempty"`

	FirstTimeOnly bool `gorm:"default:false" json:"first_time_only"`
}

// CouponUsage tracks per-user redemptions for the per-user limit and
// the first-time-only flag.
type CouponUsage struct {
	ID       uint  `gorm:"primaryKey"`
	CouponID uint  `gorm:"index:idx_coupon_user,unique;not null"`
	UserID   uint  `gorm:"index:idx_coupon_user,unique;not null"`
	Count    int64 `gorm:"not null;default:0"`
}

// ValidAt reports whether the coupon itself is redeemable at the given
// instant, ignoring per-user constraints.
func (cp *Coupon) ValidAt(now time.Time) bool {
	if !cp.IsActive {
		return false
	}
	if now.Before(cp.StartDate) || now.After(cp.EndDate) {
		return false
	}
	if cp.UsageLimit != nil && cp.UsageCount >= *cp.UsageLimit {
		return false
	}
	return true
}

// ValidForUser layers the per-user limits on top of ValidAt. usage is
// the user's redemption count so far, zero when the user never used it.
func (cp *Coupon) ValidForUser(usage int64, now time.Time) bool {
	if !cp.ValidAt(now) {
		return false
	}
	if cp.FirstTimeOnly && usage > 0 {
		return false
	}
	if cp.PerUserLimit != nil && usage >= *cp.PerUserLimit {
		return false
	}
	return true
}

// CalculateDiscount returns the discount for the given subtotal.
// Percentage discounts are capped by MaxDiscount when set; fixed
// discounts never exceed the subtotal; below the minimum purchase the
// discount is zero.
func (cp *Coupon) CalculateDiscount(subtotal float64) float64 {
	if subtotal < cp.MinPurchase {
		return 0
	}
	var discount float64
	if cp.Type == CouponPercentage {
		discount = subtotal * cp.Amount / 100
		if cp.MaxDiscount != nil && discount > *cp.MaxDiscount {
			discount = *cp.MaxDiscount
		}
	} else {
		discount = cp.Amount
		if discount > subtotal {
			discount = subtotal
		}
	}
	return discount
}
