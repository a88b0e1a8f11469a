// Package pricing computes the monetary breakdown of a checkout: item
// subtotal, shipping, tax, coupon discount and total. It is pure: no
// persistence, no clock reads, the caller supplies "now" for coupon
// validity.
package pricing

import (
	"math"
	"time"

	"github.com/floralane/flower-shop/internal/config"
	"github.com/floralane/flower-shop/internal/models"
)

const (
	MethodStandard = "standard"
	MethodExpress  = "express"
	MethodSameDay  = "same_day"
)

func ValidMethod(method string) bool {
	switch method {
	case MethodStandard, MethodExpress, MethodSameDay:
		return true
	}
	return false
}

// Line is one priced line item: the effective unit price times quantity.
type Line struct {
	UnitPrice float64
	Quantity  uint
}

type Amounts struct {
	Subtotal      float64 `json:"subtotal"`
	ShippingPrice float64 `json:"shipping_price"`
	Tax           float64 `json:"tax"`
	Discount      float64 `json:"discount"`
	Total         float64 `json:"total"`
}

type Engine struct {
	cfg config.Pricing
}

func NewEngine(cfg config.Pricing) *Engine {
	return &Engine{cfg: cfg}
}

// Quote prices an order. weightKg is the total package weight; coupon
// may be nil. couponUsage is the user's prior redemption count for the
// coupon, ignored when coupon is nil.
func (e *Engine) Quote(lines []Line, method string, weightKg float64, coupon *models.Coupon, couponUsage int64, now time.Time) Amounts {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.UnitPrice * float64(l.Quantity)
	}

	shipping := e.ShippingPrice(subtotal, method, weightKg)
	tax := Round2(subtotal * e.cfg.TaxRate)

	var discount float64
	if coupon != nil && coupon.ValidForUser(couponUsage, now) {
		discount = coupon.CalculateDiscount(subtotal)
	}

	total := subtotal + shipping + tax - discount
	if total < 0 {
		total = 0
	}

	return Amounts{
		Subtotal:      subtotal,
		ShippingPrice: shipping,
		Tax:           tax,
		Discount:      discount,
		Total:         total,
	}
}

// ShippingPrice applies the flat per-method schedule, the free-shipping
// override, and the linear weight surcharge above 1 kg. A threshold of
// zero or less disables free shipping.
func (e *Engine) ShippingPrice(subtotal float64, method string, weightKg float64) float64 {
	if e.cfg.FreeShippingThreshold > 0 && subtotal >= e.cfg.FreeShippingThreshold {
		return 0
	}

	var rate float64
	switch method {
	case MethodExpress:
		rate = e.cfg.ExpressRate
	case MethodSameDay:
		rate = e.cfg.SameDayRate
	default:
		rate = e.cfg.StandardRate
	}

	if weightKg > 1 {
		rate += (weightKg - 1) * e.cfg.WeightRatePerKg
	}
	return rate
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
