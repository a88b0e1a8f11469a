package delivery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/floralane/flower-shop/internal/config"
	"github.com/floralane/flower-shop/internal/logging"
	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/pricing"
	"github.com/floralane/flower-shop/internal/service"
	"github.com/google/uuid"
)

const carrierName = "Flora Express"

// FloraProvider quotes from the same flat schedule the pricing engine
// uses and issues shipments locally.
type FloraProvider struct {
	cfg config.Pricing

	mu        sync.Mutex
	shipments map[string]*Shipment
}

func NewFloraProvider(cfg config.Pricing) *FloraProvider {
	return &FloraProvider{cfg: cfg, shipments: make(map[string]*Shipment)}
}

func (p *FloraProvider) CalculateRate(ctx context.Context, addr models.Address, pkg Package, serviceType string) (*Rate, error) {
	if !pricing.ValidMethod(serviceType) {
		return nil, fmt.Errorf("%w: unknown service type %q", service.ErrInvalidArgument, serviceType)
	}

	var rate float64
	switch serviceType {
	case pricing.MethodExpress:
		rate = p.cfg.ExpressRate
	case pricing.MethodSameDay:
		rate = p.cfg.SameDayRate
	default:
		rate = p.cfg.StandardRate
	}
	if pkg.WeightKg > 1 {
		rate += (pkg.WeightKg - 1) * p.cfg.WeightRatePerKg
	}

	return &Rate{
		ServiceType:       serviceType,
		Rate:              rate,
		Currency:          strings.ToUpper(p.cfg.Currency),
		EstimatedDelivery: estimatedDelivery(serviceType, time.Now()),
	}, nil
}

func (p *FloraProvider) CreateShipment(ctx context.Context, order *models.Order) (*Shipment, error) {
	method := order.Delivery.Method
	if method == "" {
		method = pricing.MethodStandard
	}
	if !pricing.ValidMethod(method) {
		return nil, fmt.Errorf("%w: unknown delivery method %q", service.ErrInvalidArgument, method)
	}

	tracking := fmt.Sprintf("FL-%s", strings.ToUpper(uuid.NewString()[:12]))
	sh := &Shipment{
		ID:                fmt.Sprintf("del_%d_%d", order.ID, time.Now().Unix()),
		TrackingNumber:    tracking,
		Carrier:           carrierName,
		ServiceType:       method,
		Status:            "processing",
		EstimatedDelivery: estimatedDelivery(method, time.Now()),
		TrackingURL:       fmt.Sprintf("https://track.floraexpress.example/track/%s", tracking),
	}

	p.mu.Lock()
	p.shipments[sh.ID] = sh
	p.mu.Unlock()

	logging.FromContext(ctx).Info("shipment created",
		"order_id", order.ID, "tracking_number", tracking, "service", method)
	return sh, nil
}

func (p *FloraProvider) Track(ctx context.Context, trackingNumber string) ([]TrackingEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sh := range p.shipments {
		if sh.TrackingNumber == trackingNumber {
			return []TrackingEvent{{
				Status:    sh.Status,
				Location:  "dispatch center",
				Timestamp: time.Now(),
			}}, nil
		}
	}
	return nil, fmt.Errorf("%w: shipment %s", service.ErrNotFound, trackingNumber)
}

func (p *FloraProvider) Cancel(ctx context.Context, shipmentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	sh, ok := p.shipments[shipmentID]
	if !ok {
		return fmt.Errorf("%w: shipment %s", service.ErrNotFound, shipmentID)
	}
	sh.Status = "cancelled"
	return nil
}

func estimatedDelivery(serviceType string, now time.Time) time.Time {
	switch serviceType {
	case pricing.MethodExpress:
		return now.Add(24 * time.Hour)
	case pricing.MethodSameDay:
		return now.Add(10 * time.Hour)
	default:
		return now.Add(3 * 24 * time.Hour)
	}
}
