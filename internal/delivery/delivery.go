// Package delivery is the carrier collaborator: rate quotes, shipment
// creation, tracking and cancellation.
package delivery

import (
	"context"
	"time"

	"github.com/floralane/flower-shop/internal/models"
)

type Package struct {
	WeightKg float64
	Items    int
}

type Rate struct {
	ServiceType       string
	Rate              float64
	Currency          string
	EstimatedDelivery time.Time
}

type Shipment struct {
	ID                string
	TrackingNumber    string
	Carrier           string
	ServiceType       string
	Status            string
	EstimatedDelivery time.Time
	TrackingURL       string
}

type TrackingEvent struct {
	Status    string
	Location  string
	Timestamp time.Time
}

type Provider interface {
	CalculateRate(ctx context.Context, addr models.Address, pkg Package, serviceType string) (*Rate, error)
	CreateShipment(ctx context.Context, order *models.Order) (*Shipment, error)
	Track(ctx context.Context, trackingNumber string) ([]TrackingEvent, error)
	Cancel(ctx context.Context, shipmentID string) error
}
