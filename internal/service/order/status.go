package order

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/floralane/flower-shop/internal/logging"
	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/payment"
	"github.com/floralane/flower-shop/internal/service"
)

// PaymentCapture carries the gateway's capture result into MarkPaid.
type PaymentCapture struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	UpdateTime    string `json:"update_time"`
	PayerEmail    string `json:"payer_email"`
}

// ShipmentInfo is the delivery data required for the shipped
// transition. When nil, the courier collaborator is asked to create
// the shipment.
type ShipmentInfo struct {
	TrackingNumber    string `json:"tracking_number"`
	Carrier           string `json:"carrier"`
	EstimatedDelivery string `json:"estimated_delivery"`
}

// MarkPaid records a successful payment capture: pending to processing.
// Guarded by the isPaid flag; a second capture fails with AlreadyPaid
// and leaves paidAt untouched.
func (s *Service) MarkPaid(ctx context.Context, orderID, callerID uint, isAdmin bool, capture PaymentCapture) (*models.Order, error) {
	order, err := s.Get(ctx, orderID, callerID, isAdmin)
	if err != nil {
		return nil, err
	}
	return s.markPaid(ctx, order, capture)
}

func (s *Service) markPaid(ctx context.Context, order *models.Order, capture PaymentCapture) (*models.Order, error) {
	if order.IsPaid {
		return nil, fmt.Errorf("%w: order %d", service.ErrAlreadyPaid, order.ID)
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %d is %s", service.ErrConflict, order.ID, order.Status)
	}

	now := s.now()
	order.IsPaid = true
	order.PaidAt = &now
	// Capture advances pending only; an order already shipped (cash on
	// delivery) keeps its status.
	if order.Status == models.StatusPending {
		order.Status = models.StatusProcessing
	}
	order.Payment = models.PaymentResult{
		TransactionID: capture.TransactionID,
		Status:        capture.Status,
		UpdateTime:    capture.UpdateTime,
		PayerEmail:    capture.PayerEmail,
	}

	if err := s.Orders.Save(ctx, order); err != nil {
		return nil, err
	}

	s.Notify.StatusChanged(ctx, order, order.Status)
	return order, nil
}

// UpdateStatus drives the lifecycle through shipped and delivered,
// with cancelled reachable from any non-terminal state and
// refunded only after payment. Guard violations leave the order
// unchanged.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus, ship *ShipmentInfo) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", service.ErrInvalidArgument, status)
	}

	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Repeating the current status is a no-op, not an error; the
	// delivered guard below relies on this for webhook redelivery.
	if order.Status == status {
		return order, nil
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %d is %s", service.ErrConflict, order.ID, order.Status)
	}

	switch status {
	case models.StatusPending, models.StatusProcessing:
		return nil, fmt.Errorf("%w: status %s is set by payment capture", service.ErrInvalidArgument, status)

	case models.StatusShipped:
		if err := s.applyShipment(ctx, order, ship); err != nil {
			return nil, err
		}
		order.Status = models.StatusShipped
		order.Delivery.Status = "shipped"
		if err := s.Orders.Save(ctx, order); err != nil {
			return nil, err
		}
		s.Notify.OrderShipped(ctx, order, order.Delivery.TrackingNumber)
		return order, nil

	case models.StatusDelivered:
		if order.IsDelivered {
			return order, nil
		}
		now := s.now()
		order.IsDelivered = true
		order.DeliveredAt = &now
		order.Status = models.StatusDelivered
		order.Delivery.Status = "delivered"
		order.Delivery.DeliveredAt = &now
		if err := s.Orders.Save(ctx, order); err != nil {
			return nil, err
		}
		s.Notify.OrderDelivered(ctx, order)
		return order, nil

	case models.StatusCancelled:
		order.Status = models.StatusCancelled
		order.Delivery.Status = "cancelled"
		if err := s.Orders.Save(ctx, order); err != nil {
			return nil, err
		}
		s.Notify.StatusChanged(ctx, order, order.Status)
		return order, nil

	case models.StatusRefunded:
		if !order.IsPaid {
			return nil, fmt.Errorf("%w: order %d is not paid", service.ErrConflict, order.ID)
		}
		if order.Payment.TransactionID != "" {
			if _, err := s.Gateway.Refund(ctx, order.Payment.TransactionID, order.Total, ""); err != nil {
				return nil, err
			}
		}
		order.Status = models.StatusRefunded
		order.Payment.Status = "refunded"
		if err := s.Orders.Save(ctx, order); err != nil {
			return nil, err
		}
		s.Notify.StatusChanged(ctx, order, order.Status)
		return order, nil
	}

	return nil, fmt.Errorf("%w: status %q", service.ErrInvalidArgument, status)
}

// applyShipment fills the delivery sub-record, either from the
// caller-supplied info (all three fields required) or by creating a
// shipment with the courier.
func (s *Service) applyShipment(ctx context.Context, order *models.Order, ship *ShipmentInfo) error {
	if ship == nil {
		shipment, err := s.Courier.CreateShipment(ctx, order)
		if err != nil {
			return fmt.Errorf("%w: create shipment: %v", service.ErrExternalService, err)
		}
		est := shipment.EstimatedDelivery
		order.Delivery.TrackingNumber = shipment.TrackingNumber
		order.Delivery.Carrier = shipment.Carrier
		order.Delivery.EstimatedDelivery = &est
		return nil
	}

	if ship.TrackingNumber == "" || ship.Carrier == "" || ship.EstimatedDelivery == "" {
		return fmt.Errorf("%w: shipping information is required", service.ErrInvalidArgument)
	}
	est, err := parseDate(ship.EstimatedDelivery)
	if err != nil {
		return fmt.Errorf("%w: estimated delivery: %v", service.ErrInvalidArgument, err)
	}
	order.Delivery.TrackingNumber = ship.TrackingNumber
	order.Delivery.Carrier = ship.Carrier
	order.Delivery.EstimatedDelivery = &est
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// HandlePaymentWebhook applies a verified gateway callback. Redelivered
// success events for an already-paid order are swallowed.
func (s *Service) HandlePaymentWebhook(ctx context.Context, event *payment.WebhookEvent) error {
	if event.Type != "payment_intent.succeeded" {
		logging.FromContext(ctx).Info("ignoring webhook event", "type", event.Type)
		return nil
	}

	id, err := strconv.ParseUint(event.OrderID, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: order id %q in webhook", service.ErrInvalidArgument, event.OrderID)
	}

	order, err := s.Orders.GetByID(ctx, uint(id))
	if err != nil {
		return err
	}
	if order.IsPaid {
		return nil
	}

	_, err = s.markPaid(ctx, order, PaymentCapture{
		TransactionID: event.IntentID,
		Status:        event.Status,
		PayerEmail:    event.PayerEmail,
	})
	return err
}
