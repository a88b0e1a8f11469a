// Package notify emits order lifecycle notifications. Every call is
// fire-and-forget: failures are logged and never reach the caller of a
// state transition.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/floralane/flower-shop/internal/logging"
	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/mykafka"
)

const topic = "order_events"

type Service interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
	OrderShipped(ctx context.Context, order *models.Order, trackingNumber string)
	OrderDelivered(ctx context.Context, order *models.Order)
	StatusChanged(ctx context.Context, order *models.Order, status models.OrderStatus)
}

type Notifier struct {
	Producer mykafka.Publisher
}

func (n *Notifier) OrderConfirmed(ctx context.Context, order *models.Order) {
	n.publish(ctx, order, map[string]any{
		"type":           "order_confirmed",
		"orderID":        order.ID,
		"invoice_number": order.InvoiceNumber,
		"email":          order.UserEmail,
		"total":          order.Total,
	})
}

func (n *Notifier) OrderShipped(ctx context.Context, order *models.Order, trackingNumber string) {
	n.publish(ctx, order, map[string]any{
		"type":            "order_shipped",
		"orderID":         order.ID,
		"email":           order.UserEmail,
		"tracking_number": trackingNumber,
		"carrier":         order.Delivery.Carrier,
	})
}

func (n *Notifier) OrderDelivered(ctx context.Context, order *models.Order) {
	n.publish(ctx, order, map[string]any{
		"type":    "order_delivered",
		"orderID": order.ID,
		"email":   order.UserEmail,
	})
}

func (n *Notifier) StatusChanged(ctx context.Context, order *models.Order, status models.OrderStatus) {
	n.publish(ctx, order, map[string]any{
		"type":    "order_status_changed",
		"orderID": order.ID,
		"email":   order.UserEmail,
		"status":  string(status),
	})
}

func (n *Notifier) publish(ctx context.Context, order *models.Order, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.Producer.PublishEvent(ctx, topic, fmt.Sprint(order.UserID), event); err != nil {
		logging.FromContext(ctx).Error("notification publish failed",
			"order_id", order.ID, "type", event["type"], "error", err)
	}
}
