package payment

import (
	"context"
	"time"

	"github.com/floralane/flower-shop/internal/models"
)

// Intent is the gateway-side record of a pending charge. ClientSecret
// goes back to the storefront to confirm the payment.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       float64
}

type Refund struct {
	ID       string
	Status   string
	Amount   float64
	Created  time.Time
	Reason   string
	IntentID string
}

// Gateway is the external payment collaborator. Implementations must
// honor ctx cancellation; a timeout surfaces as a retryable error, not
// an order state change.
type Gateway interface {
	CreateIntent(ctx context.Context, order *models.Order) (*Intent, error)
	Retrieve(ctx context.Context, intentID string) (*Intent, error)
	Refund(ctx context.Context, intentID string, amount float64, reason string) (*Refund, error)
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// WebhookEvent is a verified gateway callback, reduced to what the
// order state machine needs.
type WebhookEvent struct {
	Type       string
	IntentID   string
	OrderID    string
	Status     string
	PayerEmail string
}
