package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/service"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway implements Gateway against the Stripe API. Amounts are
// shop-currency floats; Stripe wants integer cents.
type StripeGateway struct {
	api           *client.API
	currency      string
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret, currency string) *StripeGateway {
	return &StripeGateway{
		api:           client.New(secretKey, nil),
		currency:      currency,
		webhookSecret: webhookSecret,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, order *models.Order) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(toCents(order.Total)),
		Currency:     stripe.String(g.currency),
		ReceiptEmail: stripe.String(order.UserEmail),
		Description:  stripe.String(fmt.Sprintf("Payment for order %s", order.InvoiceNumber)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	params.AddMetadata("order_id", fmt.Sprint(order.ID))

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe create intent: %v", service.ErrExternalService, err)
	}
	return intentFrom(pi), nil
}

func (g *StripeGateway) Retrieve(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe retrieve intent: %v", service.ErrExternalService, err)
	}
	return intentFrom(pi), nil
}

func (g *StripeGateway) Refund(ctx context.Context, intentID string, amount float64, reason string) (*Refund, error) {
	if reason == "" {
		reason = string(stripe.RefundReasonRequestedByCustomer)
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Reason:        stripe.String(reason),
	}
	params.Context = ctx
	if amount > 0 {
		params.Amount = stripe.Int64(toCents(amount))
	}

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe refund: %v", service.ErrExternalService, err)
	}
	return &Refund{
		ID:       r.ID,
		Status:   string(r.Status),
		Amount:   float64(r.Amount) / 100,
		Created:  time.Unix(r.Created, 0),
		Reason:   string(r.Reason),
		IntentID: intentID,
	}, nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: webhook signature: %v", service.ErrInvalidArgument, err)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: webhook payload: %v", service.ErrInvalidArgument, err)
	}

	return &WebhookEvent{
		Type:       string(event.Type),
		IntentID:   pi.ID,
		OrderID:    pi.Metadata["order_id"],
		Status:     string(pi.Status),
		PayerEmail: pi.ReceiptEmail,
	}, nil
}

func intentFrom(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       float64(pi.Amount) / 100,
	}
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
