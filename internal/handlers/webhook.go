package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/floralane/flower-shop/internal/logging"
	"github.com/floralane/flower-shop/internal/payment"
	ordersvc "github.com/floralane/flower-shop/internal/service/order"
)

type WebhookHandler struct {
	Gateway payment.Gateway
	Svc     *ordersvc.Service
}

// StripeWebhook verifies the gateway signature over the raw body and
// hands the event to the order service. Redeliveries are safe: an
// already-paid order swallows the success event.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	event, err := h.Gateway.VerifyWebhook(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("webhook verification failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "signature verification failed")
	}

	if err := h.Svc.HandlePaymentWebhook(c.Request().Context(), event); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}
