package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/floralane/flower-shop/internal/logging"
	"github.com/floralane/flower-shop/internal/middleware/auth"
	"github.com/floralane/flower-shop/internal/models"
	ordersvc "github.com/floralane/flower-shop/internal/service/order"
	"github.com/floralane/flower-shop/internal/util"
)

type OrderHandler struct {
	Svc *ordersvc.Service
}

func orderID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var in ordersvc.CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Create(c.Request().Context(), userID, in)
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("create order failed", "user_id", userID, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Get(c.Request().Context(), id, userID, auth.IsAdmin(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, total, err := h.Svc.ListForUser(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"orders": orders,
		"meta":   util.PageMeta(page, limit, total),
	})
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	status := models.OrderStatus(c.QueryParam("status"))
	sort := c.QueryParam("sort")

	orders, total, err := h.Svc.ListAll(c.Request().Context(), status, sort, limit, offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"orders": orders,
		"meta":   util.PageMeta(page, limit, total),
	})
}

func (h *OrderHandler) MarkPaid(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var capture ordersvc.PaymentCapture
	if err := c.Bind(&capture); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.MarkPaid(c.Request().Context(), id, userID, auth.IsAdmin(c), capture)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req struct {
		Status            string `json:"status"`
		TrackingNumber    string `json:"tracking_number"`
		Carrier           string `json:"carrier"`
		EstimatedDelivery string `json:"estimated_delivery"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var ship *ordersvc.ShipmentInfo
	if req.TrackingNumber != "" || req.Carrier != "" || req.EstimatedDelivery != "" {
		ship = &ordersvc.ShipmentInfo{
			TrackingNumber:    req.TrackingNumber,
			Carrier:           req.Carrier,
			EstimatedDelivery: req.EstimatedDelivery,
		}
	}

	order, err := h.Svc.UpdateStatus(c.Request().Context(), id, models.OrderStatus(req.Status), ship)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CreatePaymentIntent(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	intent, err := h.Svc.CreatePaymentIntent(c.Request().Context(), id, userID, auth.IsAdmin(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"client_secret":     intent.ClientSecret,
		"payment_intent_id": intent.ID,
	})
}

func (h *OrderHandler) TrackOrder(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Get(c.Request().Context(), id, userID, auth.IsAdmin(c))
	if err != nil {
		return httpError(err)
	}
	if order.Delivery.TrackingNumber == "" {
		return echo.NewHTTPError(http.StatusNotFound, "order has no shipment yet")
	}

	events, err := h.Svc.Courier.Track(c.Request().Context(), order.Delivery.TrackingNumber)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tracking_number": order.Delivery.TrackingNumber,
		"carrier":         order.Delivery.Carrier,
		"events":          events,
	})
}
