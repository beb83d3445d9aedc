package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) CreateCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payments.create_checkout_session")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req struct {
		Products   []service.CheckoutItem `json:"products"`
		CouponCode string                 `json:"couponCode"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	res, err := h.Svc.CreateCheckoutSession(ctx, userID, req.Products, req.CouponCode)
	if err != nil {
		return httpError(l, "checkout_failed", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) CheckoutSuccess(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payments.checkout_success")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_success_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	order, err := h.Svc.CheckoutSuccess(ctx, userID, req.SessionID)
	if err != nil {
		return httpError(l, "checkout_success_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Payment successful, order created, and coupon deactivated if used.",
		"orderId": order.ID,
	})
}
