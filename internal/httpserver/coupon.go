package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

type CouponHTTP struct {
	Svc *service.CouponService
}

func (h *CouponHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupons.get")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	coupon, err := h.Svc.Get(ctx, userID)
	if err != nil {
		return httpError(l, "get_coupon_failed", err)
	}
	// null when the user holds no active coupon
	return c.JSON(http.StatusOK, coupon)
}

func (h *CouponHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupons.validate")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("validate_coupon_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	coupon, err := h.Svc.Validate(ctx, userID, req.Code)
	if err != nil {
		return httpError(l, "validate_coupon_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":            "Coupon is valid",
		"code":               coupon.Code,
		"discountPercentage": coupon.DiscountPercentage,
	})
}
