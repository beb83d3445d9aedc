package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
)

type CartHTTP struct {
	Svc *service.CartService
}

func currentUser(c echo.Context) (uuid.UUID, error) {
	id, err := authmw.UserID(c)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return id, nil
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	lines, err := h.Svc.Get(ctx, userID)
	if err != nil {
		return httpError(l, "get_cart_failed", err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req struct {
		ProductID uuid.UUID `json:"productId"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	lines, err := h.Svc.Add(ctx, userID, req.ProductID)
	if err != nil {
		return httpError(l, "add_to_cart_failed", err)
	}
	return c.JSON(http.StatusOK, lines)
}

// RemoveAll drops the product named in the body, or every line when the
// body names none.
func (h *CartHTTP) RemoveAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req struct {
		ProductID uuid.UUID `json:"productId"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	lines, err := h.Svc.Remove(ctx, userID, req.ProductID)
	if err != nil {
		return httpError(l, "remove_from_cart_failed", err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	productID, err := productID(c)
	if err != nil {
		return err
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	lines, err := h.Svc.UpdateQuantity(ctx, userID, productID, req.Quantity)
	if err != nil {
		return httpError(l, "update_quantity_failed", err)
	}
	return c.JSON(http.StatusOK, lines)
}
