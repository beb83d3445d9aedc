package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/pkg/logging"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	ProductHandler *ProductHTTP
	CartHandler    *CartHTTP
	CouponHandler  *CouponHTTP
	PaymentHandler *PaymentHTTP

	AccessSecret []byte
	// Ready reports whether the backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		if err := d.Ready(c.Request().Context()); err != nil {
			logging.FromContext(c.Request().Context()).Warn("not_ready", "status", 503, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	authMw := authmw.NewAuth(d.AccessSecret)
	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", d.AuthHandler.Signup)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/refresh-token", d.AuthHandler.RefreshToken)
	auth.GET("/profile", d.AuthHandler.Profile, authMw.RequireAuth)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetAll, authMw.RequireAdmin)
	products.GET("/featured", d.ProductHandler.GetFeatured)
	products.GET("/category/:category", d.ProductHandler.GetByCategory)
	products.GET("/recommendations", d.ProductHandler.GetRecommendations)
	products.GET("/search", d.ProductHandler.Search)
	products.POST("", d.ProductHandler.Create, authMw.RequireAdmin)
	products.PATCH("/:id", d.ProductHandler.ToggleFeatured, authMw.RequireAdmin)
	products.DELETE("/:id", d.ProductHandler.Delete, authMw.RequireAdmin)

	cart := api.Group("/cart", authMw.RequireAuth)
	cart.GET("", d.CartHandler.Get)
	cart.POST("", d.CartHandler.Add)
	cart.DELETE("", d.CartHandler.RemoveAll)
	cart.PUT("/:id", d.CartHandler.UpdateQuantity)

	coupons := api.Group("/coupons", authMw.RequireAuth)
	coupons.GET("", d.CouponHandler.Get)
	coupons.POST("/validate", d.CouponHandler.Validate)

	payments := api.Group("/payments", authMw.RequireAuth)
	payments.POST("/create-checkout-session", d.PaymentHandler.CreateCheckoutSession)
	payments.POST("/checkout-success", d.PaymentHandler.CheckoutSuccess)
}
