package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/shopfront/pkg/middleware/logging"
	"github.com/Skotchmaster/shopfront/pkg/middleware/metrics"
)

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.HTTP
	// ClientURL is allowed as a credentialed CORS origin outside production.
	ClientURL  string
	Production bool
}

// New builds the echo instance with the ambient middleware and every route.
func New(d *Deps, opts Options) *echo.Echo {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID(), loggingmw.RequestLogger(opts.Logger), middleware.Recover())
	if opts.Metrics != nil {
		e.Use(opts.Metrics.Middleware())
		e.GET("/metrics", opts.Metrics.Handler())
	}
	e.Use(middleware.BodyLimit("10M"))
	if !opts.Production && opts.ClientURL != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     []string{opts.ClientURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowCredentials: true,
		}))
	}

	Register(e, d)
	return e
}
