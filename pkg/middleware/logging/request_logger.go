package loggingmw

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/pkg/logging"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
)

// RequestLogger puts a request-scoped logger into the request context and
// writes one line per completed request. Errors are rendered here, so
// middleware registered before it never sees them.
//
// Routes behind the auth middleware get the caller's user_id and role on
// the completion line.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := base.With(
				"method", c.Request().Method,
				"path", c.Path(),
				"url", c.Request().URL.Path,
				"remote_ip", c.RealIP(),
			)
			if rid := requestID(c); rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			status := c.Response().Status
			attrs := append(caller(c),
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			switch {
			case status >= 500:
				l.Error("request_completed", append(attrs, "error", errStr(err))...)
			case status >= 400:
				l.Warn("request_completed", append(attrs, "error", errStr(err))...)
			default:
				l.Info("request_completed", append(attrs, "bytes", c.Response().Size)...)
			}
			return nil
		}
	}
}

func requestID(c echo.Context) string {
	if rid := c.Request().Header.Get(echo.HeaderXRequestID); rid != "" {
		return rid
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// caller returns the identity the auth middleware stored, if any.
func caller(c echo.Context) []any {
	id, ok := c.Get(authmw.CtxUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return nil
	}
	attrs := []any{"user_id", id.String()}
	if role, ok := c.Get(authmw.CtxRole).(string); ok && role != "" {
		attrs = append(attrs, "role", role)
	}
	return attrs
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
