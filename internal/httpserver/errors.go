package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/service"
)

const serverError = "Server error"

// httpError maps a service error to the answer the client sees and logs it
// under event.
func httpError(l *slog.Logger, event string, err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrExpired):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrUnavailable):
		code = http.StatusServiceUnavailable
	}

	msg := service.Message(err)
	if msg == "" || code == http.StatusInternalServerError {
		msg = serverError
	}

	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "error", err)
	}
	return echo.NewHTTPError(code, msg).SetInternal(err)
}
