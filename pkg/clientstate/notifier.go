package clientstate

import (
	"errors"
	"log/slog"

	"github.com/Skotchmaster/shopfront/pkg/apiclient"
)

// Notifier surfaces user-visible messages.
type Notifier interface {
	Error(msg string)
	Success(msg string)
}

type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

func (n LogNotifier) Error(msg string)   { n.logger().Error("notify", "message", msg) }
func (n LogNotifier) Success(msg string) { n.logger().Info("notify", "message", msg) }

const defaultErrorMessage = "An error occurred"

// message prefers the server's own wording.
func message(err error, fallback string) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
