package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/internal/session"
	"github.com/Skotchmaster/shopfront/pkg/cookies"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies cookies.Policy
}

func (h *AuthHTTP) setSession(c echo.Context, s *session.Session) {
	c.SetCookie(h.Cookies.Create(cookies.AccessToken, s.AccessToken, h.Svc.Issuer.AccessTTL()))
	c.SetCookie(h.Cookies.Create(cookies.RefreshToken, s.RefreshToken, h.Svc.Issuer.RefreshTTL()))
}

func (h *AuthHTTP) clearSession(c echo.Context) {
	c.SetCookie(h.Cookies.Delete(cookies.AccessToken))
	c.SetCookie(h.Cookies.Delete(cookies.RefreshToken))
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	u, s, err := h.Svc.Signup(ctx, service.SignupInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return httpError(l, "signup_failed", err)
	}

	h.setSession(c, s)
	l.Info("signup_successful", "user_id", u.ID)
	return c.JSON(http.StatusCreated, u)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	u, s, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		// bad credentials are a 400 here; 401 is reserved for an expired session
		if errors.Is(err, service.ErrUnauthorized) {
			l.Warn("login_failed", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, service.Message(err))
		}
		return httpError(l, "login_failed", err)
	}

	h.setSession(c, s)
	l.Info("login_successful", "user_id", u.ID)
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var token string
	if ck, err := c.Cookie(cookies.RefreshToken); err == nil {
		token = ck.Value
	}
	if err := h.Svc.Logout(ctx, token); err != nil {
		h.clearSession(c)
		return httpError(l, "logout_failed", err)
	}

	h.clearSession(c)
	l.Info("logout_successful")
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// RefreshToken rotates the session held in the refresh cookie. Any failure
// is a 401 and clears both cookies.
func (h *AuthHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var token string
	if ck, err := c.Cookie(cookies.RefreshToken); err == nil {
		token = ck.Value
	}

	s, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		h.clearSession(c)
		return httpError(l, "refresh_failed", err)
	}

	h.setSession(c, s)
	l.Info("refresh_successful", "user_id", s.UserID)
	return c.JSON(http.StatusOK, echo.Map{"message": "Token refreshed successfully"})
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.profile")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	u, err := h.Svc.Profile(ctx, userID)
	if err != nil {
		return httpError(l, "profile_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}
