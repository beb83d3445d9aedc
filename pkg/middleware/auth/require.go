package middleware

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/pkg/cookies"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"

	RoleAdmin = "admin"
)

// Auth validates the access cookie only. An expired credential is answered
// with 401 so the client can run its refresh round trip.
type Auth struct {
	JWTSecret []byte
}

func NewAuth(secret []byte) *Auth {
	return &Auth{JWTSecret: secret}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *Auth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Access denied - Admin only")
		}
		return nil
	})
}

func (m *Auth) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "require_auth")

		accessCookie, err := c.Cookie(cookies.AccessToken)
		if err != nil || accessCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - No access token provided")
		}

		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				l.Info("access_token_expired", "status", 401)
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - Access token expired")
			}
			l.Warn("access_token_invalid", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - Invalid access token")
		}

		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - Invalid access token")
		}

		if validator != nil {
			if validationErr := validator(claims); validationErr != nil {
				l.Warn("access_denied", "status", 403, "role", claims.Role)
				return validationErr
			}
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxRole, claims.Role)
		return next(c)
	}
}

func UserID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(CtxUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, errors.New("unauthorized")
	}
	return id, nil
}
