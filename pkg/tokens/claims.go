package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

var ErrWrongTokenType = errors.New("token type mismatch")

type AccessClaims struct {
	Role string `json:"role"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Role string `json:"role"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func SignAccess(userID uuid.UUID, role string, exp time.Time, secret []byte) (string, error) {
	claims := AccessClaims{
		Role: role,
		Type: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// SignRefresh sets a fresh JTI so two refresh tokens minted within the same
// second never collide.
func SignRefresh(userID uuid.UUID, role string, exp time.Time, secret []byte) (string, error) {
	claims := RefreshClaims{
		Role: role,
		Type: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (c *AccessClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func (c *RefreshClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	}
}
