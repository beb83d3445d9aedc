package tokens

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

func RefreshClaimsFromToken(tokenStr string, refreshSecret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc(refreshSecret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Type != typeRefresh {
		return nil, fmt.Errorf("%w: %q", ErrWrongTokenType, claims.Type)
	}
	return &claims, nil
}
