package tokens

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

func AccessClaimsFromToken(tokenStr string, accessSecret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc(accessSecret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Type != typeAccess {
		return nil, fmt.Errorf("%w: %q", ErrWrongTokenType, claims.Type)
	}
	return &claims, nil
}
