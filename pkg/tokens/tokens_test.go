package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("test-jwt-secret")
	refreshSecret = []byte("test-refresh-secret")
)

func TestSignAccess_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	exp := time.Now().Add(15 * time.Minute)

	tok, err := SignAccess(userID, "admin", exp, accessSecret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, accessSecret)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, id)
}

func TestSignRefresh_UniqueJTI(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	exp := time.Now().Add(7 * 24 * time.Hour)

	a, err := SignRefresh(userID, "customer", exp, refreshSecret)
	require.NoError(t, err)
	b, err := SignRefresh(userID, "customer", exp, refreshSecret)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	claims, err := RefreshClaimsFromToken(a, refreshSecret)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "customer", claims.Role)
}

func TestAccessClaimsFromToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := SignAccess(uuid.New(), "customer", time.Now().Add(-time.Minute), accessSecret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, accessSecret)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAccessClaimsFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := SignAccess(uuid.New(), "customer", time.Now().Add(time.Minute), accessSecret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, []byte("other"))
	require.Error(t, err)
}

func TestClaims_TypeMismatch(t *testing.T) {
	t.Parallel()

	secret := []byte("shared")
	refresh, err := SignRefresh(uuid.New(), "customer", time.Now().Add(time.Hour), secret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(refresh, secret)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	access, err := SignAccess(uuid.New(), "customer", time.Now().Add(time.Hour), secret)
	require.NoError(t, err)

	_, err = RefreshClaimsFromToken(access, secret)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}
