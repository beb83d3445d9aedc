package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopfront/internal/events"
	"github.com/Skotchmaster/shopfront/internal/models"
)

func newAuth(t *testing.T) (*AuthService, *recordingPublisher) {
	t.Helper()
	r := newRepo(t)
	pub := &recordingPublisher{}
	return &AuthService{Repo: r, Issuer: newIssuer(r), Events: pub}, pub
}

func TestAuth_SignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, pub := newAuth(t)

	u, sess, err := svc.Signup(ctx, SignupInput{Name: "Ann", Email: " Ann@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.Equal(t, u.ID, sess.UserID)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, []string{events.UserSignedUp}, pub.types())

	logged, sess2, err := svc.Login(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	// a new login replaces the refresh credential of the previous one
	_, err = svc.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Refresh(ctx, sess2.RefreshToken)
	assert.NoError(t, err)
}

func TestAuth_SignupValidation(t *testing.T) {
	svc, _ := newAuth(t)

	tests := []struct {
		name string
		in   SignupInput
		msg  string
	}{
		{"no name", SignupInput{Email: "a@b.c", Password: "secret1"}, "Name is required"},
		{"bad email", SignupInput{Name: "A", Email: "nope", Password: "secret1"}, "Please enter a valid email"},
		{"short password", SignupInput{Name: "A", Email: "a@b.c", Password: "12345"}, "Password must be at least 6 characters long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Signup(context.Background(), tt.in)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.msg, Message(err))
		})
	}
}

func TestAuth_SignupDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)

	_, _, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@b.c", Password: "secret1"})
	require.NoError(t, err)
	_, _, err = svc.Signup(ctx, SignupInput{Name: "B", Email: "A@B.C", Password: "secret2"})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "User already exists", Message(err))
}

func TestAuth_LoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)
	_, _, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@b.c", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "a@b.c", "wrong-pass")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Invalid email or password", Message(err))

	_, _, err = svc.Login(ctx, "nobody@b.c", "secret1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuth_RefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)
	u, sess, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@b.c", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	next, err := svc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, next.UserID)

	_, err = svc.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized, "rotated token is single use")

	require.NoError(t, svc.Logout(ctx, next.RefreshToken))
	_, err = svc.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.NoError(t, svc.Logout(ctx, "garbage"))
	assert.NoError(t, svc.Logout(ctx, ""))
}

func TestAuth_Profile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)
	u, _, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@b.c", Password: "secret1"})
	require.NoError(t, err)

	got, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", got.Email)

	_, err = svc.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
