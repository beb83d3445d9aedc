package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTokenMismatch = errors.New("stored refresh token does not match")
	ErrNoToken       = errors.New("no refresh token stored")
)

// TokenStore keeps the hash of the single active refresh token per user.
type TokenStore interface {
	Save(ctx context.Context, userID uuid.UUID, tokenHash string, ttl time.Duration) error
	// Rotate replaces oldHash with newHash only if oldHash is the active value.
	Rotate(ctx context.Context, userID uuid.UUID, oldHash, newHash string, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}
