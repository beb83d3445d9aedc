package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/shopfront/pkg/hash"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
)

var (
	ErrRefreshInvalid = errors.New("refresh token invalid")
	ErrRefreshExpired = errors.New("refresh token expired")
)

// Session is a freshly minted credential pair.
type Session struct {
	UserID           uuid.UUID
	Role             string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Issuer mints and rotates sessions. Only a hash of the current refresh
// token is persisted, one per user, so issuing or refreshing invalidates
// whatever refresh token the user held before.
type Issuer struct {
	store TokenStore
	cfg   Config
}

func NewIssuer(store TokenStore, cfg Config) *Issuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Issuer{store: store, cfg: cfg}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.cfg.AccessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

func (i *Issuer) sign(userID uuid.UUID, role string) (*Session, error) {
	now := time.Now()
	s := &Session{
		UserID:           userID,
		Role:             role,
		AccessExpiresAt:  now.Add(i.cfg.AccessTTL),
		RefreshExpiresAt: now.Add(i.cfg.RefreshTTL),
	}

	var err error
	s.AccessToken, err = tokens.SignAccess(userID, role, s.AccessExpiresAt, i.cfg.AccessSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access: %w", err)
	}
	s.RefreshToken, err = tokens.SignRefresh(userID, role, s.RefreshExpiresAt, i.cfg.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh: %w", err)
	}
	return s, nil
}

func (i *Issuer) Issue(ctx context.Context, userID uuid.UUID, role string) (*Session, error) {
	s, err := i.sign(userID, role)
	if err != nil {
		return nil, err
	}
	if err := i.store.Save(ctx, userID, hash.Sha256Hex(s.RefreshToken), i.cfg.RefreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return s, nil
}

// Refresh exchanges presented for a new session. The swap is atomic: of two
// concurrent calls with the same token only one succeeds.
func (i *Issuer) Refresh(ctx context.Context, presented string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	claims, err := i.parse(presented)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrRefreshInvalid)
	}

	s, err := i.sign(userID, claims.Role)
	if err != nil {
		return nil, err
	}

	err = i.store.Rotate(ctx, userID, hash.Sha256Hex(presented), hash.Sha256Hex(s.RefreshToken), i.cfg.RefreshTTL)
	if err != nil {
		if errors.Is(err, ErrTokenMismatch) || errors.Is(err, ErrNoToken) {
			l.Warn("refresh_rejected", "user_id", userID, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrRefreshInvalid, err)
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return s, nil
}

func (i *Issuer) Revoke(ctx context.Context, userID uuid.UUID) error {
	if err := i.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeToken revokes the session the token belongs to. An expired token
// still identifies its owner.
func (i *Issuer) RevokeToken(ctx context.Context, presented string) error {
	claims, err := i.parse(presented)
	if err != nil && !errors.Is(err, ErrRefreshExpired) {
		return err
	}
	if claims == nil {
		return ErrRefreshInvalid
	}
	userID, err := claims.UserID()
	if err != nil {
		return fmt.Errorf("%w: bad subject", ErrRefreshInvalid)
	}
	return i.Revoke(ctx, userID)
}

func (i *Issuer) parse(presented string) (*tokens.RefreshClaims, error) {
	if presented == "" {
		return nil, fmt.Errorf("%w: empty", ErrRefreshInvalid)
	}
	claims, err := tokens.RefreshClaimsFromToken(presented, i.cfg.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return expiredClaims(presented, i.cfg.RefreshSecret), fmt.Errorf("%w: %v", ErrRefreshExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
	}
	return claims, nil
}

// expiredClaims re-parses a token already known to be correctly signed but
// past its expiry.
func expiredClaims(presented string, secret []byte) *tokens.RefreshClaims {
	var claims tokens.RefreshClaims
	_, err := jwt.ParseWithClaims(presented, &claims, func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithoutClaimsValidation(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil
	}
	return &claims
}
