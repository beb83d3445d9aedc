package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

type CouponService struct {
	Repo *repo.GormRepo
	// Now defaults to time.Now.
	Now func() time.Time
}

// Get returns the user's latest active coupon, or nil when there is none.
func (s *CouponService) Get(ctx context.Context, userID uuid.UUID) (*models.Coupon, error) {
	c, err := s.Repo.ActiveCoupon(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return c, err
}

// Validate checks that code is one of the user's active coupons. An expired
// coupon is deactivated on the way out.
func (s *CouponService) Validate(ctx context.Context, userID uuid.UUID, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fail(ErrValidation, "Coupon code is required")
	}

	c, err := s.Repo.ActiveCouponByCode(ctx, userID, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "Coupon not found")
	}
	if err != nil {
		return nil, err
	}

	if !c.ExpirationDate.After(s.now()) {
		if err := s.Repo.DeactivateCoupon(ctx, userID, code); err != nil {
			return nil, err
		}
		logging.FromContext(ctx).Info("coupon_expired", "user_id", userID, "code", code)
		return nil, fail(ErrExpired, "Coupon expired")
	}
	return c, nil
}

func (s *CouponService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
