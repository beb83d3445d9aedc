package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/models"
)

func (r *GormRepo) OrderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).Preload("Items").Where("stripe_session_id = ?", sessionID).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder stores o with its items. A second order for the same checkout
// session returns the first one and created=false.
func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) (created bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Order
		err := tx.Preload("Items").Where("stripe_session_id = ?", o.StripeSessionID).First(&existing).Error
		if err == nil {
			*o = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil && isUniqueViolation(err) {
		existing, ferr := r.OrderBySession(ctx, o.StripeSessionID)
		if ferr != nil {
			return false, err
		}
		*o = *existing
		return false, nil
	}
	return created, err
}
