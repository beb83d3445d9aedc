package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shopfront/internal/models"
)

// GormStore keeps refresh token hashes in the refresh_tokens table. It is
// used when no Redis is configured.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Save(ctx context.Context, userID uuid.UUID, tokenHash string, ttl time.Duration) error {
	row := models.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(ttl).UTC(),
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

func (s *GormStore) Rotate(ctx context.Context, userID uuid.UUID, oldHash, newHash string, ttl time.Duration) error {
	now := time.Now().UTC()
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("user_id = ? AND token_hash = ? AND expires_at > ?", userID, oldHash, now).
			Updates(map[string]any{"token_hash": newHash, "expires_at": now.Add(ttl)})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}

		var count int64
		if err := tx.Model(&models.RefreshToken{}).
			Where("user_id = ? AND expires_at > ?", userID, now).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNoToken
		}
		return ErrTokenMismatch
	})
}

func (s *GormStore) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	var row models.RefreshToken
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, time.Now().UTC()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	return row.TokenHash, nil
}

func (s *GormStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// PurgeExpired drops rows past their expiry.
func (s *GormStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at <= ?", time.Now().UTC()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
