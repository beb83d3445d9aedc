package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/models"
)

var ErrDuplicate = errors.New("duplicate record")

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	err := r.DB.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error
	return count > 0, err
}

// isUniqueViolation covers drivers that do not translate errors for gorm.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}
