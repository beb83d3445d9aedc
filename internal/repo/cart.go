package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shopfront/internal/models"
)

func (r *GormRepo) CartItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&items).Error
	return items, err
}

// AddToCart bumps the quantity of an existing line by one or creates it.
func (r *GormRepo) AddToCart(ctx context.Context, userID, productID uuid.UUID) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("quantity + 1")}),
	}).Create(&models.CartItem{UserID: userID, ProductID: productID, Quantity: 1}).Error
}

// RemoveFromCart drops one product line, or the whole cart when productID
// is uuid.Nil.
func (r *GormRepo) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	tx := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if productID != uuid.Nil {
		tx = tx.Where("product_id = ?", productID)
	}
	return tx.Delete(&models.CartItem{}).Error
}

// UpdateQuantity sets the quantity of an existing line; zero removes it.
// It returns gorm.ErrRecordNotFound when the line does not exist.
func (r *GormRepo) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.CartItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&item).Error; err != nil {
			return err
		}
		if quantity == 0 {
			return tx.Delete(&item).Error
		}
		return tx.Model(&item).Update("quantity", quantity).Error
	})
}
