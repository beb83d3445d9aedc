package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shopfront/internal/models"
)

func (r *GormRepo) Products(ctx context.Context) ([]models.Product, error) {
	var ps []models.Product
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&ps).Error
	return ps, err
}

func (r *GormRepo) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	var ps []models.Product
	err := r.DB.WithContext(ctx).Where("is_featured = ?", true).Order("created_at DESC").Find(&ps).Error
	return ps, err
}

func (r *GormRepo) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var ps []models.Product
	err := r.DB.WithContext(ctx).Where("category = ?", category).Order("created_at DESC").Find(&ps).Error
	return ps, err
}

// RandomProducts samples n products. RANDOM() works on postgres and sqlite.
func (r *GormRepo) RandomProducts(ctx context.Context, n int) ([]models.Product, error) {
	var ps []models.Product
	err := r.DB.WithContext(ctx).Order("RANDOM()").Limit(n).Find(&ps).Error
	return ps, err
}

func (r *GormRepo) ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var ps []models.Product
	if len(ids) == 0 {
		return ps, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&ps).Error
	return ps, err
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

// ToggleFeatured flips the flag under a row lock and returns the new state.
func (r *GormRepo) ToggleFeatured(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		p.IsFeatured = !p.IsFeatured
		return tx.Model(&p).Update("is_featured", p.IsFeatured).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct removes the product and every cart line that points at it.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchProducts is the substring fallback used when no search index is
// configured.
func (r *GormRepo) SearchProducts(ctx context.Context, q string, offset, limit int) ([]models.Product, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	where := "LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?"

	var total int64
	tx := r.DB.WithContext(ctx)
	if err := tx.Model(&models.Product{}).Where(where, pattern, pattern, pattern).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ps := make([]models.Product, 0, limit)
	err := tx.Where(where, pattern, pattern, pattern).
		Order("name").
		Offset(offset).
		Limit(limit).
		Find(&ps).Error
	return ps, total, err
}
