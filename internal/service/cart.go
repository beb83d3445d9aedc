package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/repo"
)

// CartLine is a catalog product together with its quantity in the cart.
type CartLine struct {
	models.Product
	Quantity uint `json:"quantity"`
}

type CartService struct {
	Repo *repo.GormRepo
}

// Get returns the cart lines whose product still exists, in cart order.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) ([]CartLine, error) {
	items, err := s.Repo.CartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []CartLine{}, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	ps, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(ps))
	for _, p := range ps {
		byID[p.ID] = p
	}

	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, CartLine{Product: p, Quantity: it.Quantity})
	}
	return lines, nil
}

func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID) ([]CartLine, error) {
	if productID == uuid.Nil {
		return nil, fail(ErrValidation, "Product id is required")
	}
	if _, err := s.Repo.ProductByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "Product not found")
		}
		return nil, err
	}
	if err := s.Repo.AddToCart(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Remove drops one product from the cart, or empties it when productID is
// uuid.Nil.
func (s *CartService) Remove(ctx context.Context, userID, productID uuid.UUID) ([]CartLine, error) {
	if err := s.Repo.RemoveFromCart(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) ([]CartLine, error) {
	if quantity < 0 {
		return nil, fail(ErrValidation, "Quantity cannot be negative")
	}
	err := s.Repo.UpdateQuantity(ctx, userID, productID, uint(quantity))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "Product not found")
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
