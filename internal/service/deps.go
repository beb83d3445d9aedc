package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/search"
)

type FeaturedCache interface {
	Get(ctx context.Context) ([]models.Product, bool, error)
	Set(ctx context.Context, products []models.Product) error
	Invalidate(ctx context.Context) error
}

type ImageStore interface {
	Upload(ctx context.Context, image string) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

type SearchIndex interface {
	Index(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (search.Results, error)
}
