package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/events"
	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/search"
	"github.com/Skotchmaster/shopfront/internal/util"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

const recommendationCount = 4

// CatalogService owns the product catalog. Cache, Images, Index and Events
// are optional. Apart from rejecting an image that cannot be uploaded, their
// failures are logged and do not fail the catalog operation.
type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  FeaturedCache
	Images ImageStore
	Index  SearchIndex
	Events events.Publisher
}

type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Image       string
	Category    string
}

type SearchPage struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Size     int              `json:"size"`
	Products []models.Product `json:"products"`
}

func (s *CatalogService) All(ctx context.Context) ([]models.Product, error) {
	return s.Repo.Products(ctx)
}

// Featured serves from the cache and fills it on a miss.
func (s *CatalogService) Featured(ctx context.Context) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.featured")

	if s.Cache != nil {
		ps, hit, err := s.Cache.Get(ctx)
		if err != nil {
			l.Warn("featured_cache_read_failed", "error", err)
		} else if hit {
			return ps, nil
		}
	}

	ps, err := s.Repo.FeaturedProducts(ctx)
	if err != nil {
		return nil, err
	}
	ps = nonNil(ps)
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, ps); err != nil {
			l.Warn("featured_cache_write_failed", "error", err)
		}
	}
	return ps, nil
}

func (s *CatalogService) ByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return s.Repo.ProductsByCategory(ctx, category)
}

func (s *CatalogService) Recommendations(ctx context.Context) ([]models.Product, error) {
	return s.Repo.RandomProducts(ctx, recommendationCount)
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create")

	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" || in.Category == "" {
		return nil, fail(ErrValidation, "Name and category are required")
	}
	if in.Price < 0 {
		return nil, fail(ErrValidation, "Price cannot be negative")
	}

	image := in.Image
	if s.Images != nil && image != "" {
		url, err := s.Images.Upload(ctx, image)
		if err != nil {
			l.Warn("image_upload_failed", "status", 400, "error", err)
			return nil, fail(ErrValidation, "Invalid product image")
		}
		image = url
	}

	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       image,
		Category:    in.Category,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.index(ctx, *p)
	s.publish(ctx, events.ProductCreated, p)
	l.Info("product_created", "product_id", p.ID)
	return p, nil
}

// ToggleFeatured flips the featured flag and rebuilds the featured cache.
func (s *CatalogService) ToggleFeatured(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.ToggleFeatured(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "Product not found")
	}
	if err != nil {
		return nil, err
	}

	s.refreshFeatured(ctx)
	s.index(ctx, *p)
	s.publish(ctx, events.ProductFeaturedSet, p)
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete")

	p, err := s.Repo.DeleteProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(ErrNotFound, "Product not found")
	}
	if err != nil {
		return err
	}

	if s.Images != nil && p.Image != "" {
		if err := s.Images.Delete(ctx, p.Image); err != nil {
			l.Warn("image_delete_failed", "product_id", id, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			l.Warn("index_delete_failed", "product_id", id, "error", err)
		}
	}
	if p.IsFeatured {
		s.refreshFeatured(ctx)
	}
	s.publish(ctx, events.ProductDeleted, p)
	l.Info("product_deleted", "product_id", id)
	return nil
}

// Search queries the index when one is configured and falls back to a
// substring match in the database otherwise, or when the index fails.
func (s *CatalogService) Search(ctx context.Context, q string, page, size int) (*SearchPage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fail(ErrValidation, "Search query is required")
	}
	from, limit := util.Calculate(page, size)
	out := &SearchPage{Page: util.Page(from, limit), Size: limit}

	if s.Index != nil {
		res, err := s.Index.Search(ctx, q, from, limit)
		if err == nil {
			out.Total, out.Products = res.Total, nonNil(res.Items)
			return out, nil
		}
		logging.FromContext(ctx).Warn("index_search_failed", "query", q, "error", err)
	}

	ps, total, err := s.Repo.SearchProducts(ctx, q, from, limit)
	if err != nil {
		return nil, err
	}
	out.Total, out.Products = total, nonNil(ps)
	return out, nil
}

func (s *CatalogService) refreshFeatured(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	l := logging.FromContext(ctx)
	ps, err := s.Repo.FeaturedProducts(ctx)
	if err != nil {
		l.Warn("featured_reload_failed", "error", err)
		if err := s.Cache.Invalidate(ctx); err != nil {
			l.Warn("featured_cache_invalidate_failed", "error", err)
		}
		return
	}
	if err := s.Cache.Set(ctx, ps); err != nil {
		l.Warn("featured_cache_write_failed", "error", err)
	}
}

func (s *CatalogService) index(ctx context.Context, p models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("index_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, typ string, p *models.Product) {
	if s.Events == nil {
		return
	}
	ev := events.Event{Type: typ, ID: p.ID.String(), Payload: p}
	if err := s.Events.Publish(ctx, events.TopicProducts, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "type", typ, "error", err)
	}
}

func nonNil(ps []models.Product) []models.Product {
	if ps == nil {
		return []models.Product{}
	}
	return ps
}

var _ SearchIndex = (*search.Client)(nil)
