package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopfront/internal/events"
)

type catalogFixture struct {
	svc    *CatalogService
	cache  *memCache
	images *fakeImages
	index  *fakeIndex
	pub    *recordingPublisher
}

func newCatalog(t *testing.T) catalogFixture {
	t.Helper()
	f := catalogFixture{
		cache:  &memCache{},
		images: &fakeImages{},
		index:  newFakeIndex(),
		pub:    &recordingPublisher{},
	}
	f.svc = &CatalogService{Repo: newRepo(t), Cache: f.cache, Images: f.images, Index: f.index, Events: f.pub}
	return f
}

func TestCatalog_FeaturedUsesCache(t *testing.T) {
	ctx := context.Background()
	f := newCatalog(t)
	seedProduct(t, f.svc.Repo, "a", 10, true)
	seedProduct(t, f.svc.Repo, "b", 10, false)

	ps, err := f.svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, 1, f.cache.sets)

	seedProduct(t, f.svc.Repo, "c", 10, true)
	ps, err = f.svc.Featured(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, 1, "served from cache")
	assert.Equal(t, 1, f.cache.sets)
}

func TestCatalog_FeaturedEmpty(t *testing.T) {
	f := newCatalog(t)
	ps, err := f.svc.Featured(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ps)
	assert.Empty(t, ps)
}

func TestCatalog_Create(t *testing.T) {
	ctx := context.Background()
	f := newCatalog(t)

	p, err := f.svc.Create(ctx, ProductInput{Name: "Boot", Description: "d", Price: 99.5, Image: "data:image/png;base64,AAAA", Category: "shoes"})
	require.NoError(t, err)
	assert.Contains(t, p.Image, "https://cdn.test/products/")
	assert.Equal(t, []string{"data:image/png;base64,AAAA"}, f.images.uploaded)
	assert.Contains(t, f.index.indexed, p.ID)
	assert.Equal(t, []string{events.ProductCreated}, f.pub.types())

	all, err := f.svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCatalog_CreateInvalid(t *testing.T) {
	ctx := context.Background()
	f := newCatalog(t)

	_, err := f.svc.Create(ctx, ProductInput{Name: "", Category: "x"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Create(ctx, ProductInput{Name: "x", Category: "x", Price: -1})
	assert.ErrorIs(t, err, ErrValidation)

	f.images.err = errBoom
	_, err = f.svc.Create(ctx, ProductInput{Name: "x", Category: "x", Image: "data:bad"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_ToggleFeaturedRefreshesCache(t *testing.T) {
	ctx := context.Background()
	f := newCatalog(t)
	p := seedProduct(t, f.svc.Repo, "a", 10, false)

	_, err := f.svc.Featured(ctx)
	require.NoError(t, err)
	assert.Empty(t, f.cache.products)

	got, err := f.svc.ToggleFeatured(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFeatured)
	require.Len(t, f.cache.products, 1)
	assert.Equal(t, p.ID, f.cache.products[0].ID)
	assert.True(t, f.index.indexed[p.ID].IsFeatured)

	_, err = f.svc.ToggleFeatured(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_Delete(t *testing.T) {
	ctx := context.Background()
	f := newCatalog(t)
	p, err := f.svc.Create(ctx, ProductInput{Name: "Boot", Price: 10, Image: "data:image/png;base64,AAAA", Category: "shoes"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	assert.Equal(t, []string{p.Image}, f.images.deleted)
	assert.Equal(t, []uuid.UUID{p.ID}, f.index.deleted)
	assert.Equal(t, []string{events.ProductCreated, events.ProductDeleted}, f.pub.types())

	assert.ErrorIs(t, f.svc.Delete(ctx, p.ID), ErrNotFound)
}

func TestCatalog_CategoryAndRecommendations(t *testing.T) {
	ctx := context.Background()
	f := newCatalog(t)
	for i := 0; i < 6; i++ {
		seedProduct(t, f.svc.Repo, "p"+string(rune('a'+i)), 1, false)
	}

	ps, err := f.svc.ByCategory(ctx, "shoes")
	require.NoError(t, err)
	assert.Len(t, ps, 6)

	ps, err = f.svc.ByCategory(ctx, "hats")
	require.NoError(t, err)
	assert.Empty(t, ps)

	ps, err = f.svc.Recommendations(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, 4)
}

func TestCatalog_Search(t *testing.T) {
	ctx := context.Background()
	f := newCatalog(t)
	p, err := f.svc.Create(ctx, ProductInput{Name: "Red boot", Price: 10, Category: "shoes"})
	require.NoError(t, err)
	seedProduct(t, f.svc.Repo, "Blue hat", 5, false)

	_, err = f.svc.Search(ctx, "  ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	page, err := f.svc.Search(ctx, "boot", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, p.ID, page.Products[0].ID)

	t.Run("falls back to the database when the index fails", func(t *testing.T) {
		f.index.err = errBoom
		page, err := f.svc.Search(ctx, "hat", 1, 10)
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		assert.Equal(t, "Blue hat", page.Products[0].Name)
	})

	t.Run("without an index", func(t *testing.T) {
		svc := &CatalogService{Repo: f.svc.Repo}
		page, err := svc.Search(ctx, "nothing-matches", 2, 5)
		require.NoError(t, err)
		assert.Zero(t, page.Total)
		assert.NotNil(t, page.Products)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 5, page.Size)
	})
}
