package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddIncrements(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	svc := &CartService{Repo: r}
	user := uuid.New()
	p := seedProduct(t, r, "boot", 20, false)

	lines, err := svc.Add(ctx, user, p.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 1, lines[0].Quantity)

	lines, err = svc.Add(ctx, user, p.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 2, lines[0].Quantity)
	assert.Equal(t, "boot", lines[0].Name)

	other, err := svc.Get(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCart_ConcurrentFirstAdds(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	svc := &CartService{Repo: r}
	user := uuid.New()
	p := seedProduct(t, r, "sock", 3, false)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.AddToCart(ctx, user, p.ID)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	lines, err := svc.Get(ctx, user)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.EqualValues(t, n, lines[0].Quantity)
}

func TestCart_AddUnknownProduct(t *testing.T) {
	svc := &CartService{Repo: newRepo(t)}
	_, err := svc.Add(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Add(context.Background(), uuid.New(), uuid.Nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCart_UpdateQuantity(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	svc := &CartService{Repo: r}
	user := uuid.New()
	p := seedProduct(t, r, "boot", 20, false)

	_, err := svc.UpdateQuantity(ctx, user, p.ID, 3)
	assert.ErrorIs(t, err, ErrNotFound, "line must exist")

	_, err = svc.Add(ctx, user, p.ID)
	require.NoError(t, err)

	lines, err := svc.UpdateQuantity(ctx, user, p.ID, 5)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 5, lines[0].Quantity)

	_, err = svc.UpdateQuantity(ctx, user, p.ID, -1)
	assert.ErrorIs(t, err, ErrValidation)

	lines, err = svc.UpdateQuantity(ctx, user, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCart_Remove(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	svc := &CartService{Repo: r}
	user := uuid.New()
	a := seedProduct(t, r, "a", 1, false)
	b := seedProduct(t, r, "b", 1, false)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		_, err := svc.Add(ctx, user, id)
		require.NoError(t, err)
	}

	lines, err := svc.Remove(ctx, user, a.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, b.ID, lines[0].ID)

	_, err = svc.Add(ctx, user, a.ID)
	require.NoError(t, err)
	lines, err = svc.Remove(ctx, user, uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCart_DeletedProductDisappears(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	svc := &CartService{Repo: r}
	user := uuid.New()
	p := seedProduct(t, r, "a", 1, false)

	_, err := svc.Add(ctx, user, p.ID)
	require.NoError(t, err)
	_, err = r.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)

	lines, err := svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
