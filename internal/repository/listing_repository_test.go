package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givecycle/marketplace/internal/model"
)

func TestListingRepository_MarkUnavailable(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewListingRepository(db)
	ctx := context.Background()

	t.Run("first flip wins, second loses", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.Listing{
			OwnerID:     1,
			Title:       "desk",
			Category:    "furniture",
			Credits:     20,
			IsAvailable: true,
		})
		require.NoError(t, err)

		err = repo.MarkUnavailable(ctx, created.ID)
		require.NoError(t, err)

		err = repo.MarkUnavailable(ctx, created.ID)
		assert.ErrorIs(t, err, ErrListingUnavailable)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, got.IsAvailable)
	})

	t.Run("missing listing", func(t *testing.T) {
		err := repo.MarkUnavailable(ctx, 4242)
		assert.ErrorIs(t, err, ErrListingNotFound)
	})
}

func TestListingRepository_ListAvailable(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewListingRepository(db)
	ctx := context.Background()

	mk := func(owner int64, category string, price, credits uint) *model.Listing {
		l, err := repo.Create(ctx, &model.Listing{
			OwnerID:     owner,
			Title:       "item",
			Category:    category,
			Price:       price,
			Credits:     credits,
			IsAvailable: true,
		})
		require.NoError(t, err)
		return l
	}

	free := mk(1, "clothing", 0, 5)
	mk(1, "clothing", 15, 10)
	mk(2, "books", 30, 12)
	sold := mk(2, "books", 8, 3)

	require.NoError(t, repo.MarkUnavailable(ctx, sold.ID))

	t.Run("excludes consumed listings", func(t *testing.T) {
		items, total, err := repo.ListAvailable(ctx, model.ListingFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		for _, l := range items {
			assert.True(t, l.IsAvailable)
			assert.NotEqual(t, sold.ID, l.ID)
		}
	})

	t.Run("filter by owner", func(t *testing.T) {
		items, total, err := repo.ListAvailable(ctx, model.ListingFilter{OwnerID: ptr(int64(1))})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 2)
	})

	t.Run("filter by price range", func(t *testing.T) {
		min, max := uint(0), uint(0)
		items, _, err := repo.ListAvailable(ctx, model.ListingFilter{MinPrice: &min, MaxPrice: &max})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, free.ID, items[0].ID)
	})

	t.Run("most recent first", func(t *testing.T) {
		items, _, err := repo.ListAvailable(ctx, model.ListingFilter{Desc: true})
		require.NoError(t, err)
		require.NotEmpty(t, items)
		for i := 1; i < len(items); i++ {
			assert.GreaterOrEqual(t, items[i-1].ID, items[i].ID)
		}
	})
}
