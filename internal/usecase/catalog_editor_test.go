package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestEditor(t *testing.T) (*CatalogEditor, *ConfigStore, *memoryCache) {
	t.Helper()

	store, remote, cache := newLoadedStore(t)
	remote.On("Push", mock.Anything, mock.Anything).Return(nil)
	return NewCatalogEditorUC(store, logger.Nop{}), store, cache
}

func TestCatalogEditorProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("create assigns next id", func(t *testing.T) {
		editor, store, cache := newTestEditor(t)

		p, res, err := editor.CreateProduct(ctx, ProductInput{
			Name:     " Orangina ",
			Price:    d("3"),
			Category: "drinks",
			IsNew:    true,
			IsPromo:  true,
		})
		require.NoError(t, err)
		assert.Equal(t, FullySaved, res.Outcome())
		assert.Equal(t, int64(8), p.ID)
		assert.Equal(t, "Orangina", p.Name)
		assert.True(t, p.IsNew)
		assert.False(t, p.IsPromo)

		snap, err := store.Snapshot()
		require.NoError(t, err)
		drinks := snap.Products["drinks"]
		assert.Equal(t, int64(8), drinks[len(drinks)-1].ID)
		assert.Equal(t, snap, cache.stored())
	})

	t.Run("create into a missing category", func(t *testing.T) {
		editor, _, cache := newTestEditor(t)

		_, _, err := editor.CreateProduct(ctx, ProductInput{Name: "Tiramisu", Price: d("5"), Category: "desserts"})
		assert.ErrorIs(t, err, e.ErrCategoryNotFound)
		assert.Equal(t, 0, cache.sets)
	})

	t.Run("create with invalid price", func(t *testing.T) {
		editor, _, _ := newTestEditor(t)

		_, _, err := editor.CreateProduct(ctx, ProductInput{Name: "Free", Price: d("0"), Category: "drinks"})
		assert.ErrorIs(t, err, e.ErrPriceMustBePositive)
	})

	t.Run("update moves between categories", func(t *testing.T) {
		editor, store, _ := newTestEditor(t)

		p, _, err := editor.UpdateProduct(ctx, 2, ProductInput{Name: "Regina", Price: d("13"), Category: "drinks"})
		require.NoError(t, err)
		assert.Equal(t, "drinks", p.Category)

		snap, err := store.Snapshot()
		require.NoError(t, err)
		require.Len(t, snap.Products["pizza"], 1)
		require.Len(t, snap.Products["drinks"], 2)
		assert.Equal(t, int64(2), snap.Products["drinks"][1].ID)
		assert.True(t, snap.Products["drinks"][1].BasePrice.Equal(d("13")))
	})

	t.Run("update unknown", func(t *testing.T) {
		editor, _, _ := newTestEditor(t)

		_, _, err := editor.UpdateProduct(ctx, 99, ProductInput{Name: "X", Price: d("1"), Category: "pizza"})
		assert.ErrorIs(t, err, e.ErrProductNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		editor, store, _ := newTestEditor(t)

		_, err := editor.DeleteProduct(ctx, 1)
		require.NoError(t, err)
		_, err = store.Product(1)
		assert.ErrorIs(t, err, e.ErrNotFound)

		_, err = editor.DeleteProduct(ctx, 1)
		assert.ErrorIs(t, err, e.ErrProductNotFound)
	})
}

func TestCatalogEditorCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("create and conflict", func(t *testing.T) {
		editor, store, _ := newTestEditor(t)

		_, _, err := editor.CreateCategory(ctx, CategoryInput{ID: "desserts", Name: "Desserts", Emoji: "🍰"})
		require.NoError(t, err)

		categories, err := store.Categories()
		require.NoError(t, err)
		assert.Len(t, categories, 3)

		_, _, err = editor.CreateCategory(ctx, CategoryInput{ID: "desserts", Name: "Again"})
		assert.ErrorIs(t, err, e.ErrConflict)

		_, _, err = editor.CreateCategory(ctx, CategoryInput{ID: "x"})
		assert.ErrorIs(t, err, e.ErrCategoryNameRequired)
	})

	t.Run("rename cascades atomically", func(t *testing.T) {
		editor, store, cache := newTestEditor(t)

		before, err := store.Snapshot()
		require.NoError(t, err)
		oldIDs := []int64{}
		for _, p := range before.Products["pizza"] {
			oldIDs = append(oldIDs, p.ID)
		}

		c, _, err := editor.UpdateCategory(ctx, "pizza", CategoryInput{ID: "pizzas", Name: "Pizzas", Emoji: "🍕", Description: "Wood fired"})
		require.NoError(t, err)
		assert.Equal(t, "pizzas", c.ID)

		after, err := store.Snapshot()
		require.NoError(t, err)
		_, oldExists := after.Categories["pizza"]
		assert.False(t, oldExists)
		assert.Equal(t, "Wood fired", after.Categories["pizzas"].Description)

		for _, p := range after.AllProducts() {
			assert.NotEqual(t, "pizza", p.Category)
		}
		for _, id := range oldIDs {
			p, ok := after.FindProduct(id)
			require.True(t, ok)
			assert.Equal(t, "pizzas", p.Category)
		}
		assert.Equal(t, 1, cache.sets)
		assert.Equal(t, after, cache.stored())
	})

	t.Run("rename onto existing id", func(t *testing.T) {
		editor, store, _ := newTestEditor(t)

		_, _, err := editor.UpdateCategory(ctx, "pizza", CategoryInput{ID: "drinks", Name: "Drinks"})
		assert.ErrorIs(t, err, e.ErrCategoryExists)

		snap, err := store.Snapshot()
		require.NoError(t, err)
		assert.Len(t, snap.Products["pizza"], 2)
	})

	t.Run("update fields in place", func(t *testing.T) {
		editor, store, _ := newTestEditor(t)

		_, _, err := editor.UpdateCategory(ctx, "drinks", CategoryInput{Name: "Cold drinks", Emoji: "🧊"})
		require.NoError(t, err)

		categories, err := store.Categories()
		require.NoError(t, err)
		assert.Equal(t, "Cold drinks", categories[0].Name)
	})

	t.Run("delete requires confirmation and cascades", func(t *testing.T) {
		editor, store, _ := newTestEditor(t)

		_, _, err := editor.DeleteCategory(ctx, "pizza", false)
		assert.ErrorIs(t, err, e.ErrConfirmationRequired)

		removed, res, err := editor.DeleteCategory(ctx, "pizza", true)
		require.NoError(t, err)
		assert.Equal(t, 2, removed)
		assert.Equal(t, FullySaved, res.Outcome())

		snap, err := store.Snapshot()
		require.NoError(t, err)
		for _, p := range snap.AllProducts() {
			assert.NotEqual(t, "pizza", p.Category)
		}
		assert.Len(t, snap.AllProducts(), 1)
	})
}

func TestCatalogEditorDegradedSave(t *testing.T) {
	store, remote, cache := newLoadedStore(t)
	remote.On("Push", mock.Anything, mock.Anything).Return(errRemoteDown)
	editor := NewCatalogEditorUC(store, logger.Nop{})

	p, res, err := editor.CreateProduct(context.Background(), ProductInput{
		Name:     "Croissant",
		Price:    d("1.2"),
		Category: "pizza",
		CustomPrices: map[domain.QuantityKey]domain.PriceEntry{
			"12": domain.SimplePrice(d("12")),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, SavedLocally, res.Outcome())

	cached, ok := cache.stored().FindProduct(p.ID)
	require.True(t, ok)
	assert.Len(t, cached.CustomPrices, 1)
}
