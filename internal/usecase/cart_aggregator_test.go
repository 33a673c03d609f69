package usecase

import (
	"testing"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct {
	snapshot *domain.Snapshot
}

func (c staticCatalog) Product(id int64) (*domain.Product, error) {
	p, ok := c.snapshot.FindProduct(id)
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return p, nil
}

func newTestAggregator(limits CartLimits) (*CartAggregator, *domain.Snapshot) {
	snapshot := testSnapshot()
	return NewCartAggregator(staticCatalog{snapshot: snapshot}, limits), snapshot
}

func TestCartAggregatorAdd(t *testing.T) {
	t.Run("additive merge", func(t *testing.T) {
		a, _ := newTestAggregator(DefaultCartLimits())

		require.NoError(t, a.Add(1, d("2")))
		require.NoError(t, a.Add(1, d("3")))

		items := a.Items()
		require.Len(t, items, 1)
		assert.True(t, items[0].Quantity.Equal(d("5")))
	})

	t.Run("unknown product", func(t *testing.T) {
		a, _ := newTestAggregator(DefaultCartLimits())

		assert.ErrorIs(t, a.Add(99, d("1")), e.ErrNotFound)
		assert.True(t, a.IsEmpty())
	})

	t.Run("non-positive quantity is rejected", func(t *testing.T) {
		a, _ := newTestAggregator(DefaultCartLimits())

		assert.ErrorIs(t, a.Add(1, d("0")), e.ErrValidation)
		assert.ErrorIs(t, a.Add(1, d("-2")), e.ErrValidation)
		assert.True(t, a.IsEmpty())
	})
}

func TestCartAggregatorTotals(t *testing.T) {
	a, _ := newTestAggregator(DefaultCartLimits())
	require.NoError(t, a.Add(1, d("5")))
	require.NoError(t, a.Add(7, d("2")))

	total, err := a.ComputeTotal()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDelivery, total.Mode)
	assert.True(t, total.Total.Equal(d("50")), total.Total.String())

	sum := decimal.Zero
	for _, line := range total.Lines {
		sum = sum.Add(line.Total)
	}
	assert.True(t, sum.Equal(total.Total))

	t.Run("mode toggle recomputes every line", func(t *testing.T) {
		pickup, err := a.SetFulfillmentMode(domain.ModePickup)
		require.NoError(t, err)
		assert.True(t, pickup.Total.Equal(d("45")), pickup.Total.String())
		assert.True(t, pickup.Lines[0].Total.Equal(d("40")))
		assert.True(t, pickup.Lines[0].UnitPrice.Equal(d("8")))

		for i, item := range a.Items() {
			assert.True(t, item.Quantity.Equal(total.Lines[i].Quantity))
		}
	})

	t.Run("unmatched quantity is linear", func(t *testing.T) {
		require.NoError(t, a.SetQuantity(1, d("3")))
		res, err := a.ComputeTotal()
		require.NoError(t, err)
		assert.True(t, res.Lines[0].Total.Equal(d("30")))
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := a.SetFulfillmentMode("drone")
		assert.ErrorIs(t, err, e.ErrInvalidFulfillmentMode)
		assert.Equal(t, domain.ModePickup, a.Mode())
	})
}

func TestCartAggregatorBounds(t *testing.T) {
	t.Run("line count is reported, not truncated", func(t *testing.T) {
		limits := DefaultCartLimits()
		limits.MaxLines = 2
		a, _ := newTestAggregator(limits)

		require.NoError(t, a.Add(1, d("1")))
		require.NoError(t, a.Add(2, d("1")))

		err := a.Add(7, d("1"))
		assert.ErrorIs(t, err, e.ErrBounds)
		assert.ErrorIs(t, err, e.ErrTooManyLines)
		assert.Len(t, a.Items(), 2)
	})

	t.Run("total", func(t *testing.T) {
		limits := DefaultCartLimits()
		limits.MaxTotal = d("100")
		a, _ := newTestAggregator(limits)

		require.NoError(t, a.Add(2, d("8")))
		assert.ErrorIs(t, a.Add(2, d("1")), e.ErrTotalTooLarge)

		items := a.Items()
		require.Len(t, items, 1)
		assert.True(t, items[0].Quantity.Equal(d("8")))
	})

	t.Run("item quantity", func(t *testing.T) {
		a, _ := newTestAggregator(DefaultCartLimits())

		assert.ErrorIs(t, a.Add(7, d("1001")), e.ErrItemQuantityTooLarge)
		assert.True(t, a.IsEmpty())
	})

	t.Run("total after a price change", func(t *testing.T) {
		limits := DefaultCartLimits()
		limits.MaxTotal = d("100")
		a, snapshot := newTestAggregator(limits)

		require.NoError(t, a.Add(2, d("8")))

		p, ok := snapshot.FindProduct(2)
		require.True(t, ok)
		p.BasePrice = d("50")

		_, err := a.ComputeTotal()
		assert.ErrorIs(t, err, e.ErrBounds)
		assert.ErrorIs(t, err, e.ErrTotalTooLarge)
		assert.Len(t, a.Items(), 1)

		require.NoError(t, a.SetQuantity(2, d("2")))
		total, err := a.ComputeTotal()
		require.NoError(t, err)
		assert.True(t, total.Total.Equal(d("100")))
	})

	t.Run("huge quantity is rejected before pricing", func(t *testing.T) {
		a, _ := newTestAggregator(DefaultCartLimits())
		require.NoError(t, a.Add(1, d("1")))

		assert.ErrorIs(t, a.SetQuantity(1, decimal.New(1, 20000000)), e.ErrInvalidQuantity)
		assert.ErrorIs(t, a.Add(1, decimal.New(1, 20000000)), e.ErrInvalidQuantity)
		assert.True(t, a.Items()[0].Quantity.Equal(d("1")))
	})
}

func TestCartAggregatorEdits(t *testing.T) {
	a, snapshot := newTestAggregator(DefaultCartLimits())
	require.NoError(t, a.Add(1, d("1")))
	require.NoError(t, a.Add(7, d("1")))

	require.NoError(t, a.SetQuantity(1, d("0")))
	assert.Len(t, a.Items(), 1)

	assert.ErrorIs(t, a.SetQuantity(1, d("2")), e.ErrNotFound)
	assert.ErrorIs(t, a.Remove(1), e.ErrNotFound)

	t.Run("line of a deleted product is surfaced", func(t *testing.T) {
		require.True(t, snapshot.RemoveProduct(7))

		_, err := a.ComputeTotal()
		assert.ErrorIs(t, err, e.ErrProductNotFound)

		require.NoError(t, a.Remove(7))
		total, err := a.ComputeTotal()
		require.NoError(t, err)
		assert.True(t, total.Total.IsZero())
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, a.Add(2, d("1")))
		a.Clear()
		assert.True(t, a.IsEmpty())
	})
}
