package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCartUC(t *testing.T) (*CartUseCase, *MockOrderPublisher) {
	t.Helper()

	store, _, _ := newLoadedStore(t)
	publisher := new(MockOrderPublisher)
	return NewCartUC(store, store, publisher, DefaultCartLimits(), logger.Nop{}), publisher
}

func TestCartUseCaseCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("pickup order end to end", func(t *testing.T) {
		uc, publisher := newTestCartUC(t)

		view, err := uc.AddItem("42", 1, d("5"))
		require.NoError(t, err)
		assert.Equal(t, domain.OrderBuilding, view.State)

		view, err = uc.SetFulfillmentMode("42", domain.ModePickup)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderModeSelected, view.State)
		assert.True(t, view.Cart.Total.Equal(d("40")))

		view, err = uc.SetOrderDetail("42", "19:30")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderDetailCollected, view.State)

		publisher.On("PublishOrder", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
			return o.Mode == domain.ModePickup && o.ArrivalTime == "19:30" && o.Total.Equal(d("40")) && len(o.Lines) == 1
		})).Return(nil).Once()

		receipt, err := uc.SubmitOrder(ctx, "42", "@bob")
		require.NoError(t, err)
		assert.Equal(t, "@bob", receipt.Order.Customer)
		assert.Contains(t, receipt.Message, "PICKUP")
		assert.True(t, strings.HasPrefix(receipt.DeepLink, "https://t.me/resto?text="))
		publisher.AssertExpectations(t)

		view, err = uc.GetCart("42")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderEmpty, view.State)
		assert.Empty(t, view.Cart.Lines)
	})

	t.Run("publish failure keeps cart and details", func(t *testing.T) {
		uc, publisher := newTestCartUC(t)

		_, err := uc.AddItem("7", 2, d("1"))
		require.NoError(t, err)
		_, err = uc.SetFulfillmentMode("7", domain.ModeDelivery)
		require.NoError(t, err)
		_, err = uc.SetOrderDetail("7", "12 rue de la Paix, Paris")
		require.NoError(t, err)

		publisher.On("PublishOrder", mock.Anything, mock.Anything).Return(errors.New("kafka: leader not available")).Once()

		_, err = uc.SubmitOrder(ctx, "7", "")
		assert.ErrorIs(t, err, e.ErrOrderNotSent)
		assert.ErrorIs(t, err, e.ErrPersistence)

		view, err := uc.GetCart("7")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderDetailCollected, view.State)
		assert.Equal(t, "12 rue de la Paix, Paris", view.Address)
		assert.Len(t, view.Cart.Lines, 1)
	})

	t.Run("price raised past the total limit blocks submit", func(t *testing.T) {
		store, _, _ := newLoadedStore(t)
		snapshot := testSnapshot()
		publisher := new(MockOrderPublisher)
		limits := DefaultCartLimits()
		limits.MaxTotal = d("100")
		uc := NewCartUC(staticCatalog{snapshot: snapshot}, store, publisher, limits, logger.Nop{})

		_, err := uc.AddItem("9", 2, d("8"))
		require.NoError(t, err)
		_, err = uc.SetFulfillmentMode("9", domain.ModePickup)
		require.NoError(t, err)
		_, err = uc.SetOrderDetail("9", "19:30")
		require.NoError(t, err)

		p, ok := snapshot.FindProduct(2)
		require.True(t, ok)
		p.BasePrice = d("50")

		_, err = uc.SubmitOrder(ctx, "9", "")
		assert.ErrorIs(t, err, e.ErrTotalTooLarge)
		publisher.AssertNotCalled(t, "PublishOrder", mock.Anything, mock.Anything)

		_, err = uc.GetCart("9")
		assert.ErrorIs(t, err, e.ErrBounds)

		view, err := uc.ClearCart("9")
		require.NoError(t, err)
		assert.Empty(t, view.Cart.Lines)
	})

	t.Run("submit needs collected details", func(t *testing.T) {
		uc, publisher := newTestCartUC(t)

		_, err := uc.AddItem("1", 2, d("1"))
		require.NoError(t, err)

		_, err = uc.SubmitOrder(ctx, "1", "")
		assert.ErrorIs(t, err, e.ErrInvalidTransition)
		publisher.AssertNotCalled(t, "PublishOrder", mock.Anything, mock.Anything)
	})

	t.Run("cancel keeps the cart", func(t *testing.T) {
		uc, _ := newTestCartUC(t)

		_, err := uc.AddItem("1", 2, d("2"))
		require.NoError(t, err)
		_, err = uc.SetFulfillmentMode("1", domain.ModePickup)
		require.NoError(t, err)

		view, err := uc.CancelCheckout("1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderBuilding, view.State)
		require.Len(t, view.Cart.Lines, 1)
		assert.True(t, view.Cart.Lines[0].Quantity.Equal(d("2")))
	})

	t.Run("editing the cart restarts checkout", func(t *testing.T) {
		uc, _ := newTestCartUC(t)

		_, err := uc.AddItem("1", 2, d("1"))
		require.NoError(t, err)
		_, err = uc.SetFulfillmentMode("1", domain.ModePickup)
		require.NoError(t, err)
		_, err = uc.SetOrderDetail("1", "20:00")
		require.NoError(t, err)

		view, err := uc.SetItemQuantity("1", 2, d("3"))
		require.NoError(t, err)
		assert.Equal(t, domain.OrderBuilding, view.State)

		view, err = uc.RemoveItem("1", 2)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderEmpty, view.State)
	})
}

func TestCartUseCaseSessions(t *testing.T) {
	uc, _ := newTestCartUC(t)

	_, err := uc.AddItem("alice", 1, d("1"))
	require.NoError(t, err)

	view, err := uc.GetCart("bob")
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Lines)

	_, err = uc.GetCart("  ")
	assert.ErrorIs(t, err, e.ErrSessionRequired)

	view, err = uc.ClearCart("alice")
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Lines)

	t.Run("idle sessions are pruned", func(t *testing.T) {
		assert.Equal(t, 0, uc.PruneIdle(time.Hour))

		uc.sessions["alice"].lastSeen = time.Now().Add(-2 * time.Hour)
		assert.Equal(t, 1, uc.PruneIdle(time.Hour))
		assert.NotContains(t, uc.sessions, "alice")
		assert.Contains(t, uc.sessions, "bob")
	})
}
