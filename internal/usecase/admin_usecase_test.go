package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminUseCase(t *testing.T) {
	ctx := context.Background()
	store, remote, _ := newLoadedStore(t)
	remote.On("Push", mock.Anything, mock.Anything).Return(nil)

	uc := NewAdminUC(store, []string{"@Owner", ""}, logger.Nop{})

	t.Run("whitelist and bootstrap", func(t *testing.T) {
		assert.True(t, uc.IsAdmin("@ALICE"))
		assert.True(t, uc.IsAdmin("owner"))
		assert.False(t, uc.IsAdmin("mallory"))
		assert.False(t, uc.IsAdmin(""))
	})

	t.Run("add and remove", func(t *testing.T) {
		_, err := uc.AddAdmin(ctx, "@bob")
		require.NoError(t, err)
		assert.True(t, uc.IsAdmin("Bob"))

		_, err = uc.AddAdmin(ctx, "BOB")
		assert.ErrorIs(t, err, e.ErrConflict)

		_, err = uc.RemoveAdmin(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, uc.IsAdmin("bob"))

		_, err = uc.RemoveAdmin(ctx, "bob")
		assert.ErrorIs(t, err, e.ErrNotFound)
	})

	t.Run("settings", func(t *testing.T) {
		_, err := uc.UpdateSettings(ctx, " ", "")
		assert.ErrorIs(t, err, e.ErrHandleRequired)

		res, err := uc.UpdateSettings(ctx, "@new_resto", " https://t.me/news ")
		require.NoError(t, err)
		assert.Equal(t, FullySaved, res.Outcome())

		settings, err := uc.Settings()
		require.NoError(t, err)
		assert.Equal(t, "new_resto", settings.TelegramHandle)
		assert.Equal(t, "https://t.me/news", settings.ChannelLink)
	})
}
