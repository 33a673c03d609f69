package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestConfigEndpointUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a valid snapshot", func(t *testing.T) {
		repo := new(MockSnapshotRepository)
		uc := NewConfigEndpointUC(repo, logger.Nop{})
		repo.On("Store", mock.Anything, mock.Anything).Return(nil).Once()

		require.NoError(t, uc.PutSnapshot(ctx, testSnapshot()))
		repo.AssertExpectations(t)
	})

	t.Run("rejects an invalid snapshot without storing", func(t *testing.T) {
		repo := new(MockSnapshotRepository)
		uc := NewConfigEndpointUC(repo, logger.Nop{})

		broken := testSnapshot()
		broken.Products["drinks"][0].ID = 1

		assert.ErrorIs(t, uc.PutSnapshot(ctx, broken), e.ErrDuplicateProductID)
		assert.ErrorIs(t, uc.PutSnapshot(ctx, nil), e.ErrInvalidSnapshot)
		repo.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	})

	t.Run("read-only backend", func(t *testing.T) {
		repo := new(MockSnapshotRepository)
		uc := NewConfigEndpointUC(repo, logger.Nop{})
		repo.On("Store", mock.Anything, mock.Anything).Return(fmt.Errorf("open config.json: %w", e.ErrNotPersisted)).Once()

		assert.ErrorIs(t, uc.PutSnapshot(ctx, testSnapshot()), e.ErrNotPersisted)
	})

	t.Run("get", func(t *testing.T) {
		repo := new(MockSnapshotRepository)
		uc := NewConfigEndpointUC(repo, logger.Nop{})
		repo.On("Load", mock.Anything).Return(nil, e.ErrSnapshotNotFound).Once()
		repo.On("Load", mock.Anything).Return(testSnapshot(), nil).Once()

		_, err := uc.GetSnapshot(ctx)
		assert.ErrorIs(t, err, e.ErrNotFound)

		snap, err := uc.GetSnapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.AllProducts(), 3)
	})
}
