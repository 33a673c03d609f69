package usecase

import (
	"context"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
)

// ConfigEndpointUseCase — точка сохранения: принимает и отдаёт снимок целиком.
type ConfigEndpointUseCase struct {
	repo   SnapshotRepository
	logger logger.Logger
}

func NewConfigEndpointUC(repo SnapshotRepository, logger logger.Logger) *ConfigEndpointUseCase {
	return &ConfigEndpointUseCase{
		repo:   repo,
		logger: logger,
	}
}

// GetSnapshot возвращает сохранённый снимок или e.ErrSnapshotNotFound.
func (c *ConfigEndpointUseCase) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	const op = "ConfigEndpointUseCase.GetSnapshot"

	snapshot, err := c.repo.Load(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return snapshot, nil
}

// PutSnapshot проверяет и сохраняет снимок. На хранилище только для чтения
// возвращается ошибка, оборачивающая e.ErrNotPersisted.
func (c *ConfigEndpointUseCase) PutSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	const op = "ConfigEndpointUseCase.PutSnapshot"

	if snapshot == nil {
		return e.Wrap(op, e.ErrInvalidSnapshot)
	}

	if err := snapshot.Validate(); err != nil {
		return e.Wrap(op, err)
	}

	if err := c.repo.Store(ctx, snapshot); err != nil {
		return e.Wrap(op, err)
	}

	c.logger.Infof("Configuration stored, categories: %d, products: %d", len(snapshot.Categories), len(snapshot.AllProducts()))
	return nil
}
