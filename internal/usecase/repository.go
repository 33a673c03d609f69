package usecase

import (
	"context"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
)

// SnapshotRemote — удалённый источник истины.
// Push возвращает ошибку, оборачивающую e.ErrNotPersisted, если точка сохранения работает только на чтение.
type SnapshotRemote interface {
	Fetch(ctx context.Context) (*domain.Snapshot, error)
	Push(ctx context.Context, snapshot *domain.Snapshot) error
}

// SnapshotCache — локальная долговременная копия снимка. Пустой кэш — e.ErrCacheMiss.
type SnapshotCache interface {
	Get(ctx context.Context) (*domain.Snapshot, error)
	Set(ctx context.Context, snapshot *domain.Snapshot) error
}

// SnapshotRepository — хранилище точки сохранения (file, minio, postgres).
type SnapshotRepository interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Store(ctx context.Context, snapshot *domain.Snapshot) error
}

// ProductCatalog — доступ корзины к текущему каталогу.
type ProductCatalog interface {
	Product(id int64) (*domain.Product, error)
}

// AdminSettings — доступ к настройкам оператора текущего снимка.
type AdminSettings interface {
	Admin() (domain.AdminConfig, error)
}
