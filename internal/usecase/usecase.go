package usecase

import (
	"context"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/shopspring/decimal"
)

type CatalogReader interface {
	Snapshot() (*domain.Snapshot, error)
	Product(id int64) (*domain.Product, error)
	Categories() ([]*domain.Category, error)
}

type ConfigStoreUC interface {
	CatalogReader
	Load(ctx context.Context) (*LoadResult, error)
	Save(ctx context.Context) (*SaveResult, error)
	Replace(ctx context.Context, snapshot *domain.Snapshot) (*SaveResult, error)
	RemoteReachable() bool
}

type CatalogEditorUC interface {
	CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, *SaveResult, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) (*domain.Product, *SaveResult, error)
	DeleteProduct(ctx context.Context, id int64) (*SaveResult, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, *SaveResult, error)
	UpdateCategory(ctx context.Context, id string, in CategoryInput) (*domain.Category, *SaveResult, error)
	DeleteCategory(ctx context.Context, id string, confirmed bool) (int, *SaveResult, error)
}

type AdminUC interface {
	IsAdmin(identity string) bool
	Settings() (domain.AdminConfig, error)
	AddAdmin(ctx context.Context, identity string) (*SaveResult, error)
	RemoveAdmin(ctx context.Context, identity string) (*SaveResult, error)
	UpdateSettings(ctx context.Context, handle, channelLink string) (*SaveResult, error)
}

type CartUC interface {
	GetCart(sessionID string) (*CartView, error)
	AddItem(sessionID string, productID int64, qty decimal.Decimal) (*CartView, error)
	SetItemQuantity(sessionID string, productID int64, qty decimal.Decimal) (*CartView, error)
	RemoveItem(sessionID string, productID int64) (*CartView, error)
	ClearCart(sessionID string) (*CartView, error)
	SetFulfillmentMode(sessionID string, mode domain.FulfillmentMode) (*CartView, error)
	SetOrderDetail(sessionID string, detail string) (*CartView, error)
	CancelCheckout(sessionID string) (*CartView, error)
	SubmitOrder(ctx context.Context, sessionID, customer string) (*OrderReceipt, error)
}

type ConfigEndpointUC interface {
	GetSnapshot(ctx context.Context) (*domain.Snapshot, error)
	PutSnapshot(ctx context.Context, snapshot *domain.Snapshot) error
}
