package usecase

import (
	"context"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
)

// OrderPublisher передаёт отправленный заказ оператору.
type OrderPublisher interface {
	PublishOrder(ctx context.Context, order *domain.Order) error
}
