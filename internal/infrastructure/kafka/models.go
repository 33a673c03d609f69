package kafka

import (
	"time"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// OrderEvent — полезная нагрузка сообщения о заказе.
type OrderEvent struct {
	OrderID     string           `json:"order_id"`
	Customer    string           `json:"customer,omitempty"`
	Mode        string           `json:"mode"`
	Address     string           `json:"address,omitempty"`
	ArrivalTime string           `json:"arrival_time,omitempty"`
	Lines       []OrderLineEvent `json:"lines"`
	Total       decimal.Decimal  `json:"total"`
	Message     string           `json:"message"`
	CreatedAt   time.Time        `json:"created_at"`
}

type OrderLineEvent struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

func ToOrderEvent(order *domain.Order) *OrderEvent {
	lines := make([]OrderLineEvent, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderLineEvent{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Total:     line.Total,
		})
	}

	return &OrderEvent{
		OrderID:     order.ID.String(),
		Customer:    order.Customer,
		Mode:        string(order.Mode),
		Address:     order.Address,
		ArrivalTime: order.ArrivalTime,
		Lines:       lines,
		Total:       order.Total,
		Message:     order.Message(),
		CreatedAt:   order.CreatedAt.UTC(),
	}
}
