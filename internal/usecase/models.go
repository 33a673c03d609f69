package usecase

import (
	"fmt"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// CONFIG STORE

// SnapshotSource — откуда загружен снимок.
type SnapshotSource string

const (
	SourceRemote SnapshotSource = "remote"
	SourceCache  SnapshotSource = "cache"
)

// LoadResult — результат загрузки: ровно один источник на вызов.
type LoadResult struct {
	Source   SnapshotSource
	Products int
}

// SaveOutcome — итог сохранения для пользователя.
type SaveOutcome string

const (
	NothingSaved SaveOutcome = "nothing saved"
	SavedLocally SaveOutcome = "saved locally only"
	FullySaved   SaveOutcome = "fully saved"
)

// SaveResult — результат сохранения. CacheOK=false означает, что ничего не сохранено.
type SaveResult struct {
	CacheOK            bool
	RemoteOK           bool
	RemoteNotPersisted bool  // точка сохранения доступна, но работает только на чтение
	RemoteErr          error // причина деградации, если RemoteOK=false
}

func (r *SaveResult) Outcome() SaveOutcome {
	switch {
	case r == nil || !r.CacheOK:
		return NothingSaved
	case !r.RemoteOK:
		return SavedLocally
	default:
		return FullySaved
	}
}

// Message — человекочитаемое описание итога.
func (r *SaveResult) Message() string {
	switch r.Outcome() {
	case FullySaved:
		return "Changes saved"
	case SavedLocally:
		if r.RemoteNotPersisted {
			return "Changes saved locally only: the server storage is read-only"
		}
		return "Changes saved locally only: the server is unreachable, they will be sent with the next save"
	default:
		return "Nothing saved: local storage is unavailable"
	}
}

// PersistError — правка уже применена в памяти, но сохранить её не удалось.
// Повторить можно вызовом ConfigStore.Save без повторного ввода правки.
type PersistError struct {
	Result *SaveResult
	Err    error
}

func (p *PersistError) Error() string {
	return fmt.Sprintf("change applied but not saved: %v", p.Err)
}

func (p *PersistError) Unwrap() error {
	return p.Err
}

// CART

// CartLimits — ограничения корзины.
type CartLimits struct {
	MaxLines        int
	MaxTotal        decimal.Decimal
	MaxItemQuantity decimal.Decimal
}

func DefaultCartLimits() CartLimits {
	return CartLimits{
		MaxLines:        50,
		MaxTotal:        decimal.NewFromInt(10000),
		MaxItemQuantity: decimal.NewFromInt(1000),
	}
}

// LineTotal — рассчитанная строка корзины.
type LineTotal struct {
	ProductID int64
	Name      string
	Emoji     string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// CartTotal — итог корзины с разбивкой по строкам.
type CartTotal struct {
	Mode  domain.FulfillmentMode
	Lines []LineTotal
	Total decimal.Decimal
}

// CartView — состояние корзины сессии вместе с шагом оформления.
type CartView struct {
	Cart        *CartTotal
	State       domain.OrderState
	Address     string
	ArrivalTime string
}

// OrderReceipt — результат отправки заказа.
type OrderReceipt struct {
	Order    *domain.Order
	Message  string
	DeepLink string
}

// CATALOG EDITOR

// ProductInput — поля товара, задаваемые оператором. ID назначается хранилищем.
type ProductInput struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	Emoji        string
	Image        string
	Video        string
	Category     string
	IsNew        bool
	IsPromo      bool
	CustomPrices map[domain.QuantityKey]domain.PriceEntry
}

// CategoryInput — поля категории. Отличающийся ID при обновлении означает переименование.
type CategoryInput struct {
	ID          string
	Name        string
	Emoji       string
	Description string
}

// MAPPERS

func NewLoadResult(source SnapshotSource, products int) *LoadResult {
	return &LoadResult{
		Source:   source,
		Products: products,
	}
}

func NewLineTotal(p *domain.Product, qty decimal.Decimal, mode domain.FulfillmentMode) LineTotal {
	return LineTotal{
		ProductID: p.ID,
		Name:      p.Name,
		Emoji:     p.Emoji,
		Quantity:  qty,
		UnitPrice: domain.UnitPrice(p, qty, mode),
		Total:     domain.ResolvePrice(p, qty, mode),
	}
}

func NewCartView(total *CartTotal, flow *domain.OrderFlow) *CartView {
	return &CartView{
		Cart:        total,
		State:       flow.State(),
		Address:     flow.Address(),
		ArrivalTime: flow.ArrivalTime(),
	}
}

func NewOrderReceipt(order *domain.Order, handle string) *OrderReceipt {
	r := &OrderReceipt{
		Order:   order,
		Message: order.Message(),
	}
	if domain.NormalizeIdentity(handle) != "" {
		r.DeepLink = order.DeepLink(handle)
	}

	return r
}

func (in *ProductInput) toDomain(id int64) *domain.Product {
	p := &domain.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		BasePrice:   in.Price,
		Emoji:       in.Emoji,
		Image:       in.Image,
		Video:       in.Video,
		Category:    in.Category,
		IsNew:       in.IsNew,
		IsPromo:     in.IsPromo,
	}

	if len(in.CustomPrices) > 0 {
		p.CustomPrices = make(map[domain.QuantityKey]domain.PriceEntry, len(in.CustomPrices))
		for k, v := range in.CustomPrices {
			p.CustomPrices[k] = v
		}
	}

	return p
}
