package usecase

import (
	"fmt"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// CartAggregator ведёт корзину одной сессии. Цены строк всегда считаются заново
// по текущему каталогу; сохранённых цен в корзине нет.
// Операция, нарушающая ограничения, возвращает e.ErrBounds и не меняет корзину.
type CartAggregator struct {
	catalog ProductCatalog
	limits  CartLimits
	cart    *domain.Cart
}

func NewCartAggregator(catalog ProductCatalog, limits CartLimits) *CartAggregator {
	return &CartAggregator{
		catalog: catalog,
		limits:  limits,
		cart:    domain.NewCart(),
	}
}

// Add добавляет количество к строке товара или создаёт новую строку в конце.
func (a *CartAggregator) Add(productID int64, qty decimal.Decimal) error {
	const op = "CartAggregator.Add"

	if err := domain.ValidateQuantity(qty); err != nil {
		return e.Wrap(op, err)
	}

	if _, err := a.catalog.Product(productID); err != nil {
		return e.Wrap(op, err)
	}

	draft := a.cart.Clone()
	draft.Add(productID, qty)

	return a.commit(op, draft)
}

// SetQuantity заменяет количество строки. Неположительное значение удаляет строку.
func (a *CartAggregator) SetQuantity(productID int64, qty decimal.Decimal) error {
	const op = "CartAggregator.SetQuantity"

	if qty.IsPositive() {
		if err := domain.ValidateQuantity(qty); err != nil {
			return e.Wrap(op, err)
		}
	}

	draft := a.cart.Clone()
	if err := draft.Set(productID, qty); err != nil {
		return e.Wrap(op, err)
	}

	return a.commit(op, draft)
}

func (a *CartAggregator) Remove(productID int64) error {
	if !a.cart.Remove(productID) {
		return e.Wrap(fmt.Sprintf("product %d", productID), e.ErrCartLineNotFound)
	}

	return nil
}

func (a *CartAggregator) Clear() {
	a.cart.Clear()
}

// SetFulfillmentMode переключает способ получения и пересчитывает все строки. Количества не меняются.
func (a *CartAggregator) SetFulfillmentMode(mode domain.FulfillmentMode) (*CartTotal, error) {
	const op = "CartAggregator.SetFulfillmentMode"

	if !mode.IsValid() {
		return nil, e.Wrap(op, e.ErrInvalidFulfillmentMode)
	}

	draft := a.cart.Clone()
	draft.SetMode(mode)

	total, err := a.check(draft)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	a.cart = draft
	return total, nil
}

// ComputeTotal считает каждую строку через ResolvePrice и суммирует.
// Строка, чей товар удалён из каталога, — ошибка NotFound; вызывающий удаляет её явно.
// Ограничения проверяются и здесь: после изменения цен итог может выйти за MaxTotal.
func (a *CartAggregator) ComputeTotal() (*CartTotal, error) {
	return a.check(a.cart)
}

func (a *CartAggregator) Items() []domain.CartItem {
	return a.cart.Items()
}

func (a *CartAggregator) Mode() domain.FulfillmentMode {
	return a.cart.Mode()
}

func (a *CartAggregator) IsEmpty() bool {
	return a.cart.IsEmpty()
}

func (a *CartAggregator) commit(op string, draft *domain.Cart) error {
	if _, err := a.check(draft); err != nil {
		return e.Wrap(op, err)
	}

	a.cart = draft
	return nil
}

// check проверяет ограничения на черновике корзины.
func (a *CartAggregator) check(draft *domain.Cart) (*CartTotal, error) {
	if a.limits.MaxLines > 0 && draft.Len() > a.limits.MaxLines {
		return nil, e.Wrap(fmt.Sprintf("%d lines, max %d", draft.Len(), a.limits.MaxLines), e.ErrTooManyLines)
	}

	if a.limits.MaxItemQuantity.IsPositive() {
		for _, item := range draft.Items() {
			if item.Quantity.GreaterThan(a.limits.MaxItemQuantity) {
				return nil, e.Wrap(
					fmt.Sprintf("product %d quantity %s, max %s", item.ProductID, item.Quantity, a.limits.MaxItemQuantity),
					e.ErrItemQuantityTooLarge,
				)
			}
		}
	}

	total, err := a.compute(draft)
	if err != nil {
		return nil, err
	}

	if a.limits.MaxTotal.IsPositive() && total.Total.GreaterThan(a.limits.MaxTotal) {
		return nil, e.Wrap(fmt.Sprintf("total %s, max %s", total.Total, a.limits.MaxTotal), e.ErrTotalTooLarge)
	}

	return total, nil
}

func (a *CartAggregator) compute(cart *domain.Cart) (*CartTotal, error) {
	res := &CartTotal{
		Mode:  cart.Mode(),
		Lines: make([]LineTotal, 0, cart.Len()),
		Total: decimal.Zero,
	}

	for _, item := range cart.Items() {
		p, err := a.catalog.Product(item.ProductID)
		if err != nil {
			return nil, err
		}

		line := NewLineTotal(p, item.Quantity, cart.Mode())
		res.Lines = append(res.Lines, line)
		res.Total = res.Total.Add(line.Total)
	}

	return res, nil
}
