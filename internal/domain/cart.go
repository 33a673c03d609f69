package domain

import (
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// CartItem — строка корзины.
type CartItem struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// Cart — упорядоченный набор строк, не более одной строки на товар.
// Порядок добавления совпадает с порядком отображения.
type Cart struct {
	items []CartItem
	mode  FulfillmentMode
}

func NewCart() *Cart {
	return &Cart{mode: ModeDelivery}
}

func (c *Cart) Items() []CartItem {
	return append([]CartItem(nil), c.items...)
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) Mode() FulfillmentMode {
	return c.mode
}

func (c *Cart) SetMode(mode FulfillmentMode) {
	c.mode = mode
}

func (c *Cart) Find(productID int64) (CartItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.items[i], true
	}

	return CartItem{}, false
}

// Add суммирует количество с существующей строкой или добавляет новую в конец.
func (c *Cart) Add(productID int64, qty decimal.Decimal) {
	if i := c.index(productID); i >= 0 {
		c.items[i].Quantity = c.items[i].Quantity.Add(qty)
		return
	}

	c.items = append(c.items, CartItem{ProductID: productID, Quantity: qty})
}

// Set заменяет количество; неположительное значение удаляет строку.
func (c *Cart) Set(productID int64, qty decimal.Decimal) error {
	i := c.index(productID)
	if i < 0 {
		return e.ErrCartLineNotFound
	}

	if !qty.IsPositive() {
		c.items = append(c.items[:i:i], c.items[i+1:]...)
		return nil
	}

	c.items[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(productID int64) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}

	c.items = append(c.items[:i:i], c.items[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) Clone() *Cart {
	return &Cart{items: c.Items(), mode: c.mode}
}

func (c *Cart) index(productID int64) int {
	for i, item := range c.items {
		if item.ProductID == productID {
			return i
		}
	}

	return -1
}
