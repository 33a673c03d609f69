package domain

import (
	"strings"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// FulfillmentMode — способ получения заказа. Выбирается на сессию и влияет
// на все дифференцированные цены сразу.
type FulfillmentMode string

const (
	ModeDelivery FulfillmentMode = "delivery"
	ModePickup   FulfillmentMode = "pickup"
)

func ParseFulfillmentMode(s string) (FulfillmentMode, error) {
	switch FulfillmentMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDelivery:
		return ModeDelivery, nil
	case ModePickup:
		return ModePickup, nil
	default:
		return "", e.ErrInvalidFulfillmentMode
	}
}

func (m FulfillmentMode) IsValid() bool {
	return m == ModeDelivery || m == ModePickup
}

// QuantityKey — каноническая десятичная запись количества: запятая заменена
// на точку, хвостовые нули отброшены ("2,50" -> "2.5", "5.0" -> "5").
type QuantityKey string

func NewQuantityKey(qty decimal.Decimal) QuantityKey {
	return QuantityKey(qty.String())
}

const (
	// допустимый модуль показателя степени; проверяется до String, Cmp и Mul
	maxQuantityExponent = 18
	maxQuantityLen      = 64
)

// MaxQuantity — наибольшее количество, для которого считается цена.
var MaxQuantity = decimal.NewFromInt(1_000_000)

// ParseQuantity разбирает количество из пользовательского ввода, допуская десятичную запятую.
func ParseQuantity(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" || len(s) > maxQuantityLen {
		return decimal.Zero, e.ErrInvalidQuantity
	}

	qty, err := decimal.NewFromString(s)
	if err != nil || !exponentInRange(qty) {
		return decimal.Zero, e.ErrInvalidQuantity
	}

	return qty, nil
}

// ValidateQuantity проверяет количество перед расчётом цены: 0 < qty <= MaxQuantity.
func ValidateQuantity(qty decimal.Decimal) error {
	if !exponentInRange(qty) || !qty.IsPositive() {
		return e.ErrInvalidQuantity
	}

	if qty.GreaterThan(MaxQuantity) {
		return e.ErrQuantityTooLarge
	}

	return nil
}

// exponentInRange не трогает мантиссу, поэтому дёшев для любого значения.
func exponentInRange(qty decimal.Decimal) bool {
	exp := qty.Exponent()
	return exp >= -maxQuantityExponent && exp <= maxQuantityExponent
}

// ParseQuantityKey нормализует ключ ценового уровня. Ключ должен быть допустимым количеством.
func ParseQuantityKey(s string) (QuantityKey, error) {
	qty, err := ParseQuantity(s)
	if err != nil {
		return "", err
	}

	if err := ValidateQuantity(qty); err != nil {
		return "", err
	}

	return NewQuantityKey(qty), nil
}

// PriceKind различает варианты PriceEntry.
type PriceKind int

const (
	PriceSimple PriceKind = iota + 1
	PriceDifferentiated
)

// PriceEntry — цена ценового уровня: либо одна сумма за всё количество (Simple),
// либо пара сумм для доставки и самовывоза (Differentiated).
type PriceEntry struct {
	Kind     PriceKind
	Amount   decimal.Decimal
	Delivery decimal.Decimal
	Pickup   decimal.Decimal
}

func SimplePrice(amount decimal.Decimal) PriceEntry {
	return PriceEntry{Kind: PriceSimple, Amount: amount}
}

func DifferentiatedPrice(delivery, pickup decimal.Decimal) PriceEntry {
	return PriceEntry{Kind: PriceDifferentiated, Delivery: delivery, Pickup: pickup}
}

// For возвращает сумму уровня для выбранного способа получения.
func (p PriceEntry) For(mode FulfillmentMode) decimal.Decimal {
	if p.Kind == PriceDifferentiated {
		if mode == ModePickup {
			return p.Pickup
		}
		return p.Delivery
	}

	return p.Amount
}

func (p PriceEntry) Validate() error {
	switch p.Kind {
	case PriceSimple:
		if !p.Amount.IsPositive() {
			return e.ErrPriceMustBePositive
		}
	case PriceDifferentiated:
		if !p.Delivery.IsPositive() || !p.Pickup.IsPositive() {
			return e.ErrPriceMustBePositive
		}
	default:
		return e.ErrInvalidPrice
	}

	return nil
}

func (p PriceEntry) Equal(other PriceEntry) bool {
	if p.Kind != other.Kind {
		return false
	}

	if p.Kind == PriceDifferentiated {
		return p.Delivery.Equal(other.Delivery) && p.Pickup.Equal(other.Pickup)
	}

	return p.Amount.Equal(other.Amount)
}

// ResolvePrice возвращает итоговую цену строки: точное совпадение уровня по количеству,
// иначе basePrice * qty. Между уровнями интерполяции нет.
// Количество должно быть заранее проверено (qty > 0).
func ResolvePrice(p *Product, qty decimal.Decimal, mode FulfillmentMode) decimal.Decimal {
	if entry, ok := p.CustomPrices[NewQuantityKey(qty)]; ok {
		return entry.For(mode)
	}

	return p.BasePrice.Mul(qty)
}

// UnitPrice — цена за единицу для отображения, округлённая до копеек.
func UnitPrice(p *Product, qty decimal.Decimal, mode FulfillmentMode) decimal.Decimal {
	if !qty.IsPositive() {
		return decimal.Zero
	}

	return ResolvePrice(p, qty, mode).DivRound(qty, 2)
}
