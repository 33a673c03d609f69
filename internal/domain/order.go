package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderState — шаг оформления заказа.
type OrderState string

const (
	OrderEmpty           OrderState = "empty"
	OrderBuilding        OrderState = "building"
	OrderModeSelected    OrderState = "mode_selected"
	OrderDetailCollected OrderState = "detail_collected"
	OrderSubmitted       OrderState = "submitted"
)

const (
	minAddressLength     = 10
	maxAddressLength     = 200
	maxArrivalTimeLength = 50
)

// OrderFlow ведёт заказ по шагам Empty -> Building -> ModeSelected -> DetailCollected -> Submitted -> Empty.
// До Submitted любой шаг можно отменить, вернувшись в Building с сохранённой корзиной.
type OrderFlow struct {
	state       OrderState
	mode        FulfillmentMode
	address     string
	arrivalTime string
}

func NewOrderFlow() *OrderFlow {
	return &OrderFlow{state: OrderEmpty}
}

func (f *OrderFlow) State() OrderState {
	return f.state
}

func (f *OrderFlow) Mode() FulfillmentMode {
	return f.mode
}

func (f *OrderFlow) Address() string {
	return f.address
}

func (f *OrderFlow) ArrivalTime() string {
	return f.arrivalTime
}

// CartChanged синхронизирует состояние с корзиной: любое изменение корзины
// возвращает заказ в Building (или в Empty, если корзина опустела).
func (f *OrderFlow) CartChanged(empty bool) {
	if empty {
		f.reset()
		return
	}

	f.state = OrderBuilding
	f.address = ""
	f.arrivalTime = ""
}

func (f *OrderFlow) SelectMode(mode FulfillmentMode) error {
	if !mode.IsValid() {
		return e.ErrInvalidFulfillmentMode
	}

	switch f.state {
	case OrderBuilding, OrderModeSelected, OrderDetailCollected:
	default:
		return e.Wrap(string(f.state), e.ErrInvalidTransition)
	}

	f.mode = mode
	f.address = ""
	f.arrivalTime = ""
	f.state = OrderModeSelected
	return nil
}

// CollectDetail принимает адрес доставки или время прибытия, в зависимости от выбранного способа.
func (f *OrderFlow) CollectDetail(detail string) error {
	if f.state != OrderModeSelected && f.state != OrderDetailCollected {
		return e.Wrap(string(f.state), e.ErrInvalidTransition)
	}

	detail = strings.TrimSpace(detail)
	switch f.mode {
	case ModeDelivery:
		n := utf8.RuneCountInString(detail)
		if n < minAddressLength || n > maxAddressLength {
			return e.ErrInvalidAddress
		}
		f.address = detail
		f.arrivalTime = ""
	case ModePickup:
		if detail == "" || utf8.RuneCountInString(detail) > maxArrivalTimeLength {
			return e.ErrInvalidArrivalTime
		}
		f.arrivalTime = detail
		f.address = ""
	default:
		return e.ErrInvalidFulfillmentMode
	}

	f.state = OrderDetailCollected
	return nil
}

// Submit переводит заказ в Submitted. Вызывающий обязан сразу вызвать Complete.
func (f *OrderFlow) Submit() error {
	if f.state != OrderDetailCollected {
		return e.Wrap(string(f.state), e.ErrInvalidTransition)
	}

	f.state = OrderSubmitted
	return nil
}

// Complete завершает отправленный заказ и возвращает поток в Empty.
func (f *OrderFlow) Complete() {
	f.reset()
}

// Rollback возвращает неудачно отправленный заказ в DetailCollected.
func (f *OrderFlow) Rollback() {
	if f.state == OrderSubmitted {
		f.state = OrderDetailCollected
	}
}

// Cancel отменяет текущий шаг. Корзина не меняется.
func (f *OrderFlow) Cancel() error {
	switch f.state {
	case OrderModeSelected, OrderDetailCollected:
		f.state = OrderBuilding
		f.address = ""
		f.arrivalTime = ""
		return nil
	case OrderBuilding:
		return nil
	default:
		return e.Wrap(string(f.state), e.ErrInvalidTransition)
	}
}

func (f *OrderFlow) reset() {
	f.state = OrderEmpty
	f.mode = ""
	f.address = ""
	f.arrivalTime = ""
}

// OrderLine — зафиксированная строка отправленного заказа.
type OrderLine struct {
	ProductID int64
	Name      string
	Emoji     string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Order — заказ, передаваемый оператору.
type Order struct {
	ID          uuid.UUID
	Customer    string
	Mode        FulfillmentMode
	Address     string
	ArrivalTime string
	Lines       []OrderLine
	Total       decimal.Decimal
	CreatedAt   time.Time
}

// Message формирует текст заказа для оператора.
func (o *Order) Message() string {
	var b strings.Builder

	if o.Mode == ModePickup {
		b.WriteString("🛒 NEW ORDER - PICKUP\n\n")
		arrival := o.ArrivalTime
		if arrival == "" {
			arrival = "not specified"
		}
		fmt.Fprintf(&b, "🕐 Arrival time: %s\n\n", arrival)
	} else {
		b.WriteString("🛒 NEW ORDER\n\n")
		fmt.Fprintf(&b, "📍 Delivery address: %s\n\n", o.Address)
	}

	b.WriteString("📋 Order details:\n")
	for i, line := range o.Lines {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• %s x%s = %s€", line.Name, line.Quantity.String(), line.Total.StringFixed(2))
	}

	fmt.Fprintf(&b, "\n\n💰 TOTAL: %s€\n", o.Total.StringFixed(2))
	fmt.Fprintf(&b, "🕐 Ordered at: %s", o.CreatedAt.Format("02/01/2006 15:04:05"))

	return b.String()
}

// DeepLink возвращает ссылку на чат оператора с подставленным текстом заказа.
func (o *Order) DeepLink(handle string) string {
	text := strings.ReplaceAll(url.QueryEscape(o.Message()), "+", "%20")
	return fmt.Sprintf("https://t.me/%s?text=%s", NormalizeIdentity(handle), text)
}
