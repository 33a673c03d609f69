package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// cartSession — корзина и шаг оформления одного пользователя.
type cartSession struct {
	mu       sync.Mutex
	cart     *CartAggregator
	flow     *domain.OrderFlow
	lastSeen time.Time
}

// CartUseCase держит по одной корзине на сессию (ID пользователя чата) и ведёт оформление заказа.
type CartUseCase struct {
	catalog   ProductCatalog
	settings  AdminSettings
	publisher OrderPublisher
	limits    CartLimits
	logger    logger.Logger

	mu       sync.Mutex
	sessions map[string]*cartSession
}

func NewCartUC(
	catalog ProductCatalog,
	settings AdminSettings,
	publisher OrderPublisher,
	limits CartLimits,
	logger logger.Logger,
) *CartUseCase {
	return &CartUseCase{
		catalog:   catalog,
		settings:  settings,
		publisher: publisher,
		limits:    limits,
		logger:    logger,
		sessions:  make(map[string]*cartSession),
	}
}

func (c *CartUseCase) GetCart(sessionID string) (*CartView, error) {
	return c.withSession(sessionID, func(s *cartSession) error {
		return nil
	})
}

func (c *CartUseCase) AddItem(sessionID string, productID int64, qty decimal.Decimal) (*CartView, error) {
	return c.withSession(sessionID, func(s *cartSession) error {
		if err := s.cart.Add(productID, qty); err != nil {
			return err
		}
		s.flow.CartChanged(s.cart.IsEmpty())
		return nil
	})
}

func (c *CartUseCase) SetItemQuantity(sessionID string, productID int64, qty decimal.Decimal) (*CartView, error) {
	return c.withSession(sessionID, func(s *cartSession) error {
		if err := s.cart.SetQuantity(productID, qty); err != nil {
			return err
		}
		s.flow.CartChanged(s.cart.IsEmpty())
		return nil
	})
}

func (c *CartUseCase) RemoveItem(sessionID string, productID int64) (*CartView, error) {
	return c.withSession(sessionID, func(s *cartSession) error {
		if err := s.cart.Remove(productID); err != nil {
			return err
		}
		s.flow.CartChanged(s.cart.IsEmpty())
		return nil
	})
}

func (c *CartUseCase) ClearCart(sessionID string) (*CartView, error) {
	return c.withSession(sessionID, func(s *cartSession) error {
		s.cart.Clear()
		s.flow.CartChanged(true)
		return nil
	})
}

// SetFulfillmentMode пересчитывает корзину в новом режиме; непустая корзина переходит в ModeSelected.
func (c *CartUseCase) SetFulfillmentMode(sessionID string, mode domain.FulfillmentMode) (*CartView, error) {
	return c.withSession(sessionID, func(s *cartSession) error {
		if _, err := s.cart.SetFulfillmentMode(mode); err != nil {
			return err
		}

		if s.cart.IsEmpty() {
			return nil
		}

		return s.flow.SelectMode(mode)
	})
}

// SetOrderDetail принимает адрес доставки или время прибытия для самовывоза.
func (c *CartUseCase) SetOrderDetail(sessionID string, detail string) (*CartView, error) {
	return c.withSession(sessionID, func(s *cartSession) error {
		return s.flow.CollectDetail(detail)
	})
}

// CancelCheckout возвращает оформление в Building, корзина остаётся.
func (c *CartUseCase) CancelCheckout(sessionID string) (*CartView, error) {
	return c.withSession(sessionID, func(s *cartSession) error {
		return s.flow.Cancel()
	})
}

// SubmitOrder фиксирует заказ и передаёт его оператору. При ошибке отправки
// корзина и введённые данные сохраняются, оформление остаётся в DetailCollected.
func (c *CartUseCase) SubmitOrder(ctx context.Context, sessionID, customer string) (*OrderReceipt, error) {
	const op = "CartUseCase.SubmitOrder"

	s, err := c.session(sessionID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	if err := s.flow.Submit(); err != nil {
		return nil, e.Wrap(op, err)
	}

	total, err := s.cart.ComputeTotal()
	if err != nil {
		s.flow.Rollback()
		return nil, e.Wrap(op, err)
	}

	if len(total.Lines) == 0 {
		s.flow.Rollback()
		return nil, e.Wrap(op, e.ErrEmptyCart)
	}

	order := c.buildOrder(s.flow, total, customer)

	if c.publisher != nil {
		if err := c.publisher.PublishOrder(ctx, order); err != nil {
			s.flow.Rollback()
			c.logger.Errorf(err, "Failed to publish order %s", order.ID)
			return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrOrderNotSent, err))
		}
	}

	settings, err := c.settings.Admin()
	if err != nil {
		c.logger.Warnf("Admin settings unavailable, order link skipped: %v", e.Wrap(op, err))
	}

	s.cart.Clear()
	s.flow.Complete()

	c.logger.Infof("Order submitted: id: %s, mode: %s, total: %s", order.ID, order.Mode, order.Total.StringFixed(2))

	return NewOrderReceipt(order, settings.TelegramHandle), nil
}

// PruneIdle удаляет сессии, не использовавшиеся дольше ttl. Возвращает число удалённых.
func (c *CartUseCase) PruneIdle(ttl time.Duration) int {
	deadline := time.Now().Add(-ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, s := range c.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(deadline)
		s.mu.Unlock()

		if idle {
			delete(c.sessions, id)
			removed++
		}
	}

	return removed
}

func (c *CartUseCase) buildOrder(flow *domain.OrderFlow, total *CartTotal, customer string) *domain.Order {
	lines := make([]domain.OrderLine, 0, len(total.Lines))
	for _, l := range total.Lines {
		lines = append(lines, domain.OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Emoji:     l.Emoji,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total,
		})
	}

	return &domain.Order{
		ID:          uuid.New(),
		Customer:    strings.TrimSpace(customer),
		Mode:        flow.Mode(),
		Address:     flow.Address(),
		ArrivalTime: flow.ArrivalTime(),
		Lines:       lines,
		Total:       total.Total,
		CreatedAt:   time.Now(),
	}
}

// withSession выполняет fn под блокировкой сессии и возвращает её состояние.
func (c *CartUseCase) withSession(sessionID string, fn func(s *cartSession) error) (*CartView, error) {
	s, err := c.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	if err := fn(s); err != nil {
		return nil, err
	}

	total, err := s.cart.ComputeTotal()
	if err != nil {
		return nil, err
	}

	return NewCartView(total, s.flow), nil
}

func (c *CartUseCase) session(sessionID string) (*cartSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, e.ErrSessionRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		s = &cartSession{
			cart:     NewCartAggregator(c.catalog, c.limits),
			flow:     domain.NewOrderFlow(),
			lastSeen: time.Now(),
		}
		c.sessions[sessionID] = s
	}

	return s, nil
}
