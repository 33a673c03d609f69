package usecase

import (
	"context"
	"sync"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockSnapshotRemote implements SnapshotRemote for testing
type MockSnapshotRemote struct {
	mock.Mock
}

func (m *MockSnapshotRemote) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot).Clone(), args.Error(1)
}

func (m *MockSnapshotRemote) Push(ctx context.Context, snapshot *domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// MockOrderPublisher implements OrderPublisher for testing
type MockOrderPublisher struct {
	mock.Mock
}

func (m *MockOrderPublisher) PublishOrder(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockSnapshotRepository implements SnapshotRepository for testing
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockSnapshotRepository) Store(ctx context.Context, snapshot *domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// memoryCache — кэш в памяти с подсчётом записей.
type memoryCache struct {
	mu       sync.Mutex
	snapshot *domain.Snapshot
	err      error
	sets     int
}

func (c *memoryCache) Get(_ context.Context) (*domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot == nil {
		return nil, e.ErrCacheMiss
	}
	return c.snapshot.Clone(), nil
}

func (c *memoryCache) Set(_ context.Context, snapshot *domain.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	c.snapshot = snapshot.Clone()
	c.sets++
	return nil
}

func (c *memoryCache) stored() *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSnapshot() *domain.Snapshot {
	s := domain.NewSnapshot()
	s.Categories["pizza"] = domain.NewCategory("pizza", "Pizzas", "🍕", "Wood fired")
	s.Categories["drinks"] = domain.NewCategory("drinks", "Drinks", "🥤", "")
	s.FileProduct(&domain.Product{
		ID: 1, Name: "Margherita", BasePrice: d("10"), Emoji: "🍕", Category: "pizza",
		CustomPrices: map[domain.QuantityKey]domain.PriceEntry{
			"5": domain.DifferentiatedPrice(d("45"), d("40")),
		},
	})
	s.FileProduct(&domain.Product{ID: 2, Name: "Regina", BasePrice: d("12"), Category: "pizza"})
	s.FileProduct(&domain.Product{ID: 7, Name: "Cola", BasePrice: d("2.5"), Category: "drinks"})
	s.Admin = domain.AdminConfig{TelegramHandle: "resto", Whitelist: []string{"alice"}}
	return s
}
