package checkout

import (
	"context"
	"sync"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/cart"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/catalog"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/orders"
)

// mockCartSource implements CartSource for testing.
type mockCartSource struct {
	cart cart.Cart
	err  error
}

func (m *mockCartSource) GetCartByID(context.Context, int64) (cart.Cart, error) {
	return m.cart, m.err
}

// mockOrderTx implements OrderTx with the store's transactional guarantees:
// the first CreateFromCart wins, later ones observe the closed cart, and the
// frozen items must match the authoritative lines read under the lock.
type mockOrderTx struct {
	mu         sync.Mutex
	checkedOut bool
	lines      map[string]int
	nextID     int64
	created    []orders.Order
	confirmErr error
	pending    *orders.Order
}

func (m *mockOrderTx) setLine(productID string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[productID] = quantity
}

func (m *mockOrderTx) CreateFromCart(_ context.Context, cartID int64, userID string, items []orders.Item, total int64) (orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checkedOut {
		return orders.Order{}, cart.ErrCartNotOpen
	}
	if m.lines != nil {
		if len(m.lines) != len(items) {
			return orders.Order{}, orders.ErrCartModified
		}
		for _, item := range items {
			if m.lines[item.ProductID] != item.Quantity {
				return orders.Order{}, orders.ErrCartModified
			}
		}
	}
	m.checkedOut = true
	m.nextID++
	o := orders.Order{
		ID:         m.nextID,
		CartID:     cartID,
		UserID:     userID,
		Status:     orders.StatusPending,
		TotalPrice: total,
		Items:      items,
	}
	m.created = append(m.created, o)
	m.pending = &o
	return o, nil
}

func (m *mockOrderTx) ConfirmByCart(_ context.Context, cartID int64, userID string) (orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.confirmErr != nil {
		return orders.Order{}, m.confirmErr
	}
	if m.pending == nil {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	if m.pending.Status != orders.StatusPending {
		return orders.Order{}, orders.ErrOrderNotPending
	}
	m.pending.Status = orders.StatusConfirmed
	return *m.pending, nil
}

// mockCatalog implements catalog.Reader over a fixed product map. onLookup,
// when set, runs on every read so tests can interleave cart mutations with
// the engine's catalog pass.
type mockCatalog struct {
	products map[string]catalog.Product
	err      error
	onLookup func()
}

func (m *mockCatalog) GetProductByID(_ context.Context, productID string) (catalog.Product, error) {
	if m.onLookup != nil {
		m.onLookup()
	}
	if m.err != nil {
		return catalog.Product{}, m.err
	}
	p, ok := m.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalog) ListProducts(context.Context) ([]catalog.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

// mockPublisher captures published events.
type mockPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, topic string, _ string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topic)
	return nil
}
