package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/auth"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/cart"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/catalog"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/orders"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/sessions"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/users"
)

// memStore is an in-memory stand-in for the postgres stores. It honors the
// same invariants: one open cart per account, exactly one order per cart,
// ownership scoping on every mutation.
type memStore struct {
	mu        sync.Mutex
	carts     map[int64]*cart.Cart
	nextCart  int64
	orders    map[int64]*orders.Order
	byCart    map[int64]int64
	nextOrder int64
	catalog   *memCatalog
}

func newMemStore(cat *memCatalog) *memStore {
	return &memStore{
		carts:   map[int64]*cart.Cart{},
		orders:  map[int64]*orders.Order{},
		byCart:  map[int64]int64{},
		catalog: cat,
	}
}

func (s *memStore) CreateCart(_ context.Context, userID string) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.carts {
		if c.UserID == userID && c.Status == cart.StatusOpen {
			return cart.Cart{}, cart.ErrOpenCartExists
		}
	}
	s.nextCart++
	c := &cart.Cart{ID: s.nextCart, UserID: userID, Status: cart.StatusOpen, Items: []cart.Item{}}
	s.carts[c.ID] = c
	return *c, nil
}

func (s *memStore) GetOpenCart(_ context.Context, userID string) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.carts {
		if c.UserID == userID && c.Status == cart.StatusOpen {
			return *c, nil
		}
	}
	return cart.Cart{}, cart.ErrCartNotFound
}

func (s *memStore) GetCartByID(_ context.Context, cartID int64) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return cart.Cart{}, cart.ErrCartNotFound
	}
	return *c, nil
}

func (s *memStore) GetCartDetail(ctx context.Context, cartID int64) (cart.Detail, error) {
	c, err := s.GetCartByID(ctx, cartID)
	if err != nil {
		return cart.Detail{}, err
	}
	detail := cart.Detail{CartID: c.ID, Status: c.Status, Items: []cart.DetailItem{}}
	for _, item := range c.Items {
		p, err := s.catalog.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return cart.Detail{}, err
		}
		detail.Items = append(detail.Items, cart.DetailItem{
			ProductID: item.ProductID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
			LineTotal: p.Price * int64(item.Quantity),
		})
	}
	return detail, nil
}

func (s *memStore) UpsertItem(ctx context.Context, cartID int64, userID string, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, cartID, userID, productID)
	}
	if _, err := s.catalog.GetProductByID(ctx, productID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok || c.UserID != userID {
		return cart.ErrCartNotFound
	}
	if c.Status != cart.StatusOpen {
		return cart.ErrCartNotOpen
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}
	c.Items = append(c.Items, cart.Item{ProductID: productID, Quantity: quantity})
	return nil
}

func (s *memStore) RemoveItem(_ context.Context, cartID int64, userID string, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok || c.UserID != userID {
		return cart.ErrCartNotFound
	}
	if c.Status != cart.StatusOpen {
		return cart.ErrCartNotOpen
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memStore) CreateFromCart(_ context.Context, cartID int64, userID string, items []orders.Item, total int64) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok || c.UserID != userID {
		return orders.Order{}, cart.ErrCartNotFound
	}
	if c.Status != cart.StatusOpen {
		return orders.Order{}, cart.ErrCartNotOpen
	}
	if len(c.Items) != len(items) {
		return orders.Order{}, orders.ErrCartModified
	}
	for _, item := range items {
		match := false
		for _, line := range c.Items {
			if line.ProductID == item.ProductID && line.Quantity == item.Quantity {
				match = true
				break
			}
		}
		if !match {
			return orders.Order{}, orders.ErrCartModified
		}
	}
	c.Status = cart.StatusCheckedOut
	s.nextOrder++
	o := &orders.Order{
		ID:         s.nextOrder,
		CartID:     cartID,
		UserID:     userID,
		Status:     orders.StatusPending,
		TotalPrice: total,
		Items:      items,
	}
	s.orders[o.ID] = o
	s.byCart[cartID] = o.ID
	return *o, nil
}

func (s *memStore) ConfirmByCart(_ context.Context, cartID int64, userID string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orderID, ok := s.byCart[cartID]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	o := s.orders[orderID]
	if o.UserID != userID {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	if o.Status != orders.StatusPending {
		return orders.Order{}, orders.ErrOrderNotPending
	}
	o.Status = orders.StatusConfirmed
	return *o, nil
}

func (s *memStore) GetOrdersByUser(_ context.Context, userID string) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []orders.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memStore) GetOrderByID(_ context.Context, orderID int64) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return *o, nil
}

// memCatalog is a fixed product catalog.
type memCatalog struct {
	products map[string]catalog.Product
}

func (m *memCatalog) GetProductByID(_ context.Context, productID string) (catalog.Product, error) {
	p, ok := m.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *memCatalog) ListProducts(context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

// memSessions is an in-memory session manager satisfying both the handler's
// SessionManager and the middleware's token lookup.
type memSessions struct {
	mu      sync.Mutex
	next    int
	byToken map[string]sessions.Session
}

func newMemSessions() *memSessions {
	return &memSessions{byToken: map[string]sessions.Session{}}
}

func (m *memSessions) Create(_ context.Context, accountID, username string) (sessions.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	s := sessions.Session{Token: fmt.Sprintf("token-%d", m.next), AccountID: accountID, Username: username}
	m.byToken[s.Token] = s
	return s, nil
}

func (m *memSessions) Get(_ context.Context, token string) (sessions.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byToken[token]
	if !ok {
		return sessions.Session{}, sessions.ErrSessionNotFound
	}
	return s, nil
}

func (m *memSessions) Extend(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byToken[token]; !ok {
		return sessions.ErrSessionNotFound
	}
	return nil
}

func (m *memSessions) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byToken, token)
	return nil
}

// memAccounts backs registration, lookup and the password path.
type memAccounts struct {
	mu        sync.Mutex
	byID      map[string]users.User
	passwords map[string]string
	next      int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[string]users.User{}, passwords: map[string]string{}}
}

func (m *memAccounts) InsertUser(_ context.Context, nu users.NewUser) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == nu.Username || u.Email == nu.Email {
			return users.User{}, users.ErrDuplicate
		}
	}
	m.next++
	u := users.User{
		ID:       fmt.Sprintf("acct-%d", m.next),
		Username: nu.Username,
		FullName: nu.FullName,
		Email:    nu.Email,
	}
	m.byID[u.ID] = u
	m.passwords[nu.Username] = nu.Password
	return u, nil
}

func (m *memAccounts) GetUserByID(_ context.Context, id string) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	return u, nil
}

func (m *memAccounts) UpdateUserByID(_ context.Context, id string, upd users.UpdateUser) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	m.byID[id] = u
	return u, nil
}

// Authenticate implements the password strategy against the stored plaintext
// map; hashing is covered by the auth package's own tests.
func (m *memAccounts) Authenticate(_ context.Context, cred auth.Credential) (users.User, error) {
	pc, ok := cred.(auth.PasswordCredential)
	if !ok {
		return users.User{}, auth.ErrUnsupportedCredential
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.passwords[pc.Username]
	if !ok || stored != pc.Password {
		return users.User{}, auth.ErrInvalidCredentials
	}
	for _, u := range m.byID {
		if u.Username == pc.Username {
			return u, nil
		}
	}
	return users.User{}, auth.ErrInvalidCredentials
}
