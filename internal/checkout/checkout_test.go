package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/cart"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/catalog"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/orders"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/stores/kafka"
)

const (
	testCartID = int64(10)
	testUserID = "acct-1"
)

func openCart(items ...cart.Item) cart.Cart {
	return cart.Cart{ID: testCartID, UserID: testUserID, Status: cart.StatusOpen, Items: items}
}

func wellStockedCatalog() *mockCatalog {
	return &mockCatalog{products: map[string]catalog.Product{
		"5": {ID: "5", Name: "Mechanical Keyboard", Price: 999, Stock: 20},
		"7": {ID: "7", Name: "USB Hub", Price: 2500, Stock: 3},
	}}
}

func newTestEngine(t *testing.T, carts CartSource, tx OrderTx, cat catalog.Reader, events EventPublisher) *Engine {
	t.Helper()
	e, err := NewEngine(carts, tx, cat, events)
	require.NoError(t, err)
	return e
}

func TestCheckoutHappyPath(t *testing.T) {
	carts := &mockCartSource{cart: openCart(cart.Item{ProductID: "5", Quantity: 2})}
	tx := &mockOrderTx{}
	e := newTestEngine(t, carts, tx, wellStockedCatalog(), nil)

	order, err := e.Checkout(context.Background(), testCartID, testUserID)
	require.NoError(t, err)

	assert.Equal(t, testCartID, order.CartID)
	assert.Equal(t, orders.StatusPending, order.Status)
	assert.Equal(t, int64(1998), order.TotalPrice)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(999), order.Items[0].UnitPrice)
	assert.Equal(t, "Mechanical Keyboard", order.Items[0].ProductName)
}

func TestCheckoutMultiLineTotal(t *testing.T) {
	carts := &mockCartSource{cart: openCart(
		cart.Item{ProductID: "5", Quantity: 2},
		cart.Item{ProductID: "7", Quantity: 1},
	)}
	tx := &mockOrderTx{}
	e := newTestEngine(t, carts, tx, wellStockedCatalog(), nil)

	order, err := e.Checkout(context.Background(), testCartID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(999*2+2500), order.TotalPrice)
	assert.Len(t, order.Items, 2)
}

func TestCheckoutEmptyCart(t *testing.T) {
	carts := &mockCartSource{cart: openCart()}
	tx := &mockOrderTx{}
	e := newTestEngine(t, carts, tx, wellStockedCatalog(), nil)

	_, err := e.Checkout(context.Background(), testCartID, testUserID)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, tx.created)
}

func TestCheckoutCartNotFound(t *testing.T) {
	carts := &mockCartSource{err: cart.ErrCartNotFound}
	e := newTestEngine(t, carts, &mockOrderTx{}, wellStockedCatalog(), nil)

	_, err := e.Checkout(context.Background(), testCartID, testUserID)
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestCheckoutAlreadyCheckedOut(t *testing.T) {
	closed := openCart(cart.Item{ProductID: "5", Quantity: 1})
	closed.Status = cart.StatusCheckedOut
	carts := &mockCartSource{cart: closed}
	tx := &mockOrderTx{}
	e := newTestEngine(t, carts, tx, wellStockedCatalog(), nil)

	_, err := e.Checkout(context.Background(), testCartID, testUserID)
	assert.ErrorIs(t, err, cart.ErrCartNotOpen)
	assert.Empty(t, tx.created)
}

func TestCheckoutForeignCart(t *testing.T) {
	carts := &mockCartSource{cart: openCart(cart.Item{ProductID: "5", Quantity: 1})}
	e := newTestEngine(t, carts, &mockOrderTx{}, wellStockedCatalog(), nil)

	_, err := e.Checkout(context.Background(), testCartID, "someone-else")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestCheckoutOutOfStockIsAllOrNothing(t *testing.T) {
	// first line fine, second exceeds stock; nothing may be created
	carts := &mockCartSource{cart: openCart(
		cart.Item{ProductID: "5", Quantity: 2},
		cart.Item{ProductID: "7", Quantity: 4},
	)}
	tx := &mockOrderTx{}
	e := newTestEngine(t, carts, tx, wellStockedCatalog(), nil)

	_, err := e.Checkout(context.Background(), testCartID, testUserID)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Empty(t, tx.created)
	assert.False(t, tx.checkedOut)
}

func TestCheckoutUnknownProduct(t *testing.T) {
	carts := &mockCartSource{cart: openCart(cart.Item{ProductID: "404", Quantity: 1})}
	tx := &mockOrderTx{}
	e := newTestEngine(t, carts, tx, wellStockedCatalog(), nil)

	_, err := e.Checkout(context.Background(), testCartID, testUserID)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	assert.Empty(t, tx.created)
}

func TestCheckoutRejectsMidFlightCartChange(t *testing.T) {
	carts := &mockCartSource{cart: openCart(cart.Item{ProductID: "5", Quantity: 2})}
	tx := &mockOrderTx{lines: map[string]int{"5": 2}}
	cat := wellStockedCatalog()
	// the owner bumps the line while the engine is reading the catalog,
	// after the cart snapshot was taken
	cat.onLookup = func() { tx.setLine("5", 5) }
	e := newTestEngine(t, carts, tx, cat, nil)

	_, err := e.Checkout(context.Background(), testCartID, testUserID)
	assert.ErrorIs(t, err, orders.ErrCartModified)
	assert.Empty(t, tx.created)
	assert.False(t, tx.checkedOut, "a stale snapshot must not close the cart")
}

func TestCheckoutExactlyOnceUnderConcurrency(t *testing.T) {
	carts := &mockCartSource{cart: openCart(cart.Item{ProductID: "5", Quantity: 2})}
	tx := &mockOrderTx{}
	e := newTestEngine(t, carts, tx, wellStockedCatalog(), nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Checkout(context.Background(), testCartID, testUserID)
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, cart.ErrCartNotOpen):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, losses)
	assert.Len(t, tx.created, 1)
}

func TestConfirmOrder(t *testing.T) {
	carts := &mockCartSource{cart: openCart(cart.Item{ProductID: "5", Quantity: 2})}
	tx := &mockOrderTx{}
	events := &mockPublisher{}
	e := newTestEngine(t, carts, tx, wellStockedCatalog(), events)

	_, err := e.Checkout(context.Background(), testCartID, testUserID)
	require.NoError(t, err)

	confirmed, err := e.ConfirmOrder(context.Background(), testCartID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, confirmed.Status)
	assert.Equal(t, []string{kafka.TopicOrderConfirmed}, events.topics)
}

func TestConfirmOrderTwiceRejected(t *testing.T) {
	carts := &mockCartSource{cart: openCart(cart.Item{ProductID: "5", Quantity: 2})}
	tx := &mockOrderTx{}
	e := newTestEngine(t, carts, tx, wellStockedCatalog(), nil)

	_, err := e.Checkout(context.Background(), testCartID, testUserID)
	require.NoError(t, err)
	_, err = e.ConfirmOrder(context.Background(), testCartID, testUserID)
	require.NoError(t, err)

	_, err = e.ConfirmOrder(context.Background(), testCartID, testUserID)
	assert.ErrorIs(t, err, orders.ErrOrderNotPending)
}

func TestConfirmOrderWithoutCheckout(t *testing.T) {
	carts := &mockCartSource{cart: openCart(cart.Item{ProductID: "5", Quantity: 2})}
	e := newTestEngine(t, carts, &mockOrderTx{}, wellStockedCatalog(), nil)

	_, err := e.ConfirmOrder(context.Background(), testCartID, testUserID)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestConfirmOrderSurvivesPublishFailure(t *testing.T) {
	carts := &mockCartSource{cart: openCart(cart.Item{ProductID: "5", Quantity: 2})}
	tx := &mockOrderTx{}
	events := &mockPublisher{err: errors.New("broker down")}
	e := newTestEngine(t, carts, tx, wellStockedCatalog(), events)

	_, err := e.Checkout(context.Background(), testCartID, testUserID)
	require.NoError(t, err)

	confirmed, err := e.ConfirmOrder(context.Background(), testCartID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, confirmed.Status)
}
