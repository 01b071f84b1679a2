// Package checkout drives the cart→order transition. Phase 1 (Checkout)
// freezes prices and creates the pending order atomically with the cart's
// status flip; phase 2 (ConfirmOrder) moves the order to confirmed and emits
// the downstream event.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/cart"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/catalog"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/orders"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/stores/kafka"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/logkey"
)

var (
	ErrEmptyCart  = errors.New("cart is empty, nothing to checkout")
	ErrOutOfStock = errors.New("insufficient stock")
)

// CartSource reads the cart being checked out.
type CartSource interface {
	GetCartByID(ctx context.Context, cartID int64) (cart.Cart, error)
}

// OrderTx owns the transactional order operations.
type OrderTx interface {
	CreateFromCart(ctx context.Context, cartID int64, userID string, items []orders.Item, total int64) (orders.Order, error)
	ConfirmByCart(ctx context.Context, cartID int64, userID string) (orders.Order, error)
}

// EventPublisher is satisfied by the kafka producer.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

type Engine struct {
	carts   CartSource
	orders  OrderTx
	catalog catalog.Reader
	events  EventPublisher
}

// NewEngine wires the checkout dependencies. events may be nil when no broker
// is configured; confirmation then skips publishing.
func NewEngine(carts CartSource, orderTx OrderTx, reader catalog.Reader, events EventPublisher) (*Engine, error) {
	if carts == nil || orderTx == nil || reader == nil {
		return nil, fmt.Errorf("checkout engine dependencies are nil")
	}
	return &Engine{carts: carts, orders: orderTx, catalog: reader, events: events}, nil
}

// Checkout runs phase 1 for the cart. It re-reads price and stock for every
// line from the catalog; any shortfall fails the whole checkout with no
// partial fulfillment. The status flip and order creation happen inside one
// store transaction, so a concurrent caller loses with cart.ErrCartNotOpen
// and no second order ever exists. The store re-verifies the frozen lines
// against the live cart under its row lock; a line mutated after the snapshot
// here fails the checkout with orders.ErrCartModified and the caller retries.
func (e *Engine) Checkout(ctx context.Context, cartID int64, userID string) (orders.Order, error) {
	c, err := e.carts.GetCartByID(ctx, cartID)
	if err != nil {
		return orders.Order{}, err
	}
	if c.UserID != userID {
		// guards already enforce this; kept so the engine is safe on its own
		return orders.Order{}, cart.ErrCartNotFound
	}
	if c.Status != cart.StatusOpen {
		return orders.Order{}, cart.ErrCartNotOpen
	}
	if len(c.Items) == 0 {
		return orders.Order{}, ErrEmptyCart
	}

	var frozen []orders.Item
	var total int64
	for _, item := range c.Items {
		product, err := e.catalog.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return orders.Order{}, fmt.Errorf("%w: product %s", catalog.ErrProductNotFound, item.ProductID)
			}
			return orders.Order{}, fmt.Errorf("failed to read catalog for product %s: %w", item.ProductID, err)
		}
		if item.Quantity > product.Stock {
			return orders.Order{}, fmt.Errorf("%w: product %s requested %d, available %d",
				ErrOutOfStock, item.ProductID, item.Quantity, product.Stock)
		}

		frozen = append(frozen, orders.Item{
			ProductID:   item.ProductID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		})
		total += product.Price * int64(item.Quantity)
	}

	return e.orders.CreateFromCart(ctx, cartID, userID, frozen, total)
}

// ConfirmOrder runs phase 2: the cart's pending order becomes confirmed.
// The order-confirmed event is published after the transition commits;
// publish failures are logged and never undo the confirmation.
func (e *Engine) ConfirmOrder(ctx context.Context, cartID int64, userID string) (orders.Order, error) {
	confirmed, err := e.orders.ConfirmByCart(ctx, cartID, userID)
	if err != nil {
		return orders.Order{}, err
	}

	if e.events != nil {
		event := kafka.OrderConfirmedEvent{
			OrderID:     confirmed.ID,
			CartID:      confirmed.CartID,
			UserID:      confirmed.UserID,
			TotalPrice:  confirmed.TotalPrice,
			ConfirmedAt: time.Now().UTC(),
		}
		for _, item := range confirmed.Items {
			event.Items = append(event.Items, kafka.OrderConfirmedItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		if err := e.events.Publish(ctx, kafka.TopicOrderConfirmed, fmt.Sprint(confirmed.ID), event); err != nil {
			slog.Error("failed to publish order-confirmed event",
				slog.Int64(logkey.OrderID, confirmed.ID), slog.String(logkey.ERROR, err.Error()))
		}
	}
	return confirmed, nil
}
