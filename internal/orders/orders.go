package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/cart"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is not pending")
	ErrCartModified    = errors.New("cart contents changed since checkout began")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// CreateFromCart performs the checkout transition as one transaction: lock
// the cart row, re-verify it is still open, re-read its lines under the lock,
// flip it to checked_out and insert the pending order with its frozen items.
// The frozen items were snapshotted before the lock was taken; if the live
// lines no longer match them the checkout fails with ErrCartModified and the
// cart stays open. The loser of a concurrent checkout observes
// cart.ErrCartNotOpen; a failure at any step rolls the flip back.
func (c *Conf) CreateFromCart(ctx context.Context, cartID int64, userID string, items []Item, total int64) (Order, error) {
	var created Order

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		lockQuery := `
			SELECT status
			FROM cart
			WHERE id = $1 AND user_id = $2
			FOR UPDATE
		`
		err := tx.QueryRowContext(ctx, lockQuery, cartID, userID).Scan(&status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return cart.ErrCartNotFound
			}
			return fmt.Errorf("failed to lock cart: %w", err)
		}
		if status != cart.StatusOpen {
			return cart.ErrCartNotOpen
		}

		current, err := cartLines(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if len(current) != len(items) {
			return ErrCartModified
		}
		for _, item := range items {
			if current[item.ProductID] != item.Quantity {
				return ErrCartModified
			}
		}

		flipQuery := `
			UPDATE cart
			SET status = 'checked_out', updated_at = NOW()
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, flipQuery, cartID); err != nil {
			return fmt.Errorf("failed to flip cart status: %w", err)
		}

		insertQuery := `
			INSERT INTO orders (cart_id, user_id, status, total_price, created_at, updated_at)
			VALUES ($1, $2, 'pending', $3, NOW(), NOW())
			RETURNING id, cart_id, user_id, status, total_price, created_at, updated_at
		`
		err = tx.QueryRowContext(ctx, insertQuery, cartID, userID, total).Scan(
			&created.ID, &created.CartID, &created.UserID, &created.Status,
			&created.TotalPrice, &created.CreatedAt, &created.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		itemQuery := `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, item := range items {
			if _, err := tx.ExecContext(ctx, itemQuery,
				created.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice,
			); err != nil {
				return fmt.Errorf("failed to insert order item %s: %w", item.ProductID, err)
			}
		}
		created.Items = items
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return created, nil
}

// cartLines reads the live cart_items under the row lock taken by the caller.
func cartLines(ctx context.Context, tx *sql.Tx, cartID int64) (map[string]int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT product_id, quantity FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	lines := map[string]int{}
	for rows.Next() {
		var productID string
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines[productID] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return lines, nil
}

// ConfirmByCart flips the cart's order from pending to confirmed inside one
// transaction. Confirming a missing or non-pending order is rejected.
func (c *Conf) ConfirmByCart(ctx context.Context, cartID int64, userID string) (Order, error) {
	var confirmed Order

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var orderID int64
		var status string
		lockQuery := `
			SELECT id, status
			FROM orders
			WHERE cart_id = $1 AND user_id = $2
			FOR UPDATE
		`
		err := tx.QueryRowContext(ctx, lockQuery, cartID, userID).Scan(&orderID, &status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if status != StatusPending {
			return ErrOrderNotPending
		}

		updateQuery := `
			UPDATE orders
			SET status = 'confirmed', updated_at = NOW()
			WHERE id = $1
			RETURNING id, cart_id, user_id, status, total_price, created_at, updated_at
		`
		err = tx.QueryRowContext(ctx, updateQuery, orderID).Scan(
			&confirmed.ID, &confirmed.CartID, &confirmed.UserID, &confirmed.Status,
			&confirmed.TotalPrice, &confirmed.CreatedAt, &confirmed.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to confirm order: %w", err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	items, err := c.getItems(ctx, confirmed.ID)
	if err != nil {
		return Order{}, err
	}
	confirmed.Items = items
	return confirmed, nil
}

// GetOrdersByUser lists the account's order history, newest first, without
// item detail.
func (c *Conf) GetOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	query := `
		SELECT id, cart_id, user_id, status, total_price, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CartID, &o.UserID, &o.Status, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// GetOrderByID returns one order with its frozen items.
func (c *Conf) GetOrderByID(ctx context.Context, orderID int64) (Order, error) {
	var o Order
	query := `
		SELECT id, cart_id, user_id, status, total_price, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	err := c.db.QueryRowContext(ctx, query, orderID).Scan(
		&o.ID, &o.CartID, &o.UserID, &o.Status, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := c.getItems(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

func (c *Conf) getItems(ctx context.Context, orderID int64) ([]Item, error) {
	query := `
		SELECT product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := c.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return items, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback tx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}
