package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/catalog"
)

var (
	ErrCartNotFound   = errors.New("cart not found")
	ErrCartNotOpen    = errors.New("cart is not open")
	ErrOpenCartExists = errors.New("account already has an open cart")
)

type Conf struct {
	db      *sql.DB
	catalog catalog.Reader
}

func NewConf(db *sql.DB, catalog catalog.Reader) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader is nil")
	}
	return &Conf{db: db, catalog: catalog}, nil
}

// CreateCart opens a fresh cart for the account. The partial unique index on
// open carts turns a second open cart into ErrOpenCartExists.
func (c *Conf) CreateCart(ctx context.Context, userID string) (Cart, error) {
	var created Cart
	query := `
		INSERT INTO cart (user_id, status, created_at, updated_at)
		VALUES ($1, 'open', NOW(), NOW())
		RETURNING id, user_id, status, created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, query, userID).Scan(
		&created.ID, &created.UserID, &created.Status, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Cart{}, ErrOpenCartExists
		}
		return Cart{}, fmt.Errorf("failed to create cart: %w", err)
	}
	created.Items = []Item{}
	return created, nil
}

// GetOpenCart returns the account's current open cart with its items.
func (c *Conf) GetOpenCart(ctx context.Context, userID string) (Cart, error) {
	return c.getCart(ctx, `user_id = $1 AND status = 'open'`, userID)
}

// GetCartByID returns a cart regardless of status. Guards use it to resolve
// cart ownership before any scoped operation runs.
func (c *Conf) GetCartByID(ctx context.Context, cartID int64) (Cart, error) {
	return c.getCart(ctx, `id = $1`, cartID)
}

func (c *Conf) getCart(ctx context.Context, where string, arg any) (Cart, error) {
	var cart Cart
	query := `
		SELECT id, user_id, status, created_at, updated_at
		FROM cart
		WHERE ` + where
	err := c.db.QueryRowContext(ctx, query, arg).Scan(
		&cart.ID, &cart.UserID, &cart.Status, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, ErrCartNotFound
		}
		return Cart{}, fmt.Errorf("failed to query cart: %w", err)
	}

	items, err := c.getItems(ctx, cart.ID)
	if err != nil {
		return Cart{}, err
	}
	cart.Items = items
	return cart, nil
}

func (c *Conf) getItems(ctx context.Context, cartID int64) ([]Item, error) {
	query := `
		SELECT product_id, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id
	`
	rows, err := c.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}

// GetCartDetail joins cart lines with the catalog's current name and price.
func (c *Conf) GetCartDetail(ctx context.Context, cartID int64) (Detail, error) {
	cart, err := c.GetCartByID(ctx, cartID)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{CartID: cart.ID, Status: cart.Status, Items: []DetailItem{}}
	for _, item := range cart.Items {
		product, err := c.catalog.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				// product delisted after it was added; show the line without catalog data
				detail.Items = append(detail.Items, DetailItem{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
				})
				continue
			}
			return Detail{}, fmt.Errorf("failed to read catalog for product %s: %w", item.ProductID, err)
		}
		detail.Items = append(detail.Items, DetailItem{
			ProductID: item.ProductID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			LineTotal: product.Price * int64(item.Quantity),
		})
	}
	return detail, nil
}

// UpsertItem sets or increments a line on an open cart. quantity <= 0 removes
// the line. The product must exist in the catalog at mutation time. The cart
// row stays locked for the duration of the transaction, and the update is
// scoped by the owning account so the guard's decision cannot go stale.
func (c *Conf) UpsertItem(ctx context.Context, cartID int64, userID string, productID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(ctx, cartID, userID, productID)
	}

	if _, err := c.catalog.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return catalog.ErrProductNotFound
		}
		return fmt.Errorf("failed to verify product %s: %w", productID, err)
	}

	return c.withTx(ctx, func(tx *sql.Tx) error {
		status, err := lockCart(ctx, tx, cartID, userID)
		if err != nil {
			return err
		}
		if status != StatusOpen {
			return ErrCartNotOpen
		}

		query := `
			INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		`
		if _, err := tx.ExecContext(ctx, query, cartID, productID, quantity); err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}
		return nil
	})
}

// RemoveItem deletes a line. Removing an absent line is a no-op success.
func (c *Conf) RemoveItem(ctx context.Context, cartID int64, userID string, productID string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		status, err := lockCart(ctx, tx, cartID, userID)
		if err != nil {
			return err
		}
		if status != StatusOpen {
			return ErrCartNotOpen
		}

		query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`
		if _, err := tx.ExecContext(ctx, query, cartID, productID); err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
		}
		return nil
	})
}

// lockCart takes the row lock that serializes mutations against checkout.
func lockCart(ctx context.Context, tx *sql.Tx, cartID int64, userID string) (string, error) {
	var status string
	query := `
		SELECT status
		FROM cart
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`
	err := tx.QueryRowContext(ctx, query, cartID, userID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCartNotFound
		}
		return "", fmt.Errorf("failed to lock cart: %w", err)
	}
	return status, nil
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
