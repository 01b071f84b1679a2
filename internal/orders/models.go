package orders

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// Order is the durable record of a checkout. TotalPrice is in the smallest
// currency unit, computed once at checkout and never recomputed.
type Order struct {
	ID         int64     `json:"id"`
	CartID     int64     `json:"cart_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	TotalPrice int64     `json:"total_price"`
	Items      []Item    `json:"items,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Item is a cart line frozen at checkout. UnitPrice is the snapshot taken
// from the catalog at checkout time, immune to later price changes.
type Item struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}
