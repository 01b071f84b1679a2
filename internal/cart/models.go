package cart

import "time"

const (
	StatusOpen       = "open"
	StatusCheckedOut = "checked_out"
)

type Cart struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// DetailItem joins a cart line with live catalog data for display. The price
// here is the catalog's current price, not a checkout snapshot.
type DetailItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

type Detail struct {
	CartID int64        `json:"cart_id"`
	Status string       `json:"status"`
	Items  []DetailItem `json:"items"`
}
