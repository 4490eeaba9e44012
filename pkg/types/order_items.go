package types

import "github.com/google/uuid"

// OrderItem is one line of the immutable snapshot embedded in an order at
// submission time. It is decoupled from the live product row: later price or
// name edits never alter historical orders.
type OrderItem struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	Qty           int       `json:"qty"`
	Price         int       `json:"price"`
	OriginalPrice *int      `json:"original_price,omitempty"`
	Image         string    `json:"image,omitempty"`
}

// OrderItems is the snapshot array persisted as jsonb on the orders table.
type OrderItems []OrderItem
