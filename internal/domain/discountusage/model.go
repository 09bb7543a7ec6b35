package discountusage

import (
	"time"
)

// Usage is the mutable counter tracking how many times a discount has been
// consumed, globally and per customer. It is the only mutable shared state
// the pricing engine touches; all reads during order validation happen
// under a row lock held until the enclosing transaction ends.
type Usage struct {
	ID         string    `db:"id" json:"id"`
	DiscountID string    `db:"discount_id" json:"discount_id"`
	CustomerID *string   `db:"customer_id" json:"customer_id"`
	UsageCount int       `db:"usage_count" json:"usage_count"`
	ShopID     string    `db:"shop_id" json:"shop_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Counts holds the locked usage counts read for one discount.
type Counts struct {
	Total       int
	ForCustomer int
}
