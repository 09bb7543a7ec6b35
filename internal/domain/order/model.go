package order

import (
	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/types"
)

// Order is a persisted order built exclusively from verified data. The
// totals on an order always come from the price validator, never from the
// client submission.
type Order struct {
	ID          string            `db:"id" json:"id"`
	OrderNumber string            `db:"order_number" json:"order_number"`
	CustomerID  string            `db:"customer_id" json:"customer_id"`
	OrderStatus types.OrderStatus `db:"order_status" json:"order_status"`

	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	DiscountTotal decimal.Decimal `db:"discount_total" json:"discount_total"`
	ShippingCost  decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	TaxTotal      decimal.Decimal `db:"tax_total" json:"tax_total"`
	Total         decimal.Decimal `db:"total" json:"total"`

	// AppliedDiscountIDs is the deduplicated set of discounts that
	// contributed to DiscountTotal, kept for attribution and refunds.
	AppliedDiscountIDs []string `json:"applied_discount_ids"`

	Lines []*Line `json:"lines"`

	types.BaseModel
}

// Line is one persisted order line with its verified unit price and the
// discount attributed to it.
type Line struct {
	ID             string          `db:"id" json:"id"`
	OrderID        string          `db:"order_id" json:"order_id"`
	ProductID      string          `db:"product_id" json:"product_id"`
	VariantID      *string         `db:"variant_id" json:"variant_id"`
	UnitPrice      decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity       int             `db:"quantity" json:"quantity"`
	LineTotal      decimal.Decimal `db:"line_total" json:"line_total"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	IsGift         bool            `db:"is_gift" json:"is_gift"`
}

// GrandTotal derives the payable total from the verified components.
func (o *Order) GrandTotal() decimal.Decimal {
	total := o.Subtotal.Sub(o.DiscountTotal).Add(o.ShippingCost).Add(o.TaxTotal)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
