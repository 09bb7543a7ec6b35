package cart

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Line is one priced cart line as handed to the pricing engine.
type Line struct {
	ProductID string          `json:"product_id"`
	VariantID *string         `json:"variant_id,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns price × quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is the transient, engine-local evaluation input: an ordered
// collection of priced lines plus the customer reference. It is never
// persisted; every evaluation is a pure function call over one snapshot.
type Snapshot struct {
	Lines      []Line          `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	CustomerID string          `json:"customer_id,omitempty"`
}

// NewSnapshot builds a snapshot from lines, deriving the subtotal.
func NewSnapshot(lines []Line, customerID string) *Snapshot {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}
	return &Snapshot{
		Lines:      lines,
		Subtotal:   subtotal,
		CustomerID: customerID,
	}
}

// ProductIDs returns the deduplicated set of product ids present in the cart.
func (s *Snapshot) ProductIDs() []string {
	return lo.Uniq(lo.Map(s.Lines, func(l Line, _ int) string {
		return l.ProductID
	}))
}

// TotalQuantity returns the total quantity across all lines.
func (s *Snapshot) TotalQuantity() int {
	total := 0
	for _, l := range s.Lines {
		total += l.Quantity
	}
	return total
}
