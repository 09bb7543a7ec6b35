package dto

import (
	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/domain/cart"
	"github.com/storelane/storelane/internal/domain/order"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/types"
)

// SubmitOrderLine is one client-submitted order line. The unit price is
// client-asserted and only used for tamper comparison; verified totals are
// always recomputed from the catalog.
type SubmitOrderLine struct {
	ProductID string          `json:"product_id" validate:"required"`
	VariantID *string         `json:"variant_id,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
}

// SubmitOrderRequest is a client order submission awaiting server-side
// verification.
type SubmitOrderRequest struct {
	CustomerID    string            `json:"customer_id"`
	Lines         []SubmitOrderLine `json:"lines" validate:"required,min=1,dive"`
	DiscountCodes []string          `json:"discount_codes,omitempty"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	DiscountTotal decimal.Decimal   `json:"discount_total"`
	ShippingCost  decimal.Decimal   `json:"shipping_cost"`
	TaxTotal      decimal.Decimal   `json:"tax_total"`
}

func (r *SubmitOrderRequest) Validate() error {
	if len(r.Lines) == 0 {
		return ierr.NewError("order has no lines").
			WithHint("Please add at least one item to the order").
			Mark(ierr.ErrValidation)
	}
	for _, line := range r.Lines {
		if line.ProductID == "" {
			return ierr.NewError("line is missing a product id").
				WithHint("Every order line must reference a product").
				Mark(ierr.ErrValidation)
		}
		if line.Quantity <= 0 {
			return ierr.NewError("line quantity must be positive").
				WithHint("Every order line must have a positive quantity").
				WithReportableDetails(map[string]any{
					"product_id": line.ProductID,
					"quantity":   line.Quantity,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// ToCartSnapshot converts the submitted lines into an engine snapshot using
// the given authoritative prices keyed by line index.
func (r *SubmitOrderRequest) ToCartSnapshot(prices []decimal.Decimal) *cart.Snapshot {
	lines := make([]cart.Line, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = cart.Line{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Price:     prices[i],
			Quantity:  l.Quantity,
		}
	}
	return cart.NewSnapshot(lines, r.CustomerID)
}

// VerifiedOrderLine is one line re-priced from the authoritative catalog.
type VerifiedOrderLine struct {
	ProductID      string          `json:"product_id"`
	VariantID      *string         `json:"variant_id,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	LineTotal      decimal.Decimal `json:"line_total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	IsGift         bool            `json:"is_gift"`
}

// VerifiedOrder is the authoritative result of order price validation.
// Nothing in it derives from client-submitted amounts.
type VerifiedOrder struct {
	Lines              []VerifiedOrderLine `json:"lines"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	DiscountTotal      decimal.Decimal     `json:"discount_total"`
	AppliedDiscountIDs []string            `json:"applied_discount_ids"`
	FreeShipping       bool                `json:"free_shipping"`
}

// OrderResponse is the service-boundary representation of a persisted order.
type OrderResponse struct {
	ID                 string            `json:"id"`
	OrderNumber        string            `json:"order_number"`
	CustomerID         string            `json:"customer_id"`
	OrderStatus        types.OrderStatus `json:"order_status"`
	Subtotal           decimal.Decimal   `json:"subtotal"`
	DiscountTotal      decimal.Decimal   `json:"discount_total"`
	ShippingCost       decimal.Decimal   `json:"shipping_cost"`
	TaxTotal           decimal.Decimal   `json:"tax_total"`
	Total              decimal.Decimal   `json:"total"`
	AppliedDiscountIDs []string          `json:"applied_discount_ids"`
}

// NewOrderResponse converts a domain order to its response representation.
func NewOrderResponse(o *order.Order) *OrderResponse {
	return &OrderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		CustomerID:         o.CustomerID,
		OrderStatus:        o.OrderStatus,
		Subtotal:           o.Subtotal,
		DiscountTotal:      o.DiscountTotal,
		ShippingCost:       o.ShippingCost,
		TaxTotal:           o.TaxTotal,
		Total:              o.Total,
		AppliedDiscountIDs: o.AppliedDiscountIDs,
	}
}
