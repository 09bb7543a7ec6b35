package dto

import (
	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/domain/cart"
)

// AppliedPromotion is one automatic discount that applied to the cart,
// with its contribution per cost component.
type AppliedPromotion struct {
	DiscountID             string          `json:"discount_id"`
	Code                   string          `json:"code,omitempty"`
	Name                   string          `json:"name"`
	OrderDiscountAmount    decimal.Decimal `json:"order_discount_amount"`
	ProductDiscountAmount  decimal.Decimal `json:"product_discount_amount"`
	ShippingDiscountAmount decimal.Decimal `json:"shipping_discount_amount"`
	FreeShipping           bool            `json:"free_shipping"`
}

// CartPricingResponse is the advisory output of automatic discount
// application at cart time. It is never trusted at order creation; the
// price validator recomputes everything server-side.
type CartPricingResponse struct {
	Promotions []AppliedPromotion `json:"promotions"`

	// LineAdjustmentsByCode attributes every per-line discount amount to
	// the discount that produced it.
	LineAdjustmentsByCode map[string][]cart.LineAdjustment `json:"line_adjustments_by_code,omitempty"`

	OrderDiscountTotal    decimal.Decimal `json:"order_discount_total"`
	ProductDiscountTotal  decimal.Decimal `json:"product_discount_total"`
	ShippingDiscountTotal decimal.Decimal `json:"shipping_discount_total"`
	FreeShipping          bool            `json:"free_shipping"`
}

// NewCartPricingResponse returns an empty response with zeroed totals.
func NewCartPricingResponse() *CartPricingResponse {
	return &CartPricingResponse{
		Promotions:            []AppliedPromotion{},
		LineAdjustmentsByCode: map[string][]cart.LineAdjustment{},
		OrderDiscountTotal:    decimal.Zero,
		ProductDiscountTotal:  decimal.Zero,
		ShippingDiscountTotal: decimal.Zero,
	}
}
