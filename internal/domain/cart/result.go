package cart

import (
	"github.com/shopspring/decimal"
)

// FailureReason categorizes why a discount did not apply, so the web layer
// can localize messages without parsing them.
type FailureReason string

const (
	// FailureReasonReserved means the discount is reserved to other customers
	FailureReasonReserved FailureReason = "reserved"
	// FailureReasonScope means no cart line falls inside the discount's scope
	FailureReasonScope FailureReason = "scope"
	// FailureReasonMinimum means a minimum subtotal or quantity is not met
	FailureReasonMinimum FailureReason = "minimum"
	// FailureReasonCalculation means the computed discount amount was zero
	FailureReasonCalculation FailureReason = "calculation"
)

// LineAdjustment records how much discount was applied to one cart line,
// and whether the reduction represents free gift units. LineIndex is the
// position of the adjusted line in the evaluated snapshot, so carts with
// repeated (product, variant) pairs still attribute unambiguously.
type LineAdjustment struct {
	LineIndex      int             `json:"line_index"`
	ProductID      string          `json:"product_id"`
	VariantID      *string         `json:"variant_id,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	IsGift         bool            `json:"is_gift"`
}

// EvaluationResult is the outcome of evaluating one discount against one
// cart snapshot. Inapplicability is a value, not an error: Valid is false
// and Message carries the human-readable reason.
//
// The three amounts are tracked independently and never summed into one
// field, because downstream consumers apply them to different cost
// components (subtotal, line prices, shipping).
type EvaluationResult struct {
	Valid   bool          `json:"valid"`
	Message string        `json:"message,omitempty"`
	Reason  FailureReason `json:"reason,omitempty"`

	OrderDiscountAmount    decimal.Decimal `json:"order_discount_amount"`
	ProductDiscountAmount  decimal.Decimal `json:"product_discount_amount"`
	ShippingDiscountAmount decimal.Decimal `json:"shipping_discount_amount"`
	FreeShipping           bool            `json:"free_shipping"`

	LineAdjustments []LineAdjustment `json:"line_adjustments,omitempty"`
}

// NewFailedResult builds an inapplicable result with a categorized reason.
func NewFailedResult(reason FailureReason, message string) *EvaluationResult {
	return &EvaluationResult{
		Valid:                  false,
		Message:                message,
		Reason:                 reason,
		OrderDiscountAmount:    decimal.Zero,
		ProductDiscountAmount:  decimal.Zero,
		ShippingDiscountAmount: decimal.Zero,
	}
}

// NewValidResult builds an applicable result with zeroed amounts for the
// caller to fill in.
func NewValidResult() *EvaluationResult {
	return &EvaluationResult{
		Valid:                  true,
		OrderDiscountAmount:    decimal.Zero,
		ProductDiscountAmount:  decimal.Zero,
		ShippingDiscountAmount: decimal.Zero,
	}
}

// TotalDiscount returns the sum of all discount components. Used for
// reporting only; consumers apply the components separately.
func (r *EvaluationResult) TotalDiscount() decimal.Decimal {
	return r.OrderDiscountAmount.
		Add(r.ProductDiscountAmount).
		Add(r.ShippingDiscountAmount)
}
