package discount

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/types"
)

// Discount represents a discount definition. It is reference data owned by
// the admin domain; the pricing engine only reads it, so a loaded Discount
// is immutable for the duration of an evaluation.
type Discount struct {
	ID          string `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`

	Method    types.DiscountMethod    `db:"method" json:"method"`
	Type      types.DiscountType      `db:"type" json:"type"`
	ValueType types.DiscountValueType `db:"value_type" json:"value_type"`
	Value     decimal.Decimal         `db:"value" json:"value"`

	// Buy X Get Y configuration, only meaningful for DiscountTypeBuyXGetY
	BuyQuantity int `db:"buy_quantity" json:"buy_quantity"`
	GetQuantity int `db:"get_quantity" json:"get_quantity"`

	ProductScope  types.ProductScope `db:"product_scope" json:"product_scope"`
	ProductIDs    []string           `json:"product_ids"`
	CollectionIDs []string           `json:"collection_ids"`

	CustomerSelection types.CustomerSelection `db:"customer_selection" json:"customer_selection"`
	CustomerGroupIDs  []string                `json:"customer_group_ids"`
	CustomerIDs       []string                `json:"customer_ids"`

	MinSubtotal *decimal.Decimal `db:"min_subtotal" json:"min_subtotal"`
	MinQuantity *int             `db:"min_quantity" json:"min_quantity"`

	Priority              int  `db:"priority" json:"priority"`
	UsageLimit            *int `db:"usage_limit" json:"usage_limit"`
	UsageLimitPerCustomer *int `db:"usage_limit_per_customer" json:"usage_limit_per_customer"`

	StartsAt *time.Time `db:"starts_at" json:"starts_at"`
	EndsAt   *time.Time `db:"ends_at" json:"ends_at"`
	IsActive bool       `db:"is_active" json:"is_active"`

	// Combinability flags: whether this discount stacks with already
	// applied discounts of the other categories.
	CombinesWithProductDiscounts  bool `db:"combines_with_product_discounts" json:"combines_with_product_discounts"`
	CombinesWithOrderDiscounts    bool `db:"combines_with_order_discounts" json:"combines_with_order_discounts"`
	CombinesWithShippingDiscounts bool `db:"combines_with_shipping_discounts" json:"combines_with_shipping_discounts"`

	types.BaseModel
}

// NormalizeCode returns the canonical form of a manual discount code.
// Codes are matched case-insensitively.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCurrent reports whether the discount is active and inside its
// activity window at the given instant.
func (d *Discount) IsCurrent(now time.Time) bool {
	if !d.IsActive || d.Status != types.StatusPublished {
		return false
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return false
	}
	return true
}

// CombinesWith reports whether this discount may stack with an already
// applied discount of the given category. Buy X Get Y discounts reduce
// line prices, so they count as product discounts for combinability.
func (d *Discount) CombinesWith(t types.DiscountType) bool {
	switch t {
	case types.DiscountTypeProduct, types.DiscountTypeBuyXGetY:
		return d.CombinesWithProductDiscounts
	case types.DiscountTypeOrder:
		return d.CombinesWithOrderDiscounts
	case types.DiscountTypeShipping:
		return d.CombinesWithShippingDiscounts
	}
	return true
}

// Validate checks the structural invariants of a discount definition.
func (d *Discount) Validate() error {
	if err := d.Method.Validate(); err != nil {
		return err
	}
	if err := d.Type.Validate(); err != nil {
		return err
	}
	if err := d.ValueType.Validate(); err != nil {
		return err
	}
	if err := d.ProductScope.Validate(); err != nil {
		return err
	}
	if err := d.CustomerSelection.Validate(); err != nil {
		return err
	}

	if d.Method == types.DiscountMethodCode && NormalizeCode(d.Code) == "" {
		return ierr.NewError("code is required for code discounts").
			WithHint("Please provide a discount code").
			Mark(ierr.ErrValidation)
	}

	if d.Type == types.DiscountTypeBuyXGetY && (d.BuyQuantity <= 0 || d.GetQuantity <= 0) {
		return ierr.NewError("invalid buy x get y configuration").
			WithHint("Buy quantity and get quantity must both be positive").
			WithReportableDetails(map[string]any{
				"buy_quantity": d.BuyQuantity,
				"get_quantity": d.GetQuantity,
			}).
			Mark(ierr.ErrValidation)
	}

	if d.ValueType != types.DiscountValueTypeFreeShipping && d.Value.IsNegative() {
		return ierr.NewError("discount value cannot be negative").
			WithHint("Please provide a non-negative discount value").
			Mark(ierr.ErrValidation)
	}

	return nil
}
