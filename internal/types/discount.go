package types

import (
	"slices"

	ierr "github.com/storelane/storelane/internal/errors"
)

// DiscountMethod represents how a discount is obtained by the customer
type DiscountMethod string

const (
	// DiscountMethodCode represents a discount redeemed by entering a code
	DiscountMethodCode DiscountMethod = "code"
	// DiscountMethodAutomatic represents a discount applied without a code
	DiscountMethodAutomatic DiscountMethod = "automatic"
)

func (m DiscountMethod) String() string {
	return string(m)
}

func (m DiscountMethod) Validate() error {
	allowedValues := []string{string(DiscountMethodCode), string(DiscountMethodAutomatic)}
	if !slices.Contains(allowedValues, string(m)) {
		return ierr.NewError("invalid discount method").
			WithHint("Discount method must be either code or automatic").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DiscountType represents which cost component a discount targets
type DiscountType string

const (
	// DiscountTypeOrder discounts the order subtotal
	DiscountTypeOrder DiscountType = "order"
	// DiscountTypeShipping discounts the shipping cost
	DiscountTypeShipping DiscountType = "shipping"
	// DiscountTypeProduct discounts individual eligible lines
	DiscountTypeProduct DiscountType = "product"
	// DiscountTypeBuyXGetY grants free units per purchased group
	DiscountTypeBuyXGetY DiscountType = "buy_x_get_y"
)

func (t DiscountType) String() string {
	return string(t)
}

func (t DiscountType) Validate() error {
	allowedValues := []string{
		DiscountTypeOrder.String(),
		DiscountTypeShipping.String(),
		DiscountTypeProduct.String(),
		DiscountTypeBuyXGetY.String(),
	}
	if !slices.Contains(allowedValues, string(t)) {
		return ierr.NewError("invalid discount type").
			WithHint("Discount type must be one of order, shipping, product or buy_x_get_y").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DiscountValueType represents how a discount's value is interpreted
type DiscountValueType string

const (
	DiscountValueTypePercentage   DiscountValueType = "percentage"
	DiscountValueTypeFixedAmount  DiscountValueType = "fixed_amount"
	DiscountValueTypeFreeShipping DiscountValueType = "free_shipping"
)

func (v DiscountValueType) String() string {
	return string(v)
}

func (v DiscountValueType) Validate() error {
	allowedValues := []string{
		DiscountValueTypePercentage.String(),
		DiscountValueTypeFixedAmount.String(),
		DiscountValueTypeFreeShipping.String(),
	}
	if !slices.Contains(allowedValues, string(v)) {
		return ierr.NewError("invalid discount value type").
			WithHint("Discount value type must be one of percentage, fixed_amount or free_shipping").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ProductScope represents the subset of cart lines a discount may affect
type ProductScope string

const (
	ProductScopeAll         ProductScope = "all"
	ProductScopeProducts    ProductScope = "products"
	ProductScopeCollections ProductScope = "collections"
)

func (s ProductScope) String() string {
	return string(s)
}

func (s ProductScope) Validate() error {
	allowedValues := []string{
		ProductScopeAll.String(),
		ProductScopeProducts.String(),
		ProductScopeCollections.String(),
	}
	if !slices.Contains(allowedValues, string(s)) {
		return ierr.NewError("invalid product scope").
			WithHint("Product scope must be one of all, products or collections").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CustomerSelection represents which customers a discount is reserved to
type CustomerSelection string

const (
	CustomerSelectionAll       CustomerSelection = "all"
	CustomerSelectionGroups    CustomerSelection = "groups"
	CustomerSelectionCustomers CustomerSelection = "customers"
)

func (s CustomerSelection) String() string {
	return string(s)
}

func (s CustomerSelection) Validate() error {
	allowedValues := []string{
		CustomerSelectionAll.String(),
		CustomerSelectionGroups.String(),
		CustomerSelectionCustomers.String(),
	}
	if !slices.Contains(allowedValues, string(s)) {
		return ierr.NewError("invalid customer selection").
			WithHint("Customer selection must be one of all, groups or customers").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// AppliedDiscountTypes tracks which discount categories are already applied
// to a cart. Used for the combinability pre-check on manual codes.
type AppliedDiscountTypes map[DiscountType]bool

func NewAppliedDiscountTypes(discountTypes ...DiscountType) AppliedDiscountTypes {
	applied := make(AppliedDiscountTypes, len(discountTypes))
	for _, t := range discountTypes {
		applied[t] = true
	}
	return applied
}

func (a AppliedDiscountTypes) Has(t DiscountType) bool {
	return a[t]
}

func (a AppliedDiscountTypes) Add(t DiscountType) {
	a[t] = true
}
