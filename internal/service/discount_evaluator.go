package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/domain/cart"
	"github.com/storelane/storelane/internal/domain/discount"
	"github.com/storelane/storelane/internal/types"
)

// DiscountEvaluator decides whether one discount applies to one cart
// snapshot and computes its amounts. Evaluation is deterministic: the same
// discount and snapshot always produce the same result, and the snapshot is
// never mutated.
type DiscountEvaluator interface {
	Evaluate(ctx context.Context, d *discount.Discount, snapshot *cart.Snapshot) (*cart.EvaluationResult, error)
}

type discountEvaluator struct {
	ServiceParams
}

// NewDiscountEvaluator creates a new discount evaluator
func NewDiscountEvaluator(params ServiceParams) DiscountEvaluator {
	return &discountEvaluator{
		ServiceParams: params,
	}
}

// Evaluate runs the strictly ordered evaluation pipeline: customer
// eligibility, scope resolution, matching check, order conditions, then the
// type-specific calculation. Each step may short-circuit with an
// inapplicable result; an error is returned only for infrastructure
// failures such as a category lookup going down.
func (s *discountEvaluator) Evaluate(ctx context.Context, d *discount.Discount, snapshot *cart.Snapshot) (*cart.EvaluationResult, error) {
	failed, err := s.checkCustomerEligibility(ctx, d, snapshot)
	if err != nil {
		return nil, err
	}
	if failed != nil {
		return failed, nil
	}

	eligibleProductIDs, err := s.resolveScope(ctx, d, snapshot)
	if err != nil {
		return nil, err
	}

	if d.ProductScope != types.ProductScopeAll && len(eligibleProductIDs) == 0 {
		return s.scopeFailure(d), nil
	}

	if failed := s.checkOrderConditions(d, snapshot); failed != nil {
		return failed, nil
	}

	switch d.Type {
	case types.DiscountTypeOrder:
		return s.calculateOrderDiscount(d, snapshot), nil
	case types.DiscountTypeShipping:
		return s.calculateShippingDiscount(d), nil
	case types.DiscountTypeProduct:
		return s.calculateProductDiscount(d, snapshot, eligibleProductIDs), nil
	case types.DiscountTypeBuyXGetY:
		return s.calculateBuyXGetY(d, snapshot, eligibleProductIDs), nil
	}

	// Unreachable for validated discounts; Validate rejects unknown types.
	return cart.NewFailedResult(cart.FailureReasonCalculation, "This discount cannot be applied"), nil
}

// checkCustomerEligibility enforces the discount's customer selection.
func (s *discountEvaluator) checkCustomerEligibility(ctx context.Context, d *discount.Discount, snapshot *cart.Snapshot) (*cart.EvaluationResult, error) {
	switch d.CustomerSelection {
	case types.CustomerSelectionGroups:
		if snapshot.CustomerID == "" {
			return cart.NewFailedResult(cart.FailureReasonReserved,
				"This discount is reserved to certain customers"), nil
		}
		groupIDs, err := s.CustomerRepo.GetGroupIDs(ctx, snapshot.CustomerID)
		if err != nil {
			return nil, err
		}
		if len(lo.Intersect(groupIDs, d.CustomerGroupIDs)) == 0 {
			return cart.NewFailedResult(cart.FailureReasonReserved,
				"This discount is reserved to certain customers"), nil
		}
	case types.CustomerSelectionCustomers:
		if snapshot.CustomerID == "" || !lo.Contains(d.CustomerIDs, snapshot.CustomerID) {
			return cart.NewFailedResult(cart.FailureReasonReserved,
				"This discount does not apply to your account"), nil
		}
	}
	return nil, nil
}

// resolveScope computes the eligible product id set for the discount.
func (s *discountEvaluator) resolveScope(ctx context.Context, d *discount.Discount, snapshot *cart.Snapshot) ([]string, error) {
	cartProductIDs := snapshot.ProductIDs()

	switch d.ProductScope {
	case types.ProductScopeAll:
		return cartProductIDs, nil
	case types.ProductScopeProducts:
		return lo.Intersect(cartProductIDs, d.ProductIDs), nil
	case types.ProductScopeCollections:
		eligible := make([]string, 0, len(cartProductIDs))
		for _, productID := range cartProductIDs {
			categoryIDs, err := s.ProductRepo.GetCategoryIDs(ctx, productID)
			if err != nil {
				return nil, err
			}
			if len(lo.Intersect(categoryIDs, d.CollectionIDs)) > 0 {
				eligible = append(eligible, productID)
			}
		}
		return eligible, nil
	}
	return cartProductIDs, nil
}

func (s *discountEvaluator) scopeFailure(d *discount.Discount) *cart.EvaluationResult {
	if d.ProductScope == types.ProductScopeCollections {
		return cart.NewFailedResult(cart.FailureReasonScope,
			"This discount does not apply to the collections in your cart")
	}
	return cart.NewFailedResult(cart.FailureReasonScope,
		"This discount does not apply to the products in your cart")
}

// checkOrderConditions enforces the minimum subtotal and quantity.
func (s *discountEvaluator) checkOrderConditions(d *discount.Discount, snapshot *cart.Snapshot) *cart.EvaluationResult {
	if d.MinSubtotal != nil && snapshot.Subtotal.LessThan(*d.MinSubtotal) {
		return cart.NewFailedResult(cart.FailureReasonMinimum,
			fmt.Sprintf("A minimum subtotal of %s is required for this discount", d.MinSubtotal.StringFixed(2)))
	}
	if d.MinQuantity != nil && snapshot.TotalQuantity() < *d.MinQuantity {
		return cart.NewFailedResult(cart.FailureReasonMinimum,
			fmt.Sprintf("A minimum of %d items is required for this discount", *d.MinQuantity))
	}
	return nil
}

// calculateOrderDiscount computes a subtotal-level discount, capped at the
// subtotal so the order total never goes negative.
func (s *discountEvaluator) calculateOrderDiscount(d *discount.Discount, snapshot *cart.Snapshot) *cart.EvaluationResult {
	var amount decimal.Decimal
	switch d.ValueType {
	case types.DiscountValueTypePercentage:
		amount = snapshot.Subtotal.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	case types.DiscountValueTypeFixedAmount:
		amount = decimal.Min(snapshot.Subtotal, d.Value)
	default:
		return cart.NewFailedResult(cart.FailureReasonCalculation, "This discount cannot be applied")
	}

	amount = decimal.Min(amount, snapshot.Subtotal)
	if !amount.IsPositive() {
		return cart.NewFailedResult(cart.FailureReasonCalculation, "This discount cannot be applied")
	}

	result := cart.NewValidResult()
	result.OrderDiscountAmount = amount
	return result
}

// calculateShippingDiscount only supports free shipping; a shipping
// discount with any other value type is an explicit limitation.
func (s *discountEvaluator) calculateShippingDiscount(d *discount.Discount) *cart.EvaluationResult {
	if d.ValueType != types.DiscountValueTypeFreeShipping {
		return cart.NewFailedResult(cart.FailureReasonCalculation,
			"Only free shipping discounts are supported for shipping")
	}
	result := cart.NewValidResult()
	result.FreeShipping = true
	return result
}

// calculateProductDiscount computes per-line discounts for every eligible
// line and emits one adjustment per affected line.
func (s *discountEvaluator) calculateProductDiscount(d *discount.Discount, snapshot *cart.Snapshot, eligibleProductIDs []string) *cart.EvaluationResult {
	result := cart.NewValidResult()
	total := decimal.Zero

	for i, line := range snapshot.Lines {
		if !lo.Contains(eligibleProductIDs, line.ProductID) {
			continue
		}

		lineSubtotal := line.Subtotal()
		var lineDiscount decimal.Decimal
		switch d.ValueType {
		case types.DiscountValueTypePercentage:
			lineDiscount = lineSubtotal.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
		case types.DiscountValueTypeFixedAmount:
			lineDiscount = decimal.Min(lineSubtotal, d.Value)
		default:
			return cart.NewFailedResult(cart.FailureReasonCalculation, "This discount cannot be applied")
		}

		if !lineDiscount.IsPositive() {
			continue
		}

		total = total.Add(lineDiscount)
		result.LineAdjustments = append(result.LineAdjustments, cart.LineAdjustment{
			LineIndex:      i,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			DiscountAmount: lineDiscount,
		})
	}

	total = decimal.Min(total, snapshot.Subtotal)
	if !total.IsPositive() {
		return cart.NewFailedResult(cart.FailureReasonCalculation, "This discount cannot be applied")
	}

	result.ProductDiscountAmount = total
	return result
}

// calculateBuyXGetY grants get_quantity free units for every complete
// buy+get group on each eligible line. Gift units can never exceed the
// purchased quantity because groups are floored.
func (s *discountEvaluator) calculateBuyXGetY(d *discount.Discount, snapshot *cart.Snapshot, eligibleProductIDs []string) *cart.EvaluationResult {
	groupSize := d.BuyQuantity + d.GetQuantity
	result := cart.NewValidResult()
	total := decimal.Zero

	for i, line := range snapshot.Lines {
		if !lo.Contains(eligibleProductIDs, line.ProductID) {
			continue
		}

		groups := line.Quantity / groupSize
		if groups == 0 {
			continue
		}

		giftQty := groups * d.GetQuantity
		giftAmount := line.Price.Mul(decimal.NewFromInt(int64(giftQty)))
		if !giftAmount.IsPositive() {
			continue
		}

		total = total.Add(giftAmount)
		result.LineAdjustments = append(result.LineAdjustments, cart.LineAdjustment{
			LineIndex:      i,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			DiscountAmount: giftAmount,
			IsGift:         true,
		})
	}

	if !total.IsPositive() {
		return cart.NewFailedResult(cart.FailureReasonCalculation,
			fmt.Sprintf("Add at least %d eligible items to benefit from this offer", groupSize))
	}

	result.ProductDiscountAmount = total
	return result
}
