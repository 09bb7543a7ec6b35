package service

import (
	"context"
	"sort"
	"time"

	"github.com/storelane/storelane/internal/api/dto"
	"github.com/storelane/storelane/internal/domain/cart"
	"github.com/storelane/storelane/internal/domain/discount"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/types"
)

// CartPricingService applies discounts to a cart snapshot at browse time.
// Its output is advisory: the order price validator recomputes everything
// server-side before an order is created.
type CartPricingService interface {
	// ApplyCode resolves one manual discount code and evaluates it against
	// the snapshot. Combinability against already applied discount
	// categories is checked before evaluation and independently of it.
	ApplyCode(ctx context.Context, code string, snapshot *cart.Snapshot, existing types.AppliedDiscountTypes) (*cart.EvaluationResult, error)

	// ApplyAutomaticDiscounts evaluates every current automatic discount
	// in priority order against the same unmodified snapshot. Discounts
	// that do not apply are skipped silently.
	ApplyAutomaticDiscounts(ctx context.Context, snapshot *cart.Snapshot) (*dto.CartPricingResponse, error)
}

type cartPricingService struct {
	ServiceParams
	evaluator DiscountEvaluator
}

// NewCartPricingService creates a new cart pricing service
func NewCartPricingService(params ServiceParams) CartPricingService {
	return &cartPricingService{
		ServiceParams: params,
		evaluator:     NewDiscountEvaluator(params),
	}
}

func (s *cartPricingService) ApplyCode(ctx context.Context, code string, snapshot *cart.Snapshot, existing types.AppliedDiscountTypes) (*cart.EvaluationResult, error) {
	normalized := discount.NormalizeCode(code)
	if normalized == "" {
		return cart.NewFailedResult(cart.FailureReasonCalculation, "This discount code is not valid"), nil
	}

	d, err := s.DiscountRepo.GetByCode(ctx, normalized)
	if err != nil {
		if ierr.IsNotFound(err) {
			return cart.NewFailedResult(cart.FailureReasonCalculation, "This discount code is not valid"), nil
		}
		return nil, err
	}

	if d.Method != types.DiscountMethodCode || !d.IsCurrent(time.Now().UTC()) {
		return cart.NewFailedResult(cart.FailureReasonCalculation, "This discount code is not valid"), nil
	}

	if err := s.checkCombinability(d, existing); err != nil {
		return nil, err
	}

	result, err := s.evaluator.Evaluate(ctx, d, snapshot)
	if err != nil {
		return nil, err
	}

	s.Logger.Debugw("manual discount code evaluated",
		"discount_id", d.ID,
		"code", normalized,
		"valid", result.Valid,
		"reason", result.Reason)

	return result, nil
}

// checkCombinability rejects the candidate when any already applied
// discount category is blocked by the candidate's combinability flags.
// This is independent of whether the candidate would otherwise apply.
func (s *cartPricingService) checkCombinability(d *discount.Discount, existing types.AppliedDiscountTypes) error {
	// CombinesWith folds Buy X Get Y into the product category, since it
	// reduces line prices the same way a product discount does.
	categories := []struct {
		applied  types.DiscountType
		category string
	}{
		{types.DiscountTypeProduct, "product"},
		{types.DiscountTypeBuyXGetY, "product"},
		{types.DiscountTypeOrder, "order"},
		{types.DiscountTypeShipping, "shipping"},
	}

	for _, c := range categories {
		if existing.Has(c.applied) && !d.CombinesWith(c.applied) {
			return ierr.NewErrorf("discount %s does not combine with %s discounts", d.ID, c.category).
				WithHintf("This code cannot be combined with an already applied %s discount", c.category).
				WithReportableDetails(map[string]any{
					"discount_id":          d.ID,
					"conflicting_category": c.category,
				}).
				Mark(ierr.ErrDiscountConflict)
		}
	}

	return nil
}

func (s *cartPricingService) ApplyAutomaticDiscounts(ctx context.Context, snapshot *cart.Snapshot) (*dto.CartPricingResponse, error) {
	discounts, err := s.DiscountRepo.ListAutomatic(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	current := make([]*discount.Discount, 0, len(discounts))
	for _, d := range discounts {
		if d.IsCurrent(now) {
			current = append(current, d)
		}
	}
	sort.SliceStable(current, func(i, j int) bool {
		return current[i].Priority > current[j].Priority
	})

	response := dto.NewCartPricingResponse()

	for _, d := range current {
		result, err := s.evaluator.Evaluate(ctx, d, snapshot)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			// Automatic discounts that do not apply are not cart errors.
			s.Logger.Debugw("automatic discount skipped",
				"discount_id", d.ID,
				"reason", result.Reason)
			continue
		}

		s.accumulate(response, d, result)

		// Stacking is merchant policy: automatic discounts accumulate
		// additively unless the deployment disables it.
		if !s.Config.Pricing.StackAutomaticDiscounts {
			break
		}
	}

	return response, nil
}

func (s *cartPricingService) accumulate(response *dto.CartPricingResponse, d *discount.Discount, result *cart.EvaluationResult) {
	response.Promotions = append(response.Promotions, dto.AppliedPromotion{
		DiscountID:             d.ID,
		Code:                   d.Code,
		Name:                   d.Name,
		OrderDiscountAmount:    result.OrderDiscountAmount,
		ProductDiscountAmount:  result.ProductDiscountAmount,
		ShippingDiscountAmount: result.ShippingDiscountAmount,
		FreeShipping:           result.FreeShipping,
	})

	response.OrderDiscountTotal = response.OrderDiscountTotal.Add(result.OrderDiscountAmount)
	response.ProductDiscountTotal = response.ProductDiscountTotal.Add(result.ProductDiscountAmount)
	response.ShippingDiscountTotal = response.ShippingDiscountTotal.Add(result.ShippingDiscountAmount)
	if result.FreeShipping {
		response.FreeShipping = true
	}

	if len(result.LineAdjustments) > 0 {
		key := d.Code
		if key == "" {
			key = d.ID
		}
		response.LineAdjustmentsByCode[key] = append(response.LineAdjustmentsByCode[key], result.LineAdjustments...)
	}
}
