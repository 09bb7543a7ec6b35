package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/api/dto"
	"github.com/storelane/storelane/internal/domain/cart"
	"github.com/storelane/storelane/internal/domain/discount"
	"github.com/storelane/storelane/internal/domain/discountusage"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/types"
)

// OrderValidationService is the trust boundary between the client and
// order persistence. Nothing computed client-side is accepted: item prices,
// stock, discounts and totals are all re-derived from authoritative data,
// and any disagreement beyond tolerance aborts the submission.
//
// ValidateOrder must run inside a transaction (postgres.IClient.WithTx):
// usage-limit checks lock the counter rows, and the locks must hold until
// the enclosing transaction commits or rolls back.
type OrderValidationService interface {
	ValidateOrder(ctx context.Context, req *dto.SubmitOrderRequest) (*dto.VerifiedOrder, error)
}

type orderValidationService struct {
	ServiceParams
	evaluator DiscountEvaluator
}

// NewOrderValidationService creates a new order validation service
func NewOrderValidationService(params ServiceParams) OrderValidationService {
	return &orderValidationService{
		ServiceParams: params,
		evaluator:     NewDiscountEvaluator(params),
	}
}

func (s *orderValidationService) ValidateOrder(ctx context.Context, req *dto.SubmitOrderRequest) (*dto.VerifiedOrder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tolerance := s.Config.Pricing.Tolerance()

	// Step 1: re-derive authoritative prices and stock. Submitted prices
	// are never trusted past this point.
	verified, prices, err := s.verifyLines(ctx, req, tolerance)
	if err != nil {
		return nil, err
	}

	// Step 2: recompute the subtotal from verified line totals only.
	subtotal := decimal.Zero
	for _, line := range verified {
		subtotal = subtotal.Add(line.LineTotal)
	}

	// Step 3: re-run discount evaluation server-side against the
	// authoritative snapshot.
	snapshot := req.ToCartSnapshot(prices)
	discountTotal, appliedIDs, adjustments, freeShipping, err := s.reapplyDiscounts(ctx, req, snapshot)
	if err != nil {
		return nil, err
	}

	s.attributeAdjustments(verified, adjustments)

	// Step 4: tolerance comparison. A mismatch is a tampering signal and
	// is never silently corrected; the caller must re-quote and resubmit.
	if subtotal.Sub(req.Subtotal).Abs().GreaterThan(tolerance) {
		return nil, s.tamperingError("subtotal mismatch")
	}
	if discountTotal.Sub(req.DiscountTotal).Abs().GreaterThan(tolerance) {
		return nil, s.tamperingError("discount total mismatch")
	}

	return &dto.VerifiedOrder{
		Lines:              verified,
		Subtotal:           subtotal,
		DiscountTotal:      discountTotal,
		AppliedDiscountIDs: appliedIDs,
		FreeShipping:       freeShipping,
	}, nil
}

// verifyLines re-fetches every product or variant and rejects unknown
// items, price mismatches beyond tolerance and insufficient stock.
func (s *orderValidationService) verifyLines(ctx context.Context, req *dto.SubmitOrderRequest, tolerance decimal.Decimal) ([]dto.VerifiedOrderLine, []decimal.Decimal, error) {
	verified := make([]dto.VerifiedOrderLine, 0, len(req.Lines))
	prices := make([]decimal.Decimal, 0, len(req.Lines))

	for _, line := range req.Lines {
		var authoritativePrice decimal.Decimal
		var inStock bool

		if line.VariantID != nil {
			variant, err := s.ProductRepo.GetVariant(ctx, *line.VariantID)
			if err != nil {
				if ierr.IsNotFound(err) {
					return nil, nil, s.tamperingError("unknown variant")
				}
				return nil, nil, err
			}
			authoritativePrice = variant.Price
			inStock = variant.HasStock(line.Quantity)
		} else {
			product, err := s.ProductRepo.GetProduct(ctx, line.ProductID)
			if err != nil {
				if ierr.IsNotFound(err) {
					return nil, nil, s.tamperingError("unknown product")
				}
				return nil, nil, err
			}
			authoritativePrice = product.Price
			inStock = product.HasStock(line.Quantity)
		}

		if line.UnitPrice.Sub(authoritativePrice).Abs().GreaterThan(tolerance) {
			s.Logger.Warnw("submitted price disagrees with catalog",
				"product_id", line.ProductID,
				"quantity", line.Quantity)
			return nil, nil, s.tamperingError("price mismatch")
		}
		if !inStock {
			return nil, nil, s.tamperingError("insufficient stock")
		}

		lineTotal := authoritativePrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		verified = append(verified, dto.VerifiedOrderLine{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			UnitPrice:      authoritativePrice,
			Quantity:       line.Quantity,
			LineTotal:      lineTotal,
			DiscountAmount: decimal.Zero,
		})
		prices = append(prices, authoritativePrice)
	}

	return verified, prices, nil
}

// reapplyDiscounts re-runs automatic discounts and every submitted manual
// code against the verified snapshot, checking usage limits under row
// locks. Automatic discounts whose limit is exhausted are skipped; a
// submitted code that is unknown, expired, exhausted or inapplicable fails
// the whole validation.
func (s *orderValidationService) reapplyDiscounts(ctx context.Context, req *dto.SubmitOrderRequest, snapshot *cart.Snapshot) (decimal.Decimal, []string, []cart.LineAdjustment, bool, error) {
	total := decimal.Zero
	appliedIDs := make([]string, 0)
	adjustments := make([]cart.LineAdjustment, 0)
	freeShipping := false
	now := time.Now().UTC()

	apply := func(d *discount.Discount, result *cart.EvaluationResult) {
		total = total.Add(result.TotalDiscount())
		appliedIDs = append(appliedIDs, d.ID)
		adjustments = append(adjustments, result.LineAdjustments...)
		if result.FreeShipping {
			freeShipping = true
		}
	}

	// Automatic discounts, priority descending.
	automatic, err := s.DiscountRepo.ListAutomatic(ctx)
	if err != nil {
		return decimal.Zero, nil, nil, false, err
	}
	sort.SliceStable(automatic, func(i, j int) bool {
		return automatic[i].Priority > automatic[j].Priority
	})

	for _, d := range automatic {
		if !d.IsCurrent(now) {
			continue
		}
		within, err := s.withinUsageLimits(ctx, d, req.CustomerID)
		if err != nil {
			return decimal.Zero, nil, nil, false, err
		}
		if !within {
			continue
		}
		result, err := s.evaluator.Evaluate(ctx, d, snapshot)
		if err != nil {
			return decimal.Zero, nil, nil, false, err
		}
		if !result.Valid {
			continue
		}
		apply(d, result)
		if !s.Config.Pricing.StackAutomaticDiscounts {
			break
		}
	}

	// Submitted manual codes: every one of them must resolve and apply.
	// A repeated code is a tampering signal, not a second application;
	// honoring it would double the recomputed discount and pass the
	// tolerance check against the client's equally doubled total.
	seen := make(map[string]bool, len(req.DiscountCodes))
	for _, code := range req.DiscountCodes {
		normalized := discount.NormalizeCode(code)
		if seen[normalized] {
			return decimal.Zero, nil, nil, false, s.tamperingError("duplicate discount code")
		}
		seen[normalized] = true

		d, err := s.DiscountRepo.GetByCode(ctx, normalized)
		if err != nil {
			if ierr.IsNotFound(err) {
				return decimal.Zero, nil, nil, false, s.tamperingError("unknown discount code")
			}
			return decimal.Zero, nil, nil, false, err
		}
		if d.Method != types.DiscountMethodCode || !d.IsCurrent(now) {
			return decimal.Zero, nil, nil, false, s.tamperingError("discount code no longer valid")
		}

		within, err := s.withinUsageLimits(ctx, d, req.CustomerID)
		if err != nil {
			return decimal.Zero, nil, nil, false, err
		}
		if !within {
			return decimal.Zero, nil, nil, false, ierr.NewErrorf("usage limit reached for discount %s", d.ID).
				WithHint("This discount code has already been used").
				Mark(ierr.ErrUsageExhausted)
		}

		result, err := s.evaluator.Evaluate(ctx, d, snapshot)
		if err != nil {
			return decimal.Zero, nil, nil, false, err
		}
		if !result.Valid {
			return decimal.Zero, nil, nil, false, s.tamperingError("discount code not applicable")
		}
		apply(d, result)
	}

	return total, appliedIDs, adjustments, freeShipping, nil
}

// withinUsageLimits checks the discount's usage limits under a row lock.
// Unlimited discounts skip the lock entirely.
func (s *orderValidationService) withinUsageLimits(ctx context.Context, d *discount.Discount, customerID string) (bool, error) {
	if d.UsageLimit == nil && d.UsageLimitPerCustomer == nil {
		return true, nil
	}
	counts, err := s.DiscountUsageRepo.GetForUpdate(ctx, d.ID, customerID)
	if err != nil {
		return false, err
	}
	return discountusage.WithinLimits(d, counts), nil
}

// attributeAdjustments folds per-line discount amounts into the verified
// lines so persistence can attribute every discounted unit to its line.
// Adjustments carry the snapshot line index, which matches the submitted
// line order one to one, so repeated (product, variant) pairs across
// lines never collapse onto the first match.
func (s *orderValidationService) attributeAdjustments(verified []dto.VerifiedOrderLine, adjustments []cart.LineAdjustment) {
	for _, adj := range adjustments {
		if adj.LineIndex < 0 || adj.LineIndex >= len(verified) {
			continue
		}
		line := &verified[adj.LineIndex]
		line.DiscountAmount = line.DiscountAmount.Add(adj.DiscountAmount)
		if adj.IsGift {
			line.IsGift = true
		}
	}
}

// tamperingError builds the terminal rejection. The internal message names
// the mismatch for logs; the hint stays generic so authoritative values
// are never echoed back to the client as an oracle.
func (s *orderValidationService) tamperingError(internal string) error {
	return ierr.NewError(internal).
		WithHint("Your order could not be verified. Please refresh your cart and retry checkout").
		Mark(ierr.ErrPriceTampering)
}
