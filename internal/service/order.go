package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/api/dto"
	"github.com/storelane/storelane/internal/domain/order"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/types"
)

// OrderService persists validated orders. Confirmation consumes discount
// usage counters in the same transaction that commits the order, so a
// crash between validation and commit can never over- or under-count.
type OrderService interface {
	// CreateDraftOrder validates and persists an order without consuming
	// discount usage.
	CreateDraftOrder(ctx context.Context, req *dto.SubmitOrderRequest) (*dto.OrderResponse, error)

	// ConfirmOrder validates, consumes usage for every applied discount
	// and persists the confirmed order, all in one transaction.
	ConfirmOrder(ctx context.Context, req *dto.SubmitOrderRequest) (*dto.OrderResponse, error)

	// ConfirmDraft re-validates a previously created draft and confirms it.
	ConfirmDraft(ctx context.Context, orderID string) (*dto.OrderResponse, error)

	GetOrder(ctx context.Context, id string) (*dto.OrderResponse, error)
}

type orderService struct {
	ServiceParams
	validator OrderValidationService
}

// NewOrderService creates a new order service
func NewOrderService(params ServiceParams) OrderService {
	return &orderService{
		ServiceParams: params,
		validator:     NewOrderValidationService(params),
	}
}

func (s *orderService) CreateDraftOrder(ctx context.Context, req *dto.SubmitOrderRequest) (*dto.OrderResponse, error) {
	var response *dto.OrderResponse

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		verified, err := s.validator.ValidateOrder(ctx, req)
		if err != nil {
			return err
		}

		o, err := s.buildOrder(ctx, req, verified, types.OrderStatusDraft)
		if err != nil {
			return err
		}
		if err := s.OrderRepo.Create(ctx, o); err != nil {
			return err
		}

		response = dto.NewOrderResponse(o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("draft order created",
		"order_id", response.ID,
		"order_number", response.OrderNumber)

	return response, nil
}

func (s *orderService) ConfirmOrder(ctx context.Context, req *dto.SubmitOrderRequest) (*dto.OrderResponse, error) {
	var response *dto.OrderResponse

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		verified, err := s.validator.ValidateOrder(ctx, req)
		if err != nil {
			return err
		}

		if err := s.consumeUsage(ctx, verified.AppliedDiscountIDs, req.CustomerID); err != nil {
			return err
		}

		o, err := s.buildOrder(ctx, req, verified, types.OrderStatusConfirmed)
		if err != nil {
			return err
		}
		if err := s.OrderRepo.Create(ctx, o); err != nil {
			return err
		}

		response = dto.NewOrderResponse(o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("order confirmed",
		"order_id", response.ID,
		"order_number", response.OrderNumber,
		"applied_discounts", len(response.AppliedDiscountIDs))

	return response, nil
}

func (s *orderService) ConfirmDraft(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	var response *dto.OrderResponse

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		draft, err := s.OrderRepo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if draft.OrderStatus != types.OrderStatusDraft {
			return ierr.NewErrorf("order %s is not a draft", orderID).
				WithHint("Only draft orders can be confirmed").
				Mark(ierr.ErrInvalidOperation)
		}

		// Re-validate against current prices, stock and discounts: the
		// catalog may have changed since the draft was created.
		req, err := s.draftToRequest(ctx, draft)
		if err != nil {
			return err
		}
		verified, err := s.validator.ValidateOrder(ctx, req)
		if err != nil {
			return err
		}

		if err := s.consumeUsage(ctx, verified.AppliedDiscountIDs, draft.CustomerID); err != nil {
			return err
		}

		s.applyVerified(draft, verified)
		draft.OrderStatus = types.OrderStatusConfirmed
		if err := s.OrderRepo.Update(ctx, draft); err != nil {
			return err
		}

		response = dto.NewOrderResponse(draft)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("draft order confirmed", "order_id", response.ID)

	return response, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*dto.OrderResponse, error) {
	o, err := s.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewOrderResponse(o), nil
}

// consumeUsage increments the usage counter of every applied discount.
// The counter rows are already locked by the validator's checks in this
// transaction, so the increments cannot race a concurrent checkout.
func (s *orderService) consumeUsage(ctx context.Context, discountIDs []string, customerID string) error {
	if len(discountIDs) == 0 {
		return nil
	}

	discounts, err := s.DiscountRepo.GetBatch(ctx, discountIDs)
	if err != nil {
		return err
	}

	for _, d := range discounts {
		consumed, err := s.DiscountUsageRepo.TryConsume(ctx, d, customerID)
		if err != nil {
			return err
		}
		if !consumed {
			return ierr.NewErrorf("usage limit reached for discount %s", d.ID).
				WithHint("This discount code has already been used").
				Mark(ierr.ErrUsageExhausted)
		}
	}
	return nil
}

func (s *orderService) buildOrder(ctx context.Context, req *dto.SubmitOrderRequest, verified *dto.VerifiedOrder, status types.OrderStatus) (*order.Order, error) {
	orderNumber, err := s.OrderNumberGen.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER),
		OrderNumber:  orderNumber,
		CustomerID:   req.CustomerID,
		OrderStatus:  status,
		ShippingCost: req.ShippingCost,
		TaxTotal:     req.TaxTotal,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	s.applyVerified(o, verified)
	return o, nil
}

// applyVerified fills the order's totals and lines from validator output.
// Only verified amounts ever reach persistence.
func (s *orderService) applyVerified(o *order.Order, verified *dto.VerifiedOrder) {
	o.Subtotal = verified.Subtotal
	o.DiscountTotal = verified.DiscountTotal
	o.AppliedDiscountIDs = verified.AppliedDiscountIDs
	if verified.FreeShipping {
		o.ShippingCost = decimal.Zero
	}

	o.Lines = make([]*order.Line, len(verified.Lines))
	for i, line := range verified.Lines {
		o.Lines[i] = &order.Line{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER_LINE),
			OrderID:        o.ID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			UnitPrice:      line.UnitPrice,
			Quantity:       line.Quantity,
			LineTotal:      line.LineTotal,
			DiscountAmount: line.DiscountAmount,
			IsGift:         line.IsGift,
		}
	}

	o.Total = o.GrandTotal()
}

// draftToRequest rebuilds a submission from a stored draft so it can be
// re-validated with current reference data. Code-based discounts applied
// to the draft are resubmitted as codes.
func (s *orderService) draftToRequest(ctx context.Context, draft *order.Order) (*dto.SubmitOrderRequest, error) {
	lines := make([]dto.SubmitOrderLine, len(draft.Lines))
	for i, line := range draft.Lines {
		lines[i] = dto.SubmitOrderLine{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}

	codes := make([]string, 0, len(draft.AppliedDiscountIDs))
	if len(draft.AppliedDiscountIDs) > 0 {
		discounts, err := s.DiscountRepo.GetBatch(ctx, draft.AppliedDiscountIDs)
		if err != nil {
			return nil, err
		}
		for _, d := range discounts {
			if d.Method == types.DiscountMethodCode {
				codes = append(codes, d.Code)
			}
		}
	}

	return &dto.SubmitOrderRequest{
		CustomerID:    draft.CustomerID,
		Lines:         lines,
		DiscountCodes: codes,
		Subtotal:      draft.Subtotal,
		DiscountTotal: draft.DiscountTotal,
		ShippingCost:  draft.ShippingCost,
		TaxTotal:      draft.TaxTotal,
	}, nil
}
