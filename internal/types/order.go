package types

import (
	"slices"

	ierr "github.com/storelane/storelane/internal/errors"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	// OrderStatusDraft is a persisted but unconfirmed order; no discount
	// usage has been consumed for it
	OrderStatusDraft OrderStatus = "draft"
	// OrderStatusConfirmed is a validated order whose discount usage
	// counters were incremented in the committing transaction
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusCancelled is a cancelled order
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) Validate() error {
	allowedValues := []string{
		OrderStatusDraft.String(),
		OrderStatusConfirmed.String(),
		OrderStatusCancelled.String(),
	}
	if !slices.Contains(allowedValues, string(s)) {
		return ierr.NewError("invalid order status").
			WithHint("Order status must be one of draft, confirmed or cancelled").
			Mark(ierr.ErrValidation)
	}
	return nil
}
