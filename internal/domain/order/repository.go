package order

import (
	"context"
)

// Repository defines the interface for order persistence. Line persistence
// is delegated here too: Create stores the order together with its lines.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	Update(ctx context.Context, order *Order) error
}

// NumberGenerator allocates human-facing order numbers. Kept narrow so the
// sequencing strategy can change without touching order creation.
type NumberGenerator interface {
	NextOrderNumber(ctx context.Context) (string, error)
}
