package discount

import (
	"context"
)

// Repository defines the interface for discount data access
type Repository interface {
	Create(ctx context.Context, discount *Discount) error
	Get(ctx context.Context, id string) (*Discount, error)
	GetBatch(ctx context.Context, ids []string) ([]*Discount, error)
	// GetByCode resolves a manual discount by its normalized code.
	GetByCode(ctx context.Context, code string) (*Discount, error)
	// ListAutomatic returns all published automatic discounts ordered by
	// priority descending.
	ListAutomatic(ctx context.Context) ([]*Discount, error)
	Update(ctx context.Context, discount *Discount) error
	Delete(ctx context.Context, id string) error
}
