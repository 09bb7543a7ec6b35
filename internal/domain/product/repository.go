package product

import (
	"context"
)

// Repository defines the interface for catalog data the pricing engine
// consumes: authoritative prices, stock and category memberships.
type Repository interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetVariant(ctx context.Context, id string) (*Variant, error)
	// GetCategoryIDs returns the ids of the categories (collections) the
	// product belongs to. Used for collection-scoped discount resolution.
	GetCategoryIDs(ctx context.Context, productID string) ([]string, error)
}
