package customer

import (
	"context"
)

// Repository defines the interface for customer data the pricing engine
// consumes: identity and group memberships for discount eligibility.
type Repository interface {
	Get(ctx context.Context, id string) (*Customer, error)
	// GetGroupIDs returns the ids of the customer groups the customer
	// belongs to. Returns an empty slice for unknown customers.
	GetGroupIDs(ctx context.Context, customerID string) ([]string, error)
}
