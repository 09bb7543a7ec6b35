package discountusage

import (
	"context"

	"github.com/storelane/storelane/internal/domain/discount"
)

// Repository defines the interface for discount usage counters. The locking
// discipline lives behind this interface so call sites cannot get it wrong:
// every read acquires a row lock that the enclosing transaction holds until
// commit or rollback. Implementations must be called inside a transaction.
type Repository interface {
	// GetForUpdate returns the usage counts for a discount, locking the
	// counter rows for the remainder of the transaction. customerID may be
	// empty for anonymous checkouts, in which case ForCustomer is zero.
	GetForUpdate(ctx context.Context, discountID string, customerID string) (*Counts, error)

	// Increment records one consumption of the discount for the customer.
	// Must be called in the same transaction that commits the order.
	Increment(ctx context.Context, discountID string, customerID string) error

	// TryConsume atomically checks the discount's usage limits under a row
	// lock and increments the counters when within limits. Returns false,
	// without incrementing, when either limit is exhausted.
	TryConsume(ctx context.Context, d *discount.Discount, customerID string) (bool, error)
}

// WithinLimits reports whether the locked counts leave room for one more
// consumption under the discount's configured limits.
func WithinLimits(d *discount.Discount, counts *Counts) bool {
	if d.UsageLimit != nil && counts.Total >= *d.UsageLimit {
		return false
	}
	if d.UsageLimitPerCustomer != nil && counts.ForCustomer >= *d.UsageLimitPerCustomer {
		return false
	}
	return true
}
