package postgres

import (
	"context"

	"github.com/storelane/storelane/internal/domain/discount"
	"github.com/storelane/storelane/internal/domain/discountusage"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/logger"
	pg "github.com/storelane/storelane/internal/postgres"
	"github.com/storelane/storelane/internal/types"
)

type discountUsageRepository struct {
	db     pg.IClient
	logger *logger.Logger
}

// NewDiscountUsageRepository creates a postgres-backed discount usage
// repository. Every read locks the counter rows with SELECT ... FOR UPDATE;
// the lock is held by the surrounding transaction until commit, which is
// what makes check-then-increment safe under concurrent checkouts.
func NewDiscountUsageRepository(db pg.IClient, logger *logger.Logger) discountusage.Repository {
	return &discountUsageRepository{
		db:     db,
		logger: logger,
	}
}

func (r *discountUsageRepository) GetForUpdate(ctx context.Context, discountID string, customerID string) (*discountusage.Counts, error) {
	if _, ok := pg.GetTx(ctx); !ok {
		return nil, ierr.NewError("usage counters read outside a transaction").
			WithHint("Discount usage checks must run inside a transaction").
			Mark(ierr.ErrInvalidOperation)
	}

	q := r.db.GetQuerier(ctx)
	shopID := types.GetShopID(ctx)

	// Lock all counter rows for the discount so no concurrent transaction
	// can increment between this read and our own increment.
	var usages []discountusage.Usage
	query := `
		SELECT id, discount_id, customer_id, usage_count, shop_id, created_at, updated_at
		FROM discount_usage
		WHERE discount_id = $1 AND shop_id = $2
		FOR UPDATE`

	if err := q.SelectContext(ctx, &usages, query, discountID, shopID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read discount usage").
			Mark(ierr.ErrDatabase)
	}

	counts := &discountusage.Counts{}
	for _, u := range usages {
		counts.Total += u.UsageCount
		if customerID != "" && u.CustomerID != nil && *u.CustomerID == customerID {
			counts.ForCustomer += u.UsageCount
		}
	}
	return counts, nil
}

func (r *discountUsageRepository) Increment(ctx context.Context, discountID string, customerID string) error {
	if _, ok := pg.GetTx(ctx); !ok {
		return ierr.NewError("usage counters incremented outside a transaction").
			WithHint("Discount usage increments must run inside a transaction").
			Mark(ierr.ErrInvalidOperation)
	}

	q := r.db.GetQuerier(ctx)
	shopID := types.GetShopID(ctx)

	var customer *string
	if customerID != "" {
		customer = &customerID
	}

	// One counter row per (discount, customer) pair; anonymous checkouts
	// share a NULL-customer row. A unique expression index on
	// (discount_id, shop_id, COALESCE(customer_id, '')) backs this upsert.
	query := `
		INSERT INTO discount_usage (id, discount_id, customer_id, usage_count, shop_id, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, NOW(), NOW())
		ON CONFLICT (discount_id, shop_id, COALESCE(customer_id, ''))
		DO UPDATE SET usage_count = discount_usage.usage_count + 1, updated_at = NOW()`

	_, err := q.ExecContext(ctx, query,
		types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT_USAGE),
		discountID, customer, shopID)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record discount usage").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *discountUsageRepository) TryConsume(ctx context.Context, d *discount.Discount, customerID string) (bool, error) {
	// No limits configured: increment unconditionally, no lock needed
	// beyond the row the upsert itself takes.
	if d.UsageLimit == nil && d.UsageLimitPerCustomer == nil {
		return true, r.Increment(ctx, d.ID, customerID)
	}

	counts, err := r.GetForUpdate(ctx, d.ID, customerID)
	if err != nil {
		return false, err
	}
	if !discountusage.WithinLimits(d, counts) {
		r.logger.Debugw("discount usage limit exhausted",
			"discount_id", d.ID,
			"total", counts.Total,
			"for_customer", counts.ForCustomer)
		return false, nil
	}

	if err := r.Increment(ctx, d.ID, customerID); err != nil {
		return false, err
	}
	return true, nil
}
