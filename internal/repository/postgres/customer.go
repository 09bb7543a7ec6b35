package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/storelane/storelane/internal/cache"
	"github.com/storelane/storelane/internal/domain/customer"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/logger"
	pg "github.com/storelane/storelane/internal/postgres"
	"github.com/storelane/storelane/internal/types"
)

type customerRepository struct {
	db     pg.IClient
	logger *logger.Logger
	cache  cache.Cache
}

// NewCustomerRepository creates a postgres-backed customer repository.
func NewCustomerRepository(db pg.IClient, logger *logger.Logger, cache cache.Cache) customer.Repository {
	return &customerRepository{
		db:     db,
		logger: logger,
		cache:  cache,
	}
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	var c customer.Customer
	query := `
		SELECT id, email, name, shop_id, status, created_at, updated_at, created_by, updated_by
		FROM customers
		WHERE id = $1 AND shop_id = $2 AND status != $3`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query,
		id, types.GetShopID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("customer %s not found", id).
				WithHint("The customer does not exist").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *customerRepository) GetGroupIDs(ctx context.Context, customerID string) ([]string, error) {
	cacheKey := cache.GenerateKey(cache.PrefixCustomer, types.GetShopID(ctx), "groups", customerID)
	if cached, ok := r.cache.Get(ctx, cacheKey); ok {
		if ids, ok := cached.([]string); ok {
			return ids, nil
		}
	}

	var ids []string
	query := `
		SELECT group_id
		FROM customer_group_members
		WHERE customer_id = $1 AND shop_id = $2`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &ids, query,
		customerID, types.GetShopID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get customer groups").
			Mark(ierr.ErrDatabase)
	}
	if ids == nil {
		ids = []string{}
	}

	r.cache.Set(ctx, cacheKey, ids, cache.DefaultExpiration)
	return ids, nil
}
