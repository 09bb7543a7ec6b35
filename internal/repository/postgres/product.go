package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/storelane/storelane/internal/cache"
	"github.com/storelane/storelane/internal/domain/product"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/logger"
	pg "github.com/storelane/storelane/internal/postgres"
	"github.com/storelane/storelane/internal/types"
)

type productRepository struct {
	db     pg.IClient
	logger *logger.Logger
	cache  cache.Cache
}

// NewProductRepository creates a postgres-backed product repository.
// Prices and stock are read fresh on every call; only the slow-moving
// category memberships are cached.
func NewProductRepository(db pg.IClient, logger *logger.Logger, cache cache.Cache) product.Repository {
	return &productRepository{
		db:     db,
		logger: logger,
		cache:  cache,
	}
}

const productColumns = `
	id, name, sku, price, track_stock, stock_quantity,
	shop_id, status, created_at, updated_at, created_by, updated_by`

func (r *productRepository) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND shop_id = $2 AND status = $3`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query,
		id, types.GetShopID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("product %s not found", id).
				WithHint("The product does not exist").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get product").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *productRepository) GetVariant(ctx context.Context, id string) (*product.Variant, error) {
	var v product.Variant
	query := `
		SELECT id, product_id, name, sku, price, track_stock, stock_quantity,
			shop_id, status, created_at, updated_at, created_by, updated_by
		FROM product_variants
		WHERE id = $1 AND shop_id = $2 AND status = $3`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &v, query,
		id, types.GetShopID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("variant %s not found", id).
				WithHint("The product variant does not exist").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get product variant").
			Mark(ierr.ErrDatabase)
	}
	return &v, nil
}

func (r *productRepository) GetCategoryIDs(ctx context.Context, productID string) ([]string, error) {
	cacheKey := cache.GenerateKey(cache.PrefixProduct, types.GetShopID(ctx), "categories", productID)
	if cached, ok := r.cache.Get(ctx, cacheKey); ok {
		if ids, ok := cached.([]string); ok {
			return ids, nil
		}
	}

	var ids []string
	query := `
		SELECT category_id
		FROM product_categories
		WHERE product_id = $1 AND shop_id = $2`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &ids, query,
		productID, types.GetShopID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get product categories").
			Mark(ierr.ErrDatabase)
	}
	if ids == nil {
		ids = []string{}
	}

	r.cache.Set(ctx, cacheKey, ids, cache.DefaultExpiration)
	return ids, nil
}
