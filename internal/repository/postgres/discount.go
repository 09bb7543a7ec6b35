package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/storelane/storelane/internal/cache"
	"github.com/storelane/storelane/internal/domain/discount"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/logger"
	pg "github.com/storelane/storelane/internal/postgres"
	"github.com/storelane/storelane/internal/types"
)

type discountRepository struct {
	db     pg.IClient
	logger *logger.Logger
	cache  cache.Cache
}

// NewDiscountRepository creates a postgres-backed discount repository.
// Reference reads (by code, automatic list) are cached; writes invalidate.
func NewDiscountRepository(db pg.IClient, logger *logger.Logger, cache cache.Cache) discount.Repository {
	return &discountRepository{
		db:     db,
		logger: logger,
		cache:  cache,
	}
}

// discountRow adds array column mappings on top of the domain model.
type discountRow struct {
	discount.Discount
	ProductIDsArr    pq.StringArray `db:"product_ids"`
	CollectionIDsArr pq.StringArray `db:"collection_ids"`
	GroupIDsArr      pq.StringArray `db:"customer_group_ids"`
	CustomerIDsArr   pq.StringArray `db:"customer_ids"`
}

func (r *discountRow) toModel() *discount.Discount {
	d := r.Discount
	d.ProductIDs = []string(r.ProductIDsArr)
	d.CollectionIDs = []string(r.CollectionIDsArr)
	d.CustomerGroupIDs = []string(r.GroupIDsArr)
	d.CustomerIDs = []string(r.CustomerIDsArr)
	return &d
}

func discountToRow(d *discount.Discount) *discountRow {
	return &discountRow{
		Discount:         *d,
		ProductIDsArr:    pq.StringArray(d.ProductIDs),
		CollectionIDsArr: pq.StringArray(d.CollectionIDs),
		GroupIDsArr:      pq.StringArray(d.CustomerGroupIDs),
		CustomerIDsArr:   pq.StringArray(d.CustomerIDs),
	}
}

const discountColumns = `
	id, code, name, description, method, type, value_type, value,
	buy_quantity, get_quantity, product_scope, product_ids, collection_ids,
	customer_selection, customer_group_ids, customer_ids,
	min_subtotal, min_quantity, priority, usage_limit, usage_limit_per_customer,
	starts_at, ends_at, is_active,
	combines_with_product_discounts, combines_with_order_discounts, combines_with_shipping_discounts,
	shop_id, status, created_at, updated_at, created_by, updated_by`

func (r *discountRepository) Create(ctx context.Context, d *discount.Discount) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.Code = discount.NormalizeCode(d.Code)

	query := `
		INSERT INTO discounts (` + discountColumns + `)
		VALUES (
			:id, :code, :name, :description, :method, :type, :value_type, :value,
			:buy_quantity, :get_quantity, :product_scope, :product_ids, :collection_ids,
			:customer_selection, :customer_group_ids, :customer_ids,
			:min_subtotal, :min_quantity, :priority, :usage_limit, :usage_limit_per_customer,
			:starts_at, :ends_at, :is_active,
			:combines_with_product_discounts, :combines_with_order_discounts, :combines_with_shipping_discounts,
			:shop_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.GetQuerier(ctx).NamedExec(query, discountToRow(d)); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A discount with this code already exists").
				WithReportableDetails(map[string]any{"code": d.Code}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create discount").
			Mark(ierr.ErrDatabase)
	}

	r.invalidate(ctx, d)
	return nil
}

func (r *discountRepository) Get(ctx context.Context, id string) (*discount.Discount, error) {
	var row discountRow
	query := `
		SELECT ` + discountColumns + `
		FROM discounts
		WHERE id = $1 AND shop_id = $2 AND status != $3`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query,
		id, types.GetShopID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("discount %s not found", id).
				WithHint("The discount does not exist").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get discount").
			Mark(ierr.ErrDatabase)
	}
	return row.toModel(), nil
}

func (r *discountRepository) GetBatch(ctx context.Context, ids []string) ([]*discount.Discount, error) {
	if len(ids) == 0 {
		return []*discount.Discount{}, nil
	}

	var rows []discountRow
	query := `
		SELECT ` + discountColumns + `
		FROM discounts
		WHERE id = ANY($1) AND shop_id = $2 AND status != $3`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, query,
		pq.StringArray(ids), types.GetShopID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get discounts").
			Mark(ierr.ErrDatabase)
	}

	discounts := make([]*discount.Discount, len(rows))
	for i := range rows {
		discounts[i] = rows[i].toModel()
	}
	return discounts, nil
}

func (r *discountRepository) GetByCode(ctx context.Context, code string) (*discount.Discount, error) {
	code = discount.NormalizeCode(code)
	cacheKey := cache.GenerateKey(cache.PrefixDiscount, types.GetShopID(ctx), "code", code)
	if cached, ok := r.cache.Get(ctx, cacheKey); ok {
		if d, ok := cached.(*discount.Discount); ok {
			return d, nil
		}
	}

	var row discountRow
	query := `
		SELECT ` + discountColumns + `
		FROM discounts
		WHERE code = $1 AND method = $2 AND shop_id = $3 AND status != $4`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query,
		code, types.DiscountMethodCode, types.GetShopID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("discount code %s not found", code).
				WithHint("The discount code does not exist").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get discount by code").
			Mark(ierr.ErrDatabase)
	}

	d := row.toModel()
	r.cache.Set(ctx, cacheKey, d, cache.DefaultExpiration)
	return d, nil
}

func (r *discountRepository) ListAutomatic(ctx context.Context) ([]*discount.Discount, error) {
	cacheKey := cache.GenerateKey(cache.PrefixAutomaticDiscounts, types.GetShopID(ctx))
	if cached, ok := r.cache.Get(ctx, cacheKey); ok {
		if discounts, ok := cached.([]*discount.Discount); ok {
			return discounts, nil
		}
	}

	var rows []discountRow
	query := `
		SELECT ` + discountColumns + `
		FROM discounts
		WHERE method = $1 AND shop_id = $2 AND status = $3
		ORDER BY priority DESC, id ASC`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, query,
		types.DiscountMethodAutomatic, types.GetShopID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list automatic discounts").
			Mark(ierr.ErrDatabase)
	}

	discounts := make([]*discount.Discount, len(rows))
	for i := range rows {
		discounts[i] = rows[i].toModel()
	}

	r.cache.Set(ctx, cacheKey, discounts, cache.DefaultExpiration)
	return discounts, nil
}

func (r *discountRepository) Update(ctx context.Context, d *discount.Discount) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.Code = discount.NormalizeCode(d.Code)

	query := `
		UPDATE discounts SET
			code = :code, name = :name, description = :description,
			method = :method, type = :type, value_type = :value_type, value = :value,
			buy_quantity = :buy_quantity, get_quantity = :get_quantity,
			product_scope = :product_scope, product_ids = :product_ids, collection_ids = :collection_ids,
			customer_selection = :customer_selection, customer_group_ids = :customer_group_ids, customer_ids = :customer_ids,
			min_subtotal = :min_subtotal, min_quantity = :min_quantity, priority = :priority,
			usage_limit = :usage_limit, usage_limit_per_customer = :usage_limit_per_customer,
			starts_at = :starts_at, ends_at = :ends_at, is_active = :is_active,
			combines_with_product_discounts = :combines_with_product_discounts,
			combines_with_order_discounts = :combines_with_order_discounts,
			combines_with_shipping_discounts = :combines_with_shipping_discounts,
			status = :status, updated_at = :updated_at, updated_by = :updated_by
		WHERE id = :id AND shop_id = :shop_id`

	result, err := r.db.GetQuerier(ctx).NamedExec(query, discountToRow(d))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update discount").
			Mark(ierr.ErrDatabase)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ierr.NewErrorf("discount %s not found", d.ID).
			WithHint("The discount does not exist").
			Mark(ierr.ErrNotFound)
	}

	r.invalidate(ctx, d)
	return nil
}

func (r *discountRepository) Delete(ctx context.Context, id string) error {
	d, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	query := `
		UPDATE discounts SET status = $1, updated_at = NOW()
		WHERE id = $2 AND shop_id = $3`

	if _, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		types.StatusDeleted, id, types.GetShopID(ctx)); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete discount").
			Mark(ierr.ErrDatabase)
	}

	r.invalidate(ctx, d)
	return nil
}

func (r *discountRepository) invalidate(ctx context.Context, d *discount.Discount) {
	shopID := types.GetShopID(ctx)
	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixDiscount, shopID, "code", d.Code))
	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixAutomaticDiscounts, shopID))
}
