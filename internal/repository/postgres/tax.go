package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/storelane/storelane/internal/cache"
	"github.com/storelane/storelane/internal/domain/tax"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/logger"
	pg "github.com/storelane/storelane/internal/postgres"
	"github.com/storelane/storelane/internal/types"
)

type taxRepository struct {
	db     pg.IClient
	logger *logger.Logger
	cache  cache.Cache
}

// NewTaxRepository creates a postgres-backed tax reference data repository.
// Zones and rates change rarely, so both list reads are cached.
func NewTaxRepository(db pg.IClient, logger *logger.Logger, cache cache.Cache) tax.Repository {
	return &taxRepository{
		db:     db,
		logger: logger,
		cache:  cache,
	}
}

// taxZoneRow adds array column mappings on top of the domain model.
type taxZoneRow struct {
	tax.Zone
	CountriesArr pq.StringArray `db:"countries"`
	StatesArr    pq.StringArray `db:"states"`
}

func (r *taxZoneRow) toModel() *tax.Zone {
	z := r.Zone
	z.Countries = []string(r.CountriesArr)
	z.States = []string(r.StatesArr)
	return &z
}

const taxZoneColumns = `
	id, name, countries, states, priority,
	shop_id, status, created_at, updated_at, created_by, updated_by`

func (r *taxRepository) GetZone(ctx context.Context, id string) (*tax.Zone, error) {
	var row taxZoneRow
	query := `
		SELECT ` + taxZoneColumns + `
		FROM tax_zones
		WHERE id = $1 AND shop_id = $2 AND status != $3`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query,
		id, types.GetShopID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("tax zone %s not found", id).
				WithHint("The tax zone does not exist").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get tax zone").
			Mark(ierr.ErrDatabase)
	}
	return row.toModel(), nil
}

func (r *taxRepository) ListZones(ctx context.Context) ([]*tax.Zone, error) {
	cacheKey := cache.GenerateKey(cache.PrefixTaxZone, types.GetShopID(ctx), "zones")
	if cached, ok := r.cache.Get(ctx, cacheKey); ok {
		if zones, ok := cached.([]*tax.Zone); ok {
			return zones, nil
		}
	}

	var rows []taxZoneRow
	query := `
		SELECT ` + taxZoneColumns + `
		FROM tax_zones
		WHERE shop_id = $1 AND status = $2
		ORDER BY priority DESC, id ASC`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, query,
		types.GetShopID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list tax zones").
			Mark(ierr.ErrDatabase)
	}

	zones := make([]*tax.Zone, len(rows))
	for i := range rows {
		zones[i] = rows[i].toModel()
	}

	r.cache.Set(ctx, cacheKey, zones, cache.DefaultExpiration)
	return zones, nil
}

func (r *taxRepository) ListRates(ctx context.Context, zoneID string) ([]*tax.Rate, error) {
	cacheKey := cache.GenerateKey(cache.PrefixTaxZone, types.GetShopID(ctx), "rates", zoneID)
	if cached, ok := r.cache.Get(ctx, cacheKey); ok {
		if rates, ok := cached.([]*tax.Rate); ok {
			return rates, nil
		}
	}

	var rates []*tax.Rate
	query := `
		SELECT id, zone_id, name, rate, type, compound, shipping_taxable, priority,
			shop_id, status, created_at, updated_at, created_by, updated_by
		FROM tax_rates
		WHERE zone_id = $1 AND shop_id = $2 AND status = $3
		ORDER BY priority ASC, id ASC`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rates, query,
		zoneID, types.GetShopID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list tax rates").
			Mark(ierr.ErrDatabase)
	}

	r.cache.Set(ctx, cacheKey, rates, cache.DefaultExpiration)
	return rates, nil
}
