package tax

import (
	"context"
)

// Repository defines the interface for tax zone and rate reference data.
type Repository interface {
	GetZone(ctx context.Context, id string) (*Zone, error)
	// ListZones returns all published tax zones.
	ListZones(ctx context.Context) ([]*Zone, error)
	// ListRates returns the zone's published rates ordered by priority
	// ascending.
	ListRates(ctx context.Context, zoneID string) ([]*Rate, error)
}
