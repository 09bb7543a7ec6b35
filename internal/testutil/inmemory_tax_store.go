package testutil

import (
	"context"
	"sort"

	"github.com/storelane/storelane/internal/domain/tax"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/types"
)

// InMemoryTaxStore implements tax.Repository
type InMemoryTaxStore struct {
	zones *InMemoryStore[*tax.Zone]
	rates *InMemoryStore[*tax.Rate]
}

func NewInMemoryTaxStore() *InMemoryTaxStore {
	return &InMemoryTaxStore{
		zones: NewInMemoryStore[*tax.Zone](),
		rates: NewInMemoryStore[*tax.Rate](),
	}
}

// AddZone seeds a tax zone into the store
func (s *InMemoryTaxStore) AddZone(ctx context.Context, z *tax.Zone) error {
	return s.zones.Create(ctx, z.ID, z)
}

// AddRate seeds a tax rate into the store
func (s *InMemoryTaxStore) AddRate(ctx context.Context, r *tax.Rate) error {
	return s.rates.Create(ctx, r.ID, r)
}

func (s *InMemoryTaxStore) GetZone(ctx context.Context, id string) (*tax.Zone, error) {
	z, err := s.zones.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewErrorf("tax zone %s not found", id).
			WithHint("The tax zone does not exist").
			Mark(ierr.ErrNotFound)
	}
	return z, nil
}

func (s *InMemoryTaxStore) ListZones(ctx context.Context) ([]*tax.Zone, error) {
	zones, _ := s.zones.List(ctx, nil, func(_ context.Context, z *tax.Zone, _ interface{}) bool {
		return z.Status == types.StatusPublished
	}, nil)
	sort.Slice(zones, func(i, j int) bool {
		if zones[i].Priority != zones[j].Priority {
			return zones[i].Priority > zones[j].Priority
		}
		return zones[i].ID < zones[j].ID
	})
	return zones, nil
}

func (s *InMemoryTaxStore) ListRates(ctx context.Context, zoneID string) ([]*tax.Rate, error) {
	rates, _ := s.rates.List(ctx, nil, func(_ context.Context, r *tax.Rate, _ interface{}) bool {
		return r.ZoneID == zoneID && r.Status == types.StatusPublished
	}, nil)
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].Priority != rates[j].Priority {
			return rates[i].Priority < rates[j].Priority
		}
		return rates[i].ID < rates[j].ID
	})
	return rates, nil
}

func (s *InMemoryTaxStore) Clear() {
	s.zones.Clear()
	s.rates.Clear()
}
