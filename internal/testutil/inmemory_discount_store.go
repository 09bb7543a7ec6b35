package testutil

import (
	"context"
	"sort"

	"github.com/storelane/storelane/internal/domain/discount"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/types"
)

// InMemoryDiscountStore implements discount.Repository
type InMemoryDiscountStore struct {
	*InMemoryStore[*discount.Discount]
}

func NewInMemoryDiscountStore() *InMemoryDiscountStore {
	return &InMemoryDiscountStore{
		InMemoryStore: NewInMemoryStore[*discount.Discount](),
	}
}

func (s *InMemoryDiscountStore) Create(ctx context.Context, d *discount.Discount) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.Code = discount.NormalizeCode(d.Code)
	return s.InMemoryStore.Create(ctx, d.ID, d)
}

func (s *InMemoryDiscountStore) Get(ctx context.Context, id string) (*discount.Discount, error) {
	d, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewErrorf("discount %s not found", id).
			WithHint("The discount does not exist").
			Mark(ierr.ErrNotFound)
	}
	return d, nil
}

func (s *InMemoryDiscountStore) GetBatch(ctx context.Context, ids []string) ([]*discount.Discount, error) {
	discounts := make([]*discount.Discount, 0, len(ids))
	for _, id := range ids {
		d, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		discounts = append(discounts, d)
	}
	return discounts, nil
}

func (s *InMemoryDiscountStore) GetByCode(ctx context.Context, code string) (*discount.Discount, error) {
	code = discount.NormalizeCode(code)
	discounts, _ := s.List(ctx, nil, func(_ context.Context, d *discount.Discount, _ interface{}) bool {
		return d.Method == types.DiscountMethodCode &&
			d.Code == code &&
			d.Status != types.StatusDeleted
	}, nil)
	if len(discounts) == 0 {
		return nil, ierr.NewErrorf("discount code %s not found", code).
			WithHint("The discount code does not exist").
			Mark(ierr.ErrNotFound)
	}
	return discounts[0], nil
}

func (s *InMemoryDiscountStore) ListAutomatic(ctx context.Context) ([]*discount.Discount, error) {
	discounts, _ := s.List(ctx, nil, func(_ context.Context, d *discount.Discount, _ interface{}) bool {
		return d.Method == types.DiscountMethodAutomatic &&
			d.Status == types.StatusPublished
	}, nil)
	sort.Slice(discounts, func(i, j int) bool {
		if discounts[i].Priority != discounts[j].Priority {
			return discounts[i].Priority > discounts[j].Priority
		}
		return discounts[i].ID < discounts[j].ID
	})
	return discounts, nil
}

func (s *InMemoryDiscountStore) Update(ctx context.Context, d *discount.Discount) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.Code = discount.NormalizeCode(d.Code)
	if err := s.InMemoryStore.Update(ctx, d.ID, d); err != nil {
		return ierr.NewErrorf("discount %s not found", d.ID).
			WithHint("The discount does not exist").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryDiscountStore) Delete(ctx context.Context, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	d.Status = types.StatusDeleted
	return s.InMemoryStore.Update(ctx, id, d)
}
