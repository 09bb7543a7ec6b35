package testutil

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/storelane/storelane/internal/domain/order"
	ierr "github.com/storelane/storelane/internal/errors"
)

// InMemoryOrderStore implements order.Repository
type InMemoryOrderStore struct {
	*InMemoryStore[*order.Order]
}

func NewInMemoryOrderStore() *InMemoryOrderStore {
	return &InMemoryOrderStore{
		InMemoryStore: NewInMemoryStore[*order.Order](),
	}
}

func (s *InMemoryOrderStore) Create(ctx context.Context, o *order.Order) error {
	if err := s.InMemoryStore.Create(ctx, o.ID, o); err != nil {
		return ierr.NewErrorf("order %s already exists", o.ID).
			WithHint("An order with this id already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryOrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewErrorf("order %s not found", id).
			WithHint("The order does not exist").
			Mark(ierr.ErrNotFound)
	}
	return o, nil
}

func (s *InMemoryOrderStore) GetByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	orders, _ := s.List(ctx, nil, func(_ context.Context, o *order.Order, _ interface{}) bool {
		return o.OrderNumber == orderNumber
	}, nil)
	if len(orders) == 0 {
		return nil, ierr.NewErrorf("order %s not found", orderNumber).
			WithHint("The order does not exist").
			Mark(ierr.ErrNotFound)
	}
	return orders[0], nil
}

func (s *InMemoryOrderStore) Update(ctx context.Context, o *order.Order) error {
	if err := s.InMemoryStore.Update(ctx, o.ID, o); err != nil {
		return ierr.NewErrorf("order %s not found", o.ID).
			WithHint("The order does not exist").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// SequentialNumberGenerator allocates deterministic order numbers for tests
type SequentialNumberGenerator struct {
	counter atomic.Int64
}

func NewSequentialNumberGenerator() *SequentialNumberGenerator {
	return &SequentialNumberGenerator{}
}

func (g *SequentialNumberGenerator) NextOrderNumber(_ context.Context) (string, error) {
	return fmt.Sprintf("OR-%04d", g.counter.Add(1)), nil
}
