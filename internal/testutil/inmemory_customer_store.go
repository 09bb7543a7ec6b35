package testutil

import (
	"context"
	"sync"

	"github.com/storelane/storelane/internal/domain/customer"
	ierr "github.com/storelane/storelane/internal/errors"
)

// InMemoryCustomerStore implements customer.Repository
type InMemoryCustomerStore struct {
	*InMemoryStore[*customer.Customer]

	mu     sync.RWMutex
	groups map[string][]string // customer id -> group ids
}

func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		InMemoryStore: NewInMemoryStore[*customer.Customer](),
		groups:        make(map[string][]string),
	}
}

// AddCustomer seeds a customer into the store
func (s *InMemoryCustomerStore) AddCustomer(ctx context.Context, c *customer.Customer) error {
	return s.InMemoryStore.Create(ctx, c.ID, c)
}

// SetGroups assigns the customer's group memberships
func (s *InMemoryCustomerStore) SetGroups(customerID string, groupIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[customerID] = groupIDs
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewErrorf("customer %s not found", id).
			WithHint("The customer does not exist").
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryCustomerStore) GetGroupIDs(ctx context.Context, customerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.groups[customerID]
	if ids == nil {
		return []string{}, nil
	}
	return ids, nil
}

func (s *InMemoryCustomerStore) Clear() {
	s.InMemoryStore.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = make(map[string][]string)
}
