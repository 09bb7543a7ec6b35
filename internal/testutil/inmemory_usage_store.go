package testutil

import (
	"context"
	"sync"

	"github.com/storelane/storelane/internal/domain/discount"
	"github.com/storelane/storelane/internal/domain/discountusage"
)

// InMemoryDiscountUsageStore implements discountusage.Repository. A single
// mutex stands in for the database row locks: TryConsume checks and
// increments under the same lock, so concurrent consumers of a discount
// with usage_limit=1 can never both succeed.
type InMemoryDiscountUsageStore struct {
	mu sync.Mutex
	// counters keyed by discount id, then customer id ("" for anonymous)
	counters map[string]map[string]int
}

func NewInMemoryDiscountUsageStore() *InMemoryDiscountUsageStore {
	return &InMemoryDiscountUsageStore{
		counters: make(map[string]map[string]int),
	}
}

func (s *InMemoryDiscountUsageStore) GetForUpdate(_ context.Context, discountID string, customerID string) (*discountusage.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsLocked(discountID, customerID), nil
}

func (s *InMemoryDiscountUsageStore) Increment(_ context.Context, discountID string, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incrementLocked(discountID, customerID)
	return nil
}

func (s *InMemoryDiscountUsageStore) TryConsume(_ context.Context, d *discount.Discount, customerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := s.countsLocked(d.ID, customerID)
	if !discountusage.WithinLimits(d, counts) {
		return false, nil
	}
	s.incrementLocked(d.ID, customerID)
	return true, nil
}

func (s *InMemoryDiscountUsageStore) countsLocked(discountID string, customerID string) *discountusage.Counts {
	counts := &discountusage.Counts{}
	for customer, count := range s.counters[discountID] {
		counts.Total += count
		if customerID != "" && customer == customerID {
			counts.ForCustomer += count
		}
	}
	return counts
}

func (s *InMemoryDiscountUsageStore) incrementLocked(discountID string, customerID string) {
	if s.counters[discountID] == nil {
		s.counters[discountID] = make(map[string]int)
	}
	s.counters[discountID][customerID]++
}

// TotalUsage returns the global usage count for a discount
func (s *InMemoryDiscountUsageStore) TotalUsage(discountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsLocked(discountID, "").Total
}

func (s *InMemoryDiscountUsageStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = make(map[string]map[string]int)
}
