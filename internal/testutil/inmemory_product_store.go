package testutil

import (
	"context"
	"sync"

	"github.com/storelane/storelane/internal/domain/product"
	ierr "github.com/storelane/storelane/internal/errors"
)

// InMemoryProductStore implements product.Repository
type InMemoryProductStore struct {
	products *InMemoryStore[*product.Product]
	variants *InMemoryStore[*product.Variant]

	mu         sync.RWMutex
	categories map[string][]string // product id -> category ids
}

func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{
		products:   NewInMemoryStore[*product.Product](),
		variants:   NewInMemoryStore[*product.Variant](),
		categories: make(map[string][]string),
	}
}

// AddProduct seeds a product into the store
func (s *InMemoryProductStore) AddProduct(ctx context.Context, p *product.Product) error {
	return s.products.Create(ctx, p.ID, p)
}

// AddVariant seeds a product variant into the store
func (s *InMemoryProductStore) AddVariant(ctx context.Context, v *product.Variant) error {
	return s.variants.Create(ctx, v.ID, v)
}

// SetCategories assigns the product's category memberships
func (s *InMemoryProductStore) SetCategories(productID string, categoryIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[productID] = categoryIDs
}

func (s *InMemoryProductStore) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewErrorf("product %s not found", id).
			WithHint("The product does not exist").
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryProductStore) GetVariant(ctx context.Context, id string) (*product.Variant, error) {
	v, err := s.variants.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewErrorf("variant %s not found", id).
			WithHint("The product variant does not exist").
			Mark(ierr.ErrNotFound)
	}
	return v, nil
}

func (s *InMemoryProductStore) GetCategoryIDs(ctx context.Context, productID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.categories[productID]
	if ids == nil {
		return []string{}, nil
	}
	return ids, nil
}

func (s *InMemoryProductStore) Clear() {
	s.products.Clear()
	s.variants.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = make(map[string][]string)
}
