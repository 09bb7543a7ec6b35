package testutil

import (
	"context"
	"time"

	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/domain/customer"
	"github.com/storelane/storelane/internal/domain/discount"
	"github.com/storelane/storelane/internal/domain/discountusage"
	"github.com/storelane/storelane/internal/domain/order"
	"github.com/storelane/storelane/internal/domain/product"
	"github.com/storelane/storelane/internal/domain/tax"
	"github.com/storelane/storelane/internal/logger"
	"github.com/storelane/storelane/internal/postgres"
	"github.com/storelane/storelane/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	DiscountRepo      discount.Repository
	DiscountUsageRepo discountusage.Repository
	ProductRepo       product.Repository
	CustomerRepo      customer.Repository
	TaxRepo           tax.Repository
	OrderRepo         order.Repository
	OrderNumberGen    order.NumberGenerator
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     postgres.IClient
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		DiscountRepo:      NewInMemoryDiscountStore(),
		DiscountUsageRepo: NewInMemoryDiscountUsageStore(),
		ProductRepo:       NewInMemoryProductStore(),
		CustomerRepo:      NewInMemoryCustomerStore(),
		TaxRepo:           NewInMemoryTaxStore(),
		OrderRepo:         NewInMemoryOrderStore(),
		OrderNumberGen:    NewSequentialNumberGenerator(),
	}

	s.db = NewMockPostgresClient(s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.DiscountRepo.(*InMemoryDiscountStore).Clear()
	s.stores.DiscountUsageRepo.(*InMemoryDiscountUsageStore).Clear()
	s.stores.ProductRepo.(*InMemoryProductStore).Clear()
	s.stores.CustomerRepo.(*InMemoryCustomerStore).Clear()
	s.stores.TaxRepo.(*InMemoryTaxStore).Clear()
	s.stores.OrderRepo.(*InMemoryOrderStore).Clear()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// SetContextCustomer scopes the test context to the given customer
func (s *BaseServiceTestSuite) SetContextCustomer(customerID string) {
	s.ctx = context.WithValue(s.ctx, types.CtxCustomerID, customerID)
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the mock postgres client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current time for the test
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
