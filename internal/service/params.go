package service

import (
	"github.com/storelane/storelane/internal/cache"
	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/domain/customer"
	"github.com/storelane/storelane/internal/domain/discount"
	"github.com/storelane/storelane/internal/domain/discountusage"
	"github.com/storelane/storelane/internal/domain/order"
	"github.com/storelane/storelane/internal/domain/product"
	"github.com/storelane/storelane/internal/domain/tax"
	"github.com/storelane/storelane/internal/logger"
	"github.com/storelane/storelane/internal/postgres"
	"github.com/storelane/storelane/internal/repository"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	DiscountRepo      discount.Repository
	DiscountUsageRepo discountusage.Repository
	ProductRepo       product.Repository
	CustomerRepo      customer.Repository
	TaxRepo           tax.Repository
	OrderRepo         order.Repository

	// OrderNumberGen allocates human-facing order numbers
	OrderNumberGen order.NumberGenerator
}

// NewServiceParams assembles the production dependency set on top of the
// postgres-backed repositories. Tests substitute in-memory stores instead.
func NewServiceParams(
	cfg *config.Configuration,
	log *logger.Logger,
	db postgres.IClient,
	cacheClient cache.Cache,
) ServiceParams {
	repoParams := repository.Params{
		DB:     db,
		Logger: log,
		Cache:  cacheClient,
	}

	return ServiceParams{
		Logger:            log,
		Config:            cfg,
		DB:                db,
		DiscountRepo:      repository.NewDiscountRepository(repoParams),
		DiscountUsageRepo: repository.NewDiscountUsageRepository(repoParams),
		ProductRepo:       repository.NewProductRepository(repoParams),
		CustomerRepo:      repository.NewCustomerRepository(repoParams),
		TaxRepo:           repository.NewTaxRepository(repoParams),
		OrderRepo:         repository.NewOrderRepository(repoParams),
		OrderNumberGen:    repository.NewOrderNumberGenerator(repoParams),
	}
}
