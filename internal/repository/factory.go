package repository

import (
	"github.com/storelane/storelane/internal/cache"
	"github.com/storelane/storelane/internal/domain/customer"
	"github.com/storelane/storelane/internal/domain/discount"
	"github.com/storelane/storelane/internal/domain/discountusage"
	"github.com/storelane/storelane/internal/domain/order"
	"github.com/storelane/storelane/internal/domain/product"
	"github.com/storelane/storelane/internal/domain/tax"
	"github.com/storelane/storelane/internal/logger"
	pg "github.com/storelane/storelane/internal/postgres"
	pgstore "github.com/storelane/storelane/internal/repository/postgres"
)

// Params holds the shared dependencies of all repositories.
type Params struct {
	DB     pg.IClient
	Logger *logger.Logger
	Cache  cache.Cache
}

func NewDiscountRepository(p Params) discount.Repository {
	return pgstore.NewDiscountRepository(p.DB, p.Logger, p.Cache)
}

func NewDiscountUsageRepository(p Params) discountusage.Repository {
	return pgstore.NewDiscountUsageRepository(p.DB, p.Logger)
}

func NewProductRepository(p Params) product.Repository {
	return pgstore.NewProductRepository(p.DB, p.Logger, p.Cache)
}

func NewCustomerRepository(p Params) customer.Repository {
	return pgstore.NewCustomerRepository(p.DB, p.Logger, p.Cache)
}

func NewTaxRepository(p Params) tax.Repository {
	return pgstore.NewTaxRepository(p.DB, p.Logger, p.Cache)
}

func NewOrderRepository(p Params) order.Repository {
	return pgstore.NewOrderRepository(p.DB, p.Logger)
}

func NewOrderNumberGenerator(p Params) order.NumberGenerator {
	return NewShortIDNumberGenerator(p)
}
