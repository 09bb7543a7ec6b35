package service

import (
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/api/dto"
	"github.com/storelane/storelane/internal/domain/discount"
	"github.com/storelane/storelane/internal/domain/product"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/testutil"
	"github.com/storelane/storelane/internal/types"
	"github.com/stretchr/testify/suite"
)

type OrderServiceSuite struct {
	testutil.BaseServiceTestSuite
	service OrderService
}

func TestOrderService(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *OrderServiceSuite) setupService() {
	stores := s.GetStores()
	s.service = NewOrderService(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		DiscountRepo:      stores.DiscountRepo,
		DiscountUsageRepo: stores.DiscountUsageRepo,
		ProductRepo:       stores.ProductRepo,
		CustomerRepo:      stores.CustomerRepo,
		TaxRepo:           stores.TaxRepo,
		OrderRepo:         stores.OrderRepo,
		OrderNumberGen:    stores.OrderNumberGen,
	})
}

func (s *OrderServiceSuite) setupTestData() {
	p := &product.Product{
		ID:            "prod-1",
		Name:          "Widget",
		SKU:           "WID-1",
		Price:         decimal.NewFromInt(50),
		TrackStock:    true,
		StockQuantity: 100,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	store := s.GetStores().ProductRepo.(*testutil.InMemoryProductStore)
	s.NoError(store.AddProduct(s.GetContext(), p))
}

func (s *OrderServiceSuite) seedCodeDiscount(modify func(d *discount.Discount)) *discount.Discount {
	d := &discount.Discount{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT),
		Code:              "SAVE10",
		Name:              "Save 10",
		Method:            types.DiscountMethodCode,
		Type:              types.DiscountTypeOrder,
		ValueType:         types.DiscountValueTypePercentage,
		Value:             decimal.NewFromInt(10),
		ProductScope:      types.ProductScopeAll,
		CustomerSelection: types.CustomerSelectionAll,
		IsActive:          true,
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}
	if modify != nil {
		modify(d)
	}
	s.NoError(s.GetStores().DiscountRepo.Create(s.GetContext(), d))
	return d
}

func (s *OrderServiceSuite) request() *dto.SubmitOrderRequest {
	return &dto.SubmitOrderRequest{
		CustomerID: "cust-1",
		Lines: []dto.SubmitOrderLine{
			{ProductID: "prod-1", UnitPrice: decimal.NewFromInt(50), Quantity: 2},
		},
		Subtotal:      decimal.NewFromInt(100),
		DiscountTotal: decimal.Zero,
		ShippingCost:  decimal.NewFromInt(10),
		TaxTotal:      decimal.NewFromInt(5),
	}
}

func (s *OrderServiceSuite) TestCreateDraftOrder() {
	resp, err := s.service.CreateDraftOrder(s.GetContext(), s.request())
	s.NoError(err)
	s.Equal(types.OrderStatusDraft, resp.OrderStatus)
	s.Equal("OR-0001", resp.OrderNumber)
	s.True(resp.Subtotal.Equal(decimal.NewFromInt(100)))
	// subtotal - discount + shipping + tax = 100 - 0 + 10 + 5
	s.True(resp.Total.Equal(decimal.NewFromInt(115)))
}

func (s *OrderServiceSuite) TestDraftDoesNotConsumeUsage() {
	d := s.seedCodeDiscount(func(d *discount.Discount) {
		d.UsageLimit = lo.ToPtr(5)
	})

	req := s.request()
	req.DiscountCodes = []string{"SAVE10"}
	req.DiscountTotal = decimal.NewFromInt(10)

	_, err := s.service.CreateDraftOrder(s.GetContext(), req)
	s.NoError(err)

	usage := s.GetStores().DiscountUsageRepo.(*testutil.InMemoryDiscountUsageStore)
	s.Equal(0, usage.TotalUsage(d.ID))
}

func (s *OrderServiceSuite) TestConfirmOrderConsumesUsage() {
	d := s.seedCodeDiscount(func(d *discount.Discount) {
		d.UsageLimit = lo.ToPtr(5)
	})

	req := s.request()
	req.DiscountCodes = []string{"SAVE10"}
	req.DiscountTotal = decimal.NewFromInt(10)

	resp, err := s.service.ConfirmOrder(s.GetContext(), req)
	s.NoError(err)
	s.Equal(types.OrderStatusConfirmed, resp.OrderStatus)
	s.True(resp.DiscountTotal.Equal(decimal.NewFromInt(10)))
	s.Equal([]string{d.ID}, resp.AppliedDiscountIDs)
	// 100 - 10 + 10 + 5
	s.True(resp.Total.Equal(decimal.NewFromInt(105)))

	usage := s.GetStores().DiscountUsageRepo.(*testutil.InMemoryDiscountUsageStore)
	s.Equal(1, usage.TotalUsage(d.ID))
}

func (s *OrderServiceSuite) TestFreeShippingZeroesShippingCost() {
	s.seedCodeDiscount(func(d *discount.Discount) {
		d.Code = "SHIPFREE"
		d.Type = types.DiscountTypeShipping
		d.ValueType = types.DiscountValueTypeFreeShipping
		d.Value = decimal.Zero
	})

	req := s.request()
	req.DiscountCodes = []string{"SHIPFREE"}

	resp, err := s.service.ConfirmOrder(s.GetContext(), req)
	s.NoError(err)
	s.True(resp.ShippingCost.IsZero())
	// 100 - 0 + 0 + 5
	s.True(resp.Total.Equal(decimal.NewFromInt(105)))
}

func (s *OrderServiceSuite) TestConfirmDraft() {
	d := s.seedCodeDiscount(func(d *discount.Discount) {
		d.UsageLimit = lo.ToPtr(5)
	})

	req := s.request()
	req.DiscountCodes = []string{"SAVE10"}
	req.DiscountTotal = decimal.NewFromInt(10)

	draft, err := s.service.CreateDraftOrder(s.GetContext(), req)
	s.NoError(err)

	usage := s.GetStores().DiscountUsageRepo.(*testutil.InMemoryDiscountUsageStore)
	s.Equal(0, usage.TotalUsage(d.ID))

	confirmed, err := s.service.ConfirmDraft(s.GetContext(), draft.ID)
	s.NoError(err)
	s.Equal(types.OrderStatusConfirmed, confirmed.OrderStatus)
	s.Equal(draft.ID, confirmed.ID)
	s.Equal(1, usage.TotalUsage(d.ID))

	// A confirmed order cannot be confirmed again.
	_, err = s.service.ConfirmDraft(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *OrderServiceSuite) TestGetOrder() {
	resp, err := s.service.CreateDraftOrder(s.GetContext(), s.request())
	s.NoError(err)

	got, err := s.service.GetOrder(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(resp.OrderNumber, got.OrderNumber)

	_, err = s.service.GetOrder(s.GetContext(), "ord_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

// Two checkouts race for a discount with a single remaining use: exactly
// one confirmation succeeds and the counter ends at the limit.
func (s *OrderServiceSuite) TestConcurrentConfirmationsRespectUsageLimit() {
	d := s.seedCodeDiscount(func(d *discount.Discount) {
		d.UsageLimit = lo.ToPtr(1)
	})

	newRequest := func(customerID string) *dto.SubmitOrderRequest {
		req := s.request()
		req.CustomerID = customerID
		req.DiscountCodes = []string{"SAVE10"}
		req.DiscountTotal = decimal.NewFromInt(10)
		return req
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, customerID := range []string{"cust-1", "cust-2"} {
		wg.Add(1)
		go func(i int, customerID string) {
			defer wg.Done()
			_, errs[i] = s.service.ConfirmOrder(s.GetContext(), newRequest(customerID))
		}(i, customerID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.True(ierr.IsUsageExhausted(err))
		}
	}
	s.Equal(1, succeeded)

	usage := s.GetStores().DiscountUsageRepo.(*testutil.InMemoryDiscountUsageStore)
	s.Equal(1, usage.TotalUsage(d.ID))
}
