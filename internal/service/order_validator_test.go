package service

import (
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

type OrderValidationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  OrderValidationService
	testData struct {
		product *product.Product
	}
}

func TestOrderValidationService(t *testing.T) {
	suite.Run(t, new(OrderValidationServiceSuite))
}

func (s *OrderValidationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *OrderValidationServiceSuite) setupService() {
	stores := s.GetStores()
	s.service = NewOrderValidationService(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		DiscountRepo:      stores.DiscountRepo,
		DiscountUsageRepo: stores.DiscountUsageRepo,
		ProductRepo:       stores.ProductRepo,
		CustomerRepo:      stores.CustomerRepo,
	})
}

func (s *OrderValidationServiceSuite) setupTestData() {
	s.testData.product = &product.Product{
		ID:            "prod-1",
		Name:          "Widget",
		SKU:           "WID-1",
		Price:         decimal.RequireFromString("29.99"),
		TrackStock:    true,
		StockQuantity: 10,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	store := s.GetStores().ProductRepo.(*testutil.InMemoryProductStore)
	s.NoError(store.AddProduct(s.GetContext(), s.testData.product))
}

func (s *OrderValidationServiceSuite) validRequest() *dto.SubmitOrderRequest {
	return &dto.SubmitOrderRequest{
		CustomerID: "cust-1",
		Lines: []dto.SubmitOrderLine{
			{ProductID: "prod-1", UnitPrice: decimal.RequireFromString("29.99"), Quantity: 2},
		},
		Subtotal:      decimal.RequireFromString("59.98"),
		DiscountTotal: decimal.Zero,
	}
}

func (s *OrderValidationServiceSuite) seedCodeDiscount(modify func(d *discount.Discount)) *discount.Discount {
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

func (s *OrderValidationServiceSuite) TestValidOrderPasses() {
	verified, err := s.service.ValidateOrder(s.GetContext(), s.validRequest())
	s.NoError(err)
	s.NotNil(verified)
	s.True(verified.Subtotal.Equal(decimal.RequireFromString("59.98")))
	s.True(verified.DiscountTotal.IsZero())
	s.Len(verified.Lines, 1)
	s.True(verified.Lines[0].UnitPrice.Equal(s.testData.product.Price))
}

func (s *OrderValidationServiceSuite) TestTamperedUnitPriceRejected() {
	req := s.validRequest()
	// Client claims 25.00 for a 29.99 item.
	req.Lines[0].UnitPrice = decimal.RequireFromString("25.00")
	req.Subtotal = decimal.RequireFromString("50.00")

	verified, err := s.service.ValidateOrder(s.GetContext(), req)
	s.Error(err)
	s.Nil(verified)
	s.True(ierr.IsPriceTampering(err))
}

func (s *OrderValidationServiceSuite) TestPriceWithinToleranceAccepted() {
	req := s.validRequest()
	// One cent disagreement is allowed; the verified price is the
	// authoritative one regardless.
	req.Lines[0].UnitPrice = decimal.RequireFromString("29.98")
	req.Subtotal = decimal.RequireFromString("59.98")

	verified, err := s.service.ValidateOrder(s.GetContext(), req)
	s.NoError(err)
	s.True(verified.Lines[0].UnitPrice.Equal(decimal.RequireFromString("29.99")))
}

func (s *OrderValidationServiceSuite) TestUnknownProductRejected() {
	req := s.validRequest()
	req.Lines[0].ProductID = "prod-ghost"

	_, err := s.service.ValidateOrder(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsPriceTampering(err))
}

func (s *OrderValidationServiceSuite) TestInsufficientStockRejected() {
	req := s.validRequest()
	req.Lines[0].Quantity = 50
	req.Subtotal = decimal.RequireFromString("29.99").Mul(decimal.NewFromInt(50))

	_, err := s.service.ValidateOrder(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsPriceTampering(err))
}

func (s *OrderValidationServiceSuite) TestSubtotalMismatchRejected() {
	req := s.validRequest()
	req.Subtotal = decimal.RequireFromString("10.00")

	_, err := s.service.ValidateOrder(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsPriceTampering(err))
}

func (s *OrderValidationServiceSuite) TestDiscountCodeReappliedServerSide() {
	d := s.seedCodeDiscount(nil)

	req := s.validRequest()
	req.DiscountCodes = []string{"SAVE10"}
	req.DiscountTotal = decimal.RequireFromString("6.00") // 59.98 * 10% = 5.998

	verified, err := s.service.ValidateOrder(s.GetContext(), req)
	s.NoError(err)
	s.True(verified.DiscountTotal.Equal(decimal.RequireFromString("6.00")))
	s.Equal([]string{d.ID}, verified.AppliedDiscountIDs)
}

func (s *OrderValidationServiceSuite) TestDiscountTotalMismatchRejected() {
	s.seedCodeDiscount(nil)

	req := s.validRequest()
	req.DiscountCodes = []string{"SAVE10"}
	// Client claims a 50% discount for a 10% code.
	req.DiscountTotal = decimal.RequireFromString("29.99")

	_, err := s.service.ValidateOrder(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsPriceTampering(err))
}

func (s *OrderValidationServiceSuite) TestUnknownDiscountCodeRejected() {
	req := s.validRequest()
	req.DiscountCodes = []string{"NOSUCHCODE"}

	_, err := s.service.ValidateOrder(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsPriceTampering(err))
}

func (s *OrderValidationServiceSuite) TestInactiveDiscountCodeRejected() {
	s.seedCodeDiscount(func(d *discount.Discount) {
		d.IsActive = false
	})

	req := s.validRequest()
	req.DiscountCodes = []string{"SAVE10"}
	req.DiscountTotal = decimal.RequireFromString("6.00")

	_, err := s.service.ValidateOrder(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsPriceTampering(err))
}

func (s *OrderValidationServiceSuite) TestExhaustedCodeRejected() {
	d := s.seedCodeDiscount(func(d *discount.Discount) {
		d.UsageLimit = lo.ToPtr(1)
	})
	usage := s.GetStores().DiscountUsageRepo.(*testutil.InMemoryDiscountUsageStore)
	s.NoError(usage.Increment(s.GetContext(), d.ID, "cust-other"))

	req := s.validRequest()
	req.DiscountCodes = []string{"SAVE10"}
	req.DiscountTotal = decimal.RequireFromString("6.00")

	_, err := s.service.ValidateOrder(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsUsageExhausted(err))
}

func (s *OrderValidationServiceSuite) TestPerCustomerLimitRejected() {
	d := s.seedCodeDiscount(func(d *discount.Discount) {
		d.UsageLimitPerCustomer = lo.ToPtr(1)
	})
	usage := s.GetStores().DiscountUsageRepo.(*testutil.InMemoryDiscountUsageStore)
	s.NoError(usage.Increment(s.GetContext(), d.ID, "cust-1"))

	req := s.validRequest()
	req.DiscountCodes = []string{"SAVE10"}
	req.DiscountTotal = decimal.RequireFromString("6.00")

	_, err := s.service.ValidateOrder(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsUsageExhausted(err))

	// Another customer is unaffected by a per-customer limit.
	req.CustomerID = "cust-2"
	verified, err := s.service.ValidateOrder(s.GetContext(), req)
	s.NoError(err)
	s.True(verified.DiscountTotal.Equal(decimal.RequireFromString("6.00")))
}

func (s *OrderValidationServiceSuite) TestExhaustedAutomaticDiscountSkipped() {
	d := s.seedCodeDiscount(func(d *discount.Discount) {
		d.Code = ""
		d.Method = types.DiscountMethodAutomatic
		d.UsageLimit = lo.ToPtr(1)
	})
	usage := s.GetStores().DiscountUsageRepo.(*testutil.InMemoryDiscountUsageStore)
	s.NoError(usage.Increment(s.GetContext(), d.ID, "cust-other"))

	// The exhausted automatic discount is skipped, not an error; the
	// submitted totals must then match the undiscounted computation.
	verified, err := s.service.ValidateOrder(s.GetContext(), s.validRequest())
	s.NoError(err)
	s.True(verified.DiscountTotal.IsZero())
	s.Empty(verified.AppliedDiscountIDs)
}

func (s *OrderValidationServiceSuite) TestGiftLinesAttributed() {
	s.seedCodeDiscount(func(d *discount.Discount) {
		d.Code = "B2G1"
		d.Type = types.DiscountTypeBuyXGetY
		d.ValueType = types.DiscountValueTypeFixedAmount
		d.Value = decimal.Zero
		d.BuyQuantity = 1
		d.GetQuantity = 1
	})

	req := s.validRequest()
	req.DiscountCodes = []string{"B2G1"}
	req.DiscountTotal = decimal.RequireFromString("29.99")

	verified, err := s.service.ValidateOrder(s.GetContext(), req)
	s.NoError(err)
	s.True(verified.Lines[0].IsGift)
	s.True(verified.Lines[0].DiscountAmount.Equal(decimal.RequireFromString("29.99")))
}

func (s *OrderValidationServiceSuite) TestRepeatedDiscountCodeRejected() {
	d := s.seedCodeDiscount(func(d *discount.Discount) {
		d.UsageLimit = lo.ToPtr(1)
	})

	// The same code twice (casing varied to dodge naive comparison),
	// with the submitted total doubled to match a double application.
	req := s.validRequest()
	req.DiscountCodes = []string{"SAVE10", "save10"}
	req.DiscountTotal = decimal.RequireFromString("12.00")

	_, err := s.service.ValidateOrder(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsPriceTampering(err))

	usage := s.GetStores().DiscountUsageRepo.(*testutil.InMemoryDiscountUsageStore)
	s.Equal(0, usage.TotalUsage(d.ID))
}

func (s *OrderValidationServiceSuite) TestSplitLinesAttributedSeparately() {
	s.seedCodeDiscount(func(d *discount.Discount) {
		d.Type = types.DiscountTypeProduct
	})

	// The same product split across two lines: each line keeps its own
	// share of the discount instead of both piling onto the first.
	req := s.validRequest()
	req.Lines = []dto.SubmitOrderLine{
		{ProductID: "prod-1", UnitPrice: decimal.RequireFromString("29.99"), Quantity: 1},
		{ProductID: "prod-1", UnitPrice: decimal.RequireFromString("29.99"), Quantity: 2},
	}
	req.Subtotal = decimal.RequireFromString("89.97")
	req.DiscountCodes = []string{"SAVE10"}
	req.DiscountTotal = decimal.RequireFromString("9.00")

	verified, err := s.service.ValidateOrder(s.GetContext(), req)
	s.NoError(err)
	s.Len(verified.Lines, 2)
	s.True(verified.Lines[0].DiscountAmount.Equal(decimal.RequireFromString("3.00")))
	s.True(verified.Lines[1].DiscountAmount.Equal(decimal.RequireFromString("6.00")))
}
