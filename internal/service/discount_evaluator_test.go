package service

import (
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/domain/cart"
	"github.com/storelane/storelane/internal/domain/discount"
	"github.com/storelane/storelane/internal/testutil"
	"github.com/storelane/storelane/internal/types"
	"github.com/stretchr/testify/suite"
)

type DiscountEvaluatorSuite struct {
	testutil.BaseServiceTestSuite
	evaluator DiscountEvaluator
}

func TestDiscountEvaluator(t *testing.T) {
	suite.Run(t, new(DiscountEvaluatorSuite))
}

func (s *DiscountEvaluatorSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
}

func (s *DiscountEvaluatorSuite) setupService() {
	stores := s.GetStores()
	s.evaluator = NewDiscountEvaluator(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		DiscountRepo:      stores.DiscountRepo,
		DiscountUsageRepo: stores.DiscountUsageRepo,
		ProductRepo:       stores.ProductRepo,
		CustomerRepo:      stores.CustomerRepo,
	})
}

func (s *DiscountEvaluatorSuite) newDiscount(modify func(d *discount.Discount)) *discount.Discount {
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
	return d
}

func (s *DiscountEvaluatorSuite) newSnapshot() *cart.Snapshot {
	return cart.NewSnapshot([]cart.Line{
		{ProductID: "prod-1", Price: decimal.NewFromInt(50), Quantity: 2},
		{ProductID: "prod-2", Price: decimal.NewFromInt(25), Quantity: 4},
	}, "cust-1") // subtotal 200
}

func (s *DiscountEvaluatorSuite) TestOrderDiscountPercentage() {
	d := s.newDiscount(nil)
	snapshot := s.newSnapshot()

	result, err := s.evaluator.Evaluate(s.GetContext(), d, snapshot)
	s.NoError(err)
	s.True(result.Valid)
	s.True(result.OrderDiscountAmount.Equal(decimal.NewFromInt(20)))
	s.True(result.ProductDiscountAmount.IsZero())
}

func (s *DiscountEvaluatorSuite) TestOrderDiscountFixedAmountCappedAtSubtotal() {
	d := s.newDiscount(func(d *discount.Discount) {
		d.ValueType = types.DiscountValueTypeFixedAmount
		d.Value = decimal.NewFromInt(500)
	})
	snapshot := s.newSnapshot()

	result, err := s.evaluator.Evaluate(s.GetContext(), d, snapshot)
	s.NoError(err)
	s.True(result.Valid)
	// Never more than the subtotal, so the total cannot go negative.
	s.True(result.OrderDiscountAmount.Equal(snapshot.Subtotal))
}

func (s *DiscountEvaluatorSuite) TestEvaluationIsDeterministic() {
	d := s.newDiscount(nil)
	snapshot := s.newSnapshot()

	first, err := s.evaluator.Evaluate(s.GetContext(), d, snapshot)
	s.NoError(err)
	second, err := s.evaluator.Evaluate(s.GetContext(), d, snapshot)
	s.NoError(err)

	s.Equal(first.Valid, second.Valid)
	s.True(first.OrderDiscountAmount.Equal(second.OrderDiscountAmount))
	// The snapshot itself was not mutated by evaluation.
	s.True(snapshot.Subtotal.Equal(decimal.NewFromInt(200)))
}

func (s *DiscountEvaluatorSuite) TestMinimumSubtotalNotMet() {
	d := s.newDiscount(func(d *discount.Discount) {
		d.MinSubtotal = lo.ToPtr(decimal.NewFromInt(300))
	})

	result, err := s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.False(result.Valid)
	s.Equal(cart.FailureReasonMinimum, result.Reason)
	s.Equal("A minimum subtotal of 300.00 is required for this discount", result.Message)
}

func (s *DiscountEvaluatorSuite) TestMinimumQuantityNotMet() {
	d := s.newDiscount(func(d *discount.Discount) {
		d.MinQuantity = lo.ToPtr(10)
	})

	result, err := s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.False(result.Valid)
	s.Equal(cart.FailureReasonMinimum, result.Reason)
	s.Equal("A minimum of 10 items is required for this discount", result.Message)
}

func (s *DiscountEvaluatorSuite) TestCustomerGroupEligibility() {
	customers := s.GetStores().CustomerRepo.(*testutil.InMemoryCustomerStore)
	customers.SetGroups("cust-1", []string{"grp-vip"})

	d := s.newDiscount(func(d *discount.Discount) {
		d.CustomerSelection = types.CustomerSelectionGroups
		d.CustomerGroupIDs = []string{"grp-vip"}
	})

	result, err := s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.True(result.Valid)

	// A customer outside the group is rejected before any calculation.
	customers.SetGroups("cust-1", []string{"grp-regular"})
	result, err = s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.False(result.Valid)
	s.Equal(cart.FailureReasonReserved, result.Reason)
	s.Equal("This discount is reserved to certain customers", result.Message)
}

func (s *DiscountEvaluatorSuite) TestCustomerSelectionAnonymousRejected() {
	d := s.newDiscount(func(d *discount.Discount) {
		d.CustomerSelection = types.CustomerSelectionCustomers
		d.CustomerIDs = []string{"cust-1"}
	})
	snapshot := cart.NewSnapshot([]cart.Line{
		{ProductID: "prod-1", Price: decimal.NewFromInt(50), Quantity: 1},
	}, "")

	result, err := s.evaluator.Evaluate(s.GetContext(), d, snapshot)
	s.NoError(err)
	s.False(result.Valid)
	s.Equal(cart.FailureReasonReserved, result.Reason)
}

func (s *DiscountEvaluatorSuite) TestProductScopeNoMatch() {
	d := s.newDiscount(func(d *discount.Discount) {
		d.Type = types.DiscountTypeProduct
		d.ProductScope = types.ProductScopeProducts
		d.ProductIDs = []string{"prod-other"}
	})

	result, err := s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.False(result.Valid)
	s.Equal(cart.FailureReasonScope, result.Reason)
	s.Equal("This discount does not apply to the products in your cart", result.Message)
}

func (s *DiscountEvaluatorSuite) TestProductDiscountScopedToEligibleLines() {
	d := s.newDiscount(func(d *discount.Discount) {
		d.Type = types.DiscountTypeProduct
		d.ProductScope = types.ProductScopeProducts
		d.ProductIDs = []string{"prod-1"}
		d.Value = decimal.NewFromInt(20)
	})

	result, err := s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.True(result.Valid)
	// 20% of the prod-1 line only: 100 * 20% = 20
	s.True(result.ProductDiscountAmount.Equal(decimal.NewFromInt(20)))
	s.Len(result.LineAdjustments, 1)
	s.Equal("prod-1", result.LineAdjustments[0].ProductID)
	s.False(result.LineAdjustments[0].IsGift)
}

func (s *DiscountEvaluatorSuite) TestCollectionScopeUsesCategoryMembership() {
	products := s.GetStores().ProductRepo.(*testutil.InMemoryProductStore)
	products.SetCategories("prod-2", []string{"col-sale"})

	d := s.newDiscount(func(d *discount.Discount) {
		d.Type = types.DiscountTypeProduct
		d.ProductScope = types.ProductScopeCollections
		d.CollectionIDs = []string{"col-sale"}
		d.Value = decimal.NewFromInt(10)
	})

	result, err := s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.True(result.Valid)
	// 10% of the prod-2 line only: 100 * 10% = 10
	s.True(result.ProductDiscountAmount.Equal(decimal.NewFromInt(10)))

	// No cart product in the collection: scope failure with its own message.
	products.SetCategories("prod-2", []string{"col-full-price"})
	result, err = s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.False(result.Valid)
	s.Equal("This discount does not apply to the collections in your cart", result.Message)
}

func (s *DiscountEvaluatorSuite) TestBuyXGetY() {
	d := s.newDiscount(func(d *discount.Discount) {
		d.Type = types.DiscountTypeBuyXGetY
		d.ValueType = types.DiscountValueTypeFixedAmount
		d.Value = decimal.Zero
		d.BuyQuantity = 2
		d.GetQuantity = 1
		d.ProductScope = types.ProductScopeProducts
		d.ProductIDs = []string{"prod-2"}
	})

	// prod-2 has quantity 4: one complete buy-2-get-1 group, one free unit.
	result, err := s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.True(result.Valid)
	s.True(result.ProductDiscountAmount.Equal(decimal.NewFromInt(25)))
	s.Len(result.LineAdjustments, 1)
	s.True(result.LineAdjustments[0].IsGift)

	// Six units make two complete groups, two free units.
	snapshot := cart.NewSnapshot([]cart.Line{
		{ProductID: "prod-2", Price: decimal.NewFromInt(25), Quantity: 6},
	}, "cust-1")
	result, err = s.evaluator.Evaluate(s.GetContext(), d, snapshot)
	s.NoError(err)
	s.True(result.Valid)
	s.True(result.ProductDiscountAmount.Equal(decimal.NewFromInt(50)))
}

func (s *DiscountEvaluatorSuite) TestBuyXGetYIncompleteGroup() {
	d := s.newDiscount(func(d *discount.Discount) {
		d.Type = types.DiscountTypeBuyXGetY
		d.ValueType = types.DiscountValueTypeFixedAmount
		d.Value = decimal.Zero
		d.BuyQuantity = 3
		d.GetQuantity = 1
	})
	snapshot := cart.NewSnapshot([]cart.Line{
		{ProductID: "prod-1", Price: decimal.NewFromInt(50), Quantity: 3},
	}, "cust-1")

	result, err := s.evaluator.Evaluate(s.GetContext(), d, snapshot)
	s.NoError(err)
	s.False(result.Valid)
	s.Equal("Add at least 4 eligible items to benefit from this offer", result.Message)
}

func (s *DiscountEvaluatorSuite) TestShippingDiscountOnlySupportsFreeShipping() {
	d := s.newDiscount(func(d *discount.Discount) {
		d.Type = types.DiscountTypeShipping
		d.ValueType = types.DiscountValueTypeFreeShipping
		d.Value = decimal.Zero
	})

	result, err := s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.True(result.Valid)
	s.True(result.FreeShipping)
	s.True(result.TotalDiscount().IsZero())

	d.ValueType = types.DiscountValueTypePercentage
	d.Value = decimal.NewFromInt(50)
	result, err = s.evaluator.Evaluate(s.GetContext(), d, s.newSnapshot())
	s.NoError(err)
	s.False(result.Valid)
	s.Equal("Only free shipping discounts are supported for shipping", result.Message)
}
