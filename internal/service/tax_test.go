package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/api/dto"
	"github.com/storelane/storelane/internal/domain/tax"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/testutil"
	"github.com/storelane/storelane/internal/types"
	"github.com/stretchr/testify/suite"
)

type TaxServiceSuite struct {
	testutil.BaseServiceTestSuite
	service TaxService
}

func TestTaxService(t *testing.T) {
	suite.Run(t, new(TaxServiceSuite))
}

func (s *TaxServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
}

func (s *TaxServiceSuite) setupService() {
	stores := s.GetStores()
	s.service = NewTaxService(ServiceParams{
		Logger:  s.GetLogger(),
		Config:  s.GetConfig(),
		DB:      s.GetDB(),
		TaxRepo: stores.TaxRepo,
	})
}

func (s *TaxServiceSuite) seedZone(id string, countries []string, states []string, priority int) *tax.Zone {
	z := &tax.Zone{
		ID:        id,
		Name:      id,
		Countries: countries,
		States:    states,
		Priority:  priority,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().TaxRepo.(*testutil.InMemoryTaxStore).AddZone(s.GetContext(), z))
	return z
}

func (s *TaxServiceSuite) seedRate(zoneID, name string, rate decimal.Decimal, compound bool, priority int) *tax.Rate {
	r := &tax.Rate{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_RATE),
		ZoneID:    zoneID,
		Name:      name,
		Rate:      rate,
		Type:      types.TaxRateTypePercentage,
		Compound:  compound,
		Priority:  priority,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().TaxRepo.(*testutil.InMemoryTaxStore).AddRate(s.GetContext(), r))
	return r
}

func (s *TaxServiceSuite) TestCompoundTaxCanadaQuebec() {
	s.seedZone("zone-qc", []string{"CA"}, []string{"QC"}, 1)
	s.seedRate("zone-qc", "GST", decimal.NewFromInt(5), false, 1)
	s.seedRate("zone-qc", "QST", decimal.RequireFromString("9.975"), true, 2)

	result, err := s.service.Calculate(s.GetContext(),
		decimal.NewFromInt(100),
		&dto.TaxAddress{Country: "CA", State: "QC"},
		decimal.Zero)
	s.NoError(err)

	// GST taxes the base: 100 * 5% = 5.00.
	// QST compounds on base plus GST: 105 * 9.975% = 10.47375 -> 10.47.
	s.Len(result.Breakdown, 2)
	s.Equal("GST", result.Breakdown[0].Name)
	s.True(result.Breakdown[0].Amount.Equal(decimal.RequireFromString("5.00")))
	s.Equal("QST", result.Breakdown[1].Name)
	s.True(result.Breakdown[1].Amount.Equal(decimal.RequireFromString("10.47")))
	s.True(result.TaxTotal.Equal(decimal.RequireFromString("15.47")))
}

func (s *TaxServiceSuite) TestZonePrioritySelection() {
	s.seedZone("zone-eu", []string{"FR", "DE", "IT"}, nil, 1)
	s.seedZone("zone-fr", []string{"FR"}, nil, 10)
	s.seedRate("zone-eu", "EU VAT", decimal.NewFromInt(20), false, 1)
	s.seedRate("zone-fr", "FR VAT", decimal.NewFromInt(25), false, 1)

	result, err := s.service.Calculate(s.GetContext(),
		decimal.NewFromInt(100),
		&dto.TaxAddress{Country: "FR"},
		decimal.Zero)
	s.NoError(err)

	// Both zones match France; the higher priority zone wins.
	s.NotNil(result.TaxZoneID)
	s.Equal("zone-fr", *result.TaxZoneID)
	s.True(result.TaxTotal.Equal(decimal.NewFromInt(25)))
}

func (s *TaxServiceSuite) TestZonePriorityTieBreaksOnLowestID() {
	s.seedZone("zone-b", []string{"US"}, nil, 5)
	s.seedZone("zone-a", []string{"US"}, nil, 5)
	s.seedRate("zone-a", "A", decimal.NewFromInt(7), false, 1)
	s.seedRate("zone-b", "B", decimal.NewFromInt(9), false, 1)

	result, err := s.service.Calculate(s.GetContext(),
		decimal.NewFromInt(100),
		&dto.TaxAddress{Country: "US"},
		decimal.Zero)
	s.NoError(err)
	s.Equal("zone-a", *result.TaxZoneID)
}

func (s *TaxServiceSuite) TestStateScopedZone() {
	s.seedZone("zone-ca-state", []string{"US"}, []string{"CA"}, 1)
	s.seedRate("zone-ca-state", "CA Sales Tax", decimal.RequireFromString("7.25"), false, 1)

	result, err := s.service.Calculate(s.GetContext(),
		decimal.NewFromInt(100),
		&dto.TaxAddress{Country: "US", State: "CA"},
		decimal.Zero)
	s.NoError(err)
	s.True(result.TaxTotal.Equal(decimal.RequireFromString("7.25")))

	// A different state falls outside the zone: zero tax, no error.
	result, err = s.service.Calculate(s.GetContext(),
		decimal.NewFromInt(100),
		&dto.TaxAddress{Country: "US", State: "OR"},
		decimal.Zero)
	s.NoError(err)
	s.Nil(result.TaxZoneID)
	s.True(result.TaxTotal.IsZero())
}

func (s *TaxServiceSuite) TestNoMatchingZoneIsZeroTax() {
	s.seedZone("zone-fr", []string{"FR"}, nil, 1)
	s.seedRate("zone-fr", "FR VAT", decimal.NewFromInt(20), false, 1)

	result, err := s.service.Calculate(s.GetContext(),
		decimal.NewFromInt(100),
		&dto.TaxAddress{Country: "JP"},
		decimal.Zero)
	s.NoError(err)
	s.Nil(result.TaxZoneID)
	s.True(result.TaxTotal.IsZero())
	s.Empty(result.Breakdown)
}

func (s *TaxServiceSuite) TestShippingTaxableRate() {
	s.seedZone("zone-de", []string{"DE"}, nil, 1)
	r := s.seedRate("zone-de", "DE VAT", decimal.NewFromInt(19), false, 1)
	r.ShippingTaxable = true

	result, err := s.service.Calculate(s.GetContext(),
		decimal.NewFromInt(100),
		&dto.TaxAddress{Country: "DE"},
		decimal.NewFromInt(10))
	s.NoError(err)
	// Base plus shipping: 110 * 19% = 20.90.
	s.True(result.TaxTotal.Equal(decimal.RequireFromString("20.90")))
}

func (s *TaxServiceSuite) TestTaxMonotonicInBase() {
	s.seedZone("zone-fr", []string{"FR"}, nil, 1)
	s.seedRate("zone-fr", "FR VAT", decimal.NewFromInt(20), false, 1)

	small, err := s.service.Calculate(s.GetContext(),
		decimal.NewFromInt(50), &dto.TaxAddress{Country: "FR"}, decimal.Zero)
	s.NoError(err)
	large, err := s.service.Calculate(s.GetContext(),
		decimal.NewFromInt(200), &dto.TaxAddress{Country: "FR"}, decimal.Zero)
	s.NoError(err)
	s.True(large.TaxTotal.GreaterThanOrEqual(small.TaxTotal))
}

func (s *TaxServiceSuite) TestCalculateIncludedTax() {
	s.seedZone("zone-fr", []string{"FR"}, nil, 1)
	s.seedRate("zone-fr", "FR VAT", decimal.NewFromInt(20), false, 1)

	result, err := s.service.CalculateIncludedTax(s.GetContext(),
		decimal.NewFromInt(120), &dto.TaxAddress{Country: "FR"})
	s.NoError(err)
	s.NotNil(result.PriceExcludingTax)
	s.True(result.PriceExcludingTax.Equal(decimal.NewFromInt(100)))
	s.True(result.TaxTotal.Equal(decimal.NewFromInt(20)))
}

func (s *TaxServiceSuite) TestCalculateIncludedTaxNoZone() {
	result, err := s.service.CalculateIncludedTax(s.GetContext(),
		decimal.NewFromInt(120), &dto.TaxAddress{Country: "JP"})
	s.NoError(err)
	s.NotNil(result.PriceExcludingTax)
	// Gross passes through untouched when no zone matches.
	s.True(result.PriceExcludingTax.Equal(decimal.NewFromInt(120)))
	s.True(result.TaxTotal.IsZero())
}

func (s *TaxServiceSuite) TestMissingCountryRejected() {
	_, err := s.service.Calculate(s.GetContext(),
		decimal.NewFromInt(100), &dto.TaxAddress{}, decimal.Zero)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
