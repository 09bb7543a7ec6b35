package service

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/api/dto"
	"github.com/storelane/storelane/internal/domain/tax"
)

var oneHundred = decimal.NewFromInt(100)

// TaxService computes taxes for a destination address using zone-scoped,
// optionally compounding rates.
type TaxService interface {
	// Calculate computes the tax owed on a taxable base plus shipping.
	// When no zone matches the address the result is zero tax, not an error.
	Calculate(ctx context.Context, taxableBase decimal.Decimal, address *dto.TaxAddress, shippingCost decimal.Decimal) (*dto.TaxResult, error)

	// CalculateIncludedTax backs the net price out of a gross amount using
	// the effective rate of the zone matching the address.
	CalculateIncludedTax(ctx context.Context, grossPrice decimal.Decimal, address *dto.TaxAddress) (*dto.TaxResult, error)
}

type taxService struct {
	ServiceParams
}

// NewTaxService creates a new tax service
func NewTaxService(params ServiceParams) TaxService {
	return &taxService{
		ServiceParams: params,
	}
}

func (s *taxService) Calculate(ctx context.Context, taxableBase decimal.Decimal, address *dto.TaxAddress, shippingCost decimal.Decimal) (*dto.TaxResult, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}

	zone, rates, err := s.resolveZone(ctx, address)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return dto.NewZeroTaxResult(), nil
	}

	result := dto.NewZeroTaxResult()
	result.TaxZoneID = lo.ToPtr(zone.ID)
	result.TaxZoneName = zone.Name

	// Rates are processed sequentially in priority order. Non-compound
	// rates see the original base; compound rates see the base plus all
	// tax accumulated so far. Each contribution is rounded to 2 decimals
	// independently before summing, so compounding sees already-rounded
	// intermediate tax.
	accumulated := decimal.Zero
	for _, rate := range rates {
		base := taxableBase
		if rate.Compound {
			base = base.Add(accumulated)
		}
		if rate.ShippingTaxable {
			base = base.Add(shippingCost)
		}

		amount := base.Mul(rate.Rate).Div(oneHundred).Round(2)
		accumulated = accumulated.Add(amount)

		result.Breakdown = append(result.Breakdown, dto.TaxBreakdownItem{
			RateID:   rate.ID,
			Name:     rate.Name,
			Rate:     rate.Rate,
			Compound: rate.Compound,
			Amount:   amount,
		})
	}

	result.TaxTotal = accumulated
	result.EffectiveRate = effectiveRate(rates)

	s.Logger.Debugw("tax calculated",
		"tax_zone_id", zone.ID,
		"taxable_base", taxableBase,
		"tax_total", accumulated)

	return result, nil
}

func (s *taxService) CalculateIncludedTax(ctx context.Context, grossPrice decimal.Decimal, address *dto.TaxAddress) (*dto.TaxResult, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}

	zone, rates, err := s.resolveZone(ctx, address)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		result := dto.NewZeroTaxResult()
		result.PriceExcludingTax = lo.ToPtr(grossPrice)
		return result, nil
	}

	rate := effectiveRate(rates)
	divisor := decimal.NewFromInt(1).Add(rate.Div(oneHundred))
	net := grossPrice.Div(divisor).Round(2)

	result := dto.NewZeroTaxResult()
	result.TaxZoneID = lo.ToPtr(zone.ID)
	result.TaxZoneName = zone.Name
	result.EffectiveRate = rate
	result.TaxTotal = grossPrice.Sub(net)
	result.PriceExcludingTax = lo.ToPtr(net)

	return result, nil
}

// resolveZone selects the single matching zone with the highest priority.
// Equal priorities resolve to the lowest zone id, keeping selection
// deterministic regardless of store iteration order.
func (s *taxService) resolveZone(ctx context.Context, address *dto.TaxAddress) (*tax.Zone, []*tax.Rate, error) {
	zones, err := s.TaxRepo.ListZones(ctx)
	if err != nil {
		return nil, nil, err
	}

	var selected *tax.Zone
	for _, zone := range zones {
		if !zone.Matches(address.Country, address.State) {
			continue
		}
		if selected == nil ||
			zone.Priority > selected.Priority ||
			(zone.Priority == selected.Priority && zone.ID < selected.ID) {
			selected = zone
		}
	}
	if selected == nil {
		return nil, nil, nil
	}

	rates, err := s.TaxRepo.ListRates(ctx, selected.ID)
	if err != nil {
		return nil, nil, err
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Priority < rates[j].Priority
	})

	return selected, rates, nil
}

// effectiveRate folds the zone's rates into one combined percentage:
// non-compound rates add up directly, compound rates apply on top of the
// rate accumulated before them.
func effectiveRate(rates []*tax.Rate) decimal.Decimal {
	eff := decimal.Zero
	for _, rate := range rates {
		if rate.Compound {
			multiplier := decimal.NewFromInt(1).Add(eff.Div(oneHundred))
			eff = eff.Add(rate.Rate.Mul(multiplier))
		} else {
			eff = eff.Add(rate.Rate)
		}
	}
	return eff
}
