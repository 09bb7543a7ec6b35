package dto

import (
	"github.com/shopspring/decimal"
	ierr "github.com/storelane/storelane/internal/errors"
)

// TaxAddress is the destination address tax is keyed on.
type TaxAddress struct {
	Country    string `json:"country" validate:"required"`
	State      string `json:"state,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

func (a *TaxAddress) Validate() error {
	if a == nil || a.Country == "" {
		return ierr.NewError("tax address requires a country").
			WithHint("Please provide a destination country").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TaxBreakdownItem is one rate's contribution to the total tax, rounded to
// two decimals independently before summing.
type TaxBreakdownItem struct {
	RateID   string          `json:"rate_id"`
	Name     string          `json:"name"`
	Rate     decimal.Decimal `json:"rate"`
	Compound bool            `json:"compound"`
	Amount   decimal.Decimal `json:"amount"`
}

// TaxResult is the outcome of a tax calculation. A nil TaxZoneID means no
// zone matched the address and the tax is zero; that is a normal outcome,
// not an error.
type TaxResult struct {
	TaxTotal decimal.Decimal `json:"tax_total"`
	// EffectiveRate is the combined percentage of all applied rates
	// relative to the taxable base.
	EffectiveRate decimal.Decimal    `json:"effective_rate"`
	TaxZoneID     *string            `json:"tax_zone_id"`
	TaxZoneName   string             `json:"tax_zone_name,omitempty"`
	Breakdown     []TaxBreakdownItem `json:"breakdown"`

	// PriceExcludingTax is populated by included-tax calculations: the net
	// price backed out of a gross amount.
	PriceExcludingTax *decimal.Decimal `json:"price_excluding_tax,omitempty"`
}

// NewZeroTaxResult returns the result used when no tax zone matches.
func NewZeroTaxResult() *TaxResult {
	return &TaxResult{
		TaxTotal:      decimal.Zero,
		EffectiveRate: decimal.Zero,
		Breakdown:     []TaxBreakdownItem{},
	}
}
