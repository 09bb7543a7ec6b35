package types

import (
	"slices"

	ierr "github.com/storelane/storelane/internal/errors"
)

// TaxRateType defines how a tax rate's value is interpreted
type TaxRateType string

const (
	TaxRateTypePercentage TaxRateType = "percentage"
)

func (t TaxRateType) String() string {
	return string(t)
}

func (t TaxRateType) Validate() error {
	allowedValues := []string{string(TaxRateTypePercentage)}
	if !slices.Contains(allowedValues, string(t)) {
		return ierr.NewError("invalid tax rate type").
			WithHint("Tax rate type must be percentage").
			Mark(ierr.ErrValidation)
	}
	return nil
}
