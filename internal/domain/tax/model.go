package tax

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/types"
)

// Zone groups the tax rates that apply to a set of destination countries,
// optionally narrowed to specific states. Among the active zones matching an
// address the highest priority wins; equal priorities resolve to the
// lexicographically lowest zone id so selection is deterministic.
type Zone struct {
	ID        string   `db:"id" json:"id"`
	Name      string   `db:"name" json:"name"`
	Countries []string `json:"countries"`
	States    []string `json:"states"`
	Priority  int      `db:"priority" json:"priority"`
	types.BaseModel
}

// Rate is one tax rate inside a zone. Rates are processed in priority
// order; compound rates apply on top of tax already accumulated by
// earlier rates in the same pass.
type Rate struct {
	ID              string            `db:"id" json:"id"`
	ZoneID          string            `db:"zone_id" json:"zone_id"`
	Name            string            `db:"name" json:"name"`
	Rate            decimal.Decimal   `db:"rate" json:"rate"`
	Type            types.TaxRateType `db:"type" json:"type"`
	Compound        bool              `db:"compound" json:"compound"`
	ShippingTaxable bool              `db:"shipping_taxable" json:"shipping_taxable"`
	Priority        int               `db:"priority" json:"priority"`
	types.BaseModel
}

// Matches reports whether the zone covers the given destination. Country
// codes are compared case-insensitively; an empty state list means the
// whole country is covered.
func (z *Zone) Matches(country, state string) bool {
	if z.Status != types.StatusPublished {
		return false
	}

	country = strings.ToUpper(strings.TrimSpace(country))
	found := false
	for _, c := range z.Countries {
		if strings.ToUpper(strings.TrimSpace(c)) == country {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	if len(z.States) == 0 {
		return true
	}

	state = strings.ToUpper(strings.TrimSpace(state))
	for _, s := range z.States {
		if strings.ToUpper(strings.TrimSpace(s)) == state {
			return true
		}
	}
	return false
}
