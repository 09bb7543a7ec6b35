package repository

import (
	"context"

	"github.com/storelane/storelane/internal/domain/order"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/types"
)

type shortIDNumberGenerator struct {
	params Params
}

// NewShortIDNumberGenerator allocates order numbers like OR-XYZ12A8Q from
// the process-wide short id generator. Collisions are vanishingly rare and
// caught by the unique constraint on orders.order_number.
func NewShortIDNumberGenerator(p Params) order.NumberGenerator {
	return &shortIDNumberGenerator{params: p}
}

func (g *shortIDNumberGenerator) NextOrderNumber(_ context.Context) (string, error) {
	number := types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_ORDER_NUMBER)
	if number == "" {
		return "", ierr.NewError("order number generation failed").
			WithHint("Could not allocate an order number").
			Mark(ierr.ErrSystem)
	}
	return number, nil
}
