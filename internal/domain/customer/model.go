package customer

import (
	"github.com/storelane/storelane/internal/types"
)

// Customer represents a registered storefront customer.
type Customer struct {
	ID    string `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	types.BaseModel
}
