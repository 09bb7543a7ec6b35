package product

import (
	"github.com/shopspring/decimal"
	"github.com/storelane/storelane/internal/types"
)

// Product is the authoritative catalog record for a product. The pricing
// engine reads it to verify submitted prices and stock; it never writes it.
type Product struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	SKU           string          `db:"sku" json:"sku"`
	Price         decimal.Decimal `db:"price" json:"price"`
	TrackStock    bool            `db:"track_stock" json:"track_stock"`
	StockQuantity int             `db:"stock_quantity" json:"stock_quantity"`
	types.BaseModel
}

// Variant is a sellable variation of a product with its own price and stock.
type Variant struct {
	ID            string          `db:"id" json:"id"`
	ProductID     string          `db:"product_id" json:"product_id"`
	Name          string          `db:"name" json:"name"`
	SKU           string          `db:"sku" json:"sku"`
	Price         decimal.Decimal `db:"price" json:"price"`
	TrackStock    bool            `db:"track_stock" json:"track_stock"`
	StockQuantity int             `db:"stock_quantity" json:"stock_quantity"`
	types.BaseModel
}

// HasStock reports whether the product can fulfil the requested quantity.
// Untracked stock is treated as unlimited.
func (p *Product) HasStock(quantity int) bool {
	if !p.TrackStock {
		return true
	}
	return p.StockQuantity >= quantity
}

// HasStock reports whether the variant can fulfil the requested quantity.
func (v *Variant) HasStock(quantity int) bool {
	if !v.TrackStock {
		return true
	}
	return v.StockQuantity >= quantity
}
