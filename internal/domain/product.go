package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int
	Name          string
	Description   *string
	Price         decimal.Decimal
	StockQuantity int
	SKU           *string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

func (p Product) CanFulfil(quantity int) bool {
	return quantity > 0 && p.StockQuantity >= quantity
}
