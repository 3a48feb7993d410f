package entity

import (
	"github.com/shopspring/decimal"
)

// OrderItem is one line in the live order. Repeated add commands for the
// same product create separate entries; quantities only change through the
// explicit increment/decrement operations.
type OrderItem struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int
	Image    string
	Category string
}

func (i OrderItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
