package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents the product entity
type Product struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
}

// HasID reports whether an identifier has been assigned
func (p Product) HasID() bool {
	return p.ID != uuid.Nil
}

// Equal compares two products field by field. Prices are compared by value,
// so 10.9 and 10.90 are equal.
func (p Product) Equal(other Product) bool {
	return p.ID == other.ID &&
		p.Name == other.Name &&
		p.Description == other.Description &&
		p.Price.Equal(other.Price) &&
		p.StockQuantity == other.StockQuantity
}

// IDGenerator produces globally unique product identifiers
type IDGenerator func() uuid.UUID
