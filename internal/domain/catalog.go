package domain

import "github.com/google/uuid"

// Catalog holds the identity and normalization policy for products.
// It never touches storage; whether a product may be persisted is decided
// by the caller.
type Catalog struct {
	newID IDGenerator
}

// NewCatalog creates a catalog that assigns identifiers with gen.
// A nil gen falls back to random UUIDs.
func NewCatalog(gen IDGenerator) *Catalog {
	if gen == nil {
		gen = uuid.New
	}
	return &Catalog{newID: gen}
}

// CreateProduct assigns a fresh identifier when the product has none.
// A caller-supplied identifier is kept as is.
func (c *Catalog) CreateProduct(product Product) Product {
	if !product.HasID() {
		product.ID = c.newID()
	}
	return product
}

// UpdateProduct forces the product identifier to id, overriding any
// identifier carried by the payload.
func (c *Catalog) UpdateProduct(id uuid.UUID, product Product) Product {
	product.ID = id
	return product
}
