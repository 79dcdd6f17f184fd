package domain

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the contract for product storage.
//
// Implementations must be safe for concurrent use and make every call atomic
// with respect to the key it touches. No atomicity across keys is required:
// FindAll may observe some concurrent writes to other keys and not others.
//
// Absence is reported through the boolean results. The error result is
// reserved for backend failures; the in-memory implementation never returns one.
type ProductRepository interface {
	// Save inserts or overwrites the product under its ID, which must be set.
	Save(ctx context.Context, product Product) (Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (Product, bool, error)
	// FindAll returns a snapshot of every stored product in no particular order.
	FindAll(ctx context.Context) ([]Product, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}
