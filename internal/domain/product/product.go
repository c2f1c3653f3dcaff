// Package product defines the grocery catalog entry and its repository.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry. Category feeds the coupon applicability
// filters, so it must match the category tags coupons are configured with.
type Product struct {
	ID       string
	Name     string
	Category string
	Price    decimal.Decimal
	// Unit is the sale unit shown on receipts: "kg", "500g", "pc", "dozen".
	Unit    string
	InStock bool
}

// Repository provides read access to the catalog.
type Repository interface {
	// List returns all products ordered by id.
	List(ctx context.Context) ([]Product, error)
	// GetByID returns a single product. Returns ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*Product, error)
	// GetByIDs returns the products matching any of the given ids in a
	// single query; missing ids are simply absent from the result.
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
