// Package order implements order placement: pricing, coupon application, and
// optional purchase on credit.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyItems = fmt.Errorf("items required")
	ErrNotFound   = fmt.Errorf("order not found")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Order is a placed order with its pricing breakdown.
type Order struct {
	ID           string
	CustomerID   string
	Items        []OrderItem
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
	CouponCode   string
	PaidOnCredit bool
	CreatedAt    time.Time
}

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
}
