// Package coupon implements the discount coupon entity and its rule engine:
// validity windows, usage caps, category/product applicability filters, and
// discount calculation.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage of the applicable amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a flat monetary discount capped at the applicable amount.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInvalid is returned when a coupon exists but is inactive, outside
	// its validity window, or globally exhausted.
	ErrInvalid = errors.New("coupon not valid")
	// ErrUsageLimitExceeded is returned when the customer has already
	// redeemed the coupon its per-user maximum number of times.
	ErrUsageLimitExceeded = errors.New("coupon usage limit exceeded for customer")
	// ErrBelowMinimumOrder is returned when the order amount does not reach
	// the coupon's minimum.
	ErrBelowMinimumOrder = errors.New("order amount below coupon minimum")
	// ErrNotApplicable is returned when a valid coupon yields a zero
	// discount, typically because no line item passes its filters.
	ErrNotApplicable = errors.New("coupon not applicable to order items")
)

// Usage is one redemption record in a coupon's append-only usage history.
type Usage struct {
	CustomerID     string
	UsedAt         time.Time
	OrderAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
}

// Item is an order line item as seen by the applicability filter.
type Item struct {
	ProductID string
	Category  string
	Price     decimal.Decimal
	Quantity  int
}

// Coupon is the full coupon aggregate, including its usage history.
//
// UsageLimit zero means unlimited global redemptions. UserUsageLimit is
// always enforced (the default is 1). The invariant UsageCount == len(UsedBy)
// holds after every redemption; the repository maintains it with a single
// conditional update so concurrent redemptions cannot overshoot the caps.
type Coupon struct {
	Code              string
	Description       string
	Terms             string
	DiscountType      DiscountType
	DiscountValue     decimal.Decimal
	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount decimal.NullDecimal

	UsageLimit     int
	UsageCount     int
	UserUsageLimit int

	ApplicableCategories []string
	ExcludedCategories   []string
	ApplicableProducts   []string
	ExcludedProducts     []string

	StartDate time.Time
	EndDate   time.Time
	Active    bool

	UsedBy []Usage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch describes a partial coupon update. Nil fields are left untouched;
// non-nil fields are written even when they carry a zero value, so "set the
// minimum order amount to 0" and "don't touch it" stay distinguishable.
type Patch struct {
	Description       *string
	Terms             *string
	DiscountValue     *decimal.Decimal
	MinOrderAmount    *decimal.Decimal
	MaxDiscountAmount *decimal.NullDecimal
	UsageLimit        *int
	UserUsageLimit    *int
	StartDate         *time.Time
	EndDate           *time.Time
	Active            *bool
}

// Repository provides lookup and mutation of coupons.
type Repository interface {
	// FindByCode returns the coupon for the given code (case-insensitive),
	// including its usage history. Returns ErrNotFound when absent.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// Create persists a new coupon.
	Create(ctx context.Context, c *Coupon) error
	// Update applies a partial update and returns the updated coupon.
	Update(ctx context.Context, code string, p Patch) (*Coupon, error)
	// List returns all coupons ordered by code.
	List(ctx context.Context) ([]Coupon, error)
	// Redeem atomically appends a usage record and increments the usage
	// counter, guarded by the coupon's validity window and both usage caps.
	// Returns ErrInvalid when the guard fails, which closes the window
	// between check and redemption under concurrent requests.
	Redeem(ctx context.Context, code string, u Usage) error
}
