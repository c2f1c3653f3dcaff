package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Quote is the outcome of evaluating a coupon against an order. It is
// returned both by the read-only pre-checkout validation and by redemption.
type Quote struct {
	Code           string
	Description    string
	DiscountAmount decimal.Decimal
}

// Service evaluates and redeems coupons against orders.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a coupon Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Quote evaluates a coupon code for a customer's order without consuming a
// use. It surfaces the full eligibility taxonomy: ErrNotFound for unknown
// codes, ErrInvalid for inactive/expired/exhausted coupons,
// ErrUsageLimitExceeded when the customer is over the per-user cap,
// ErrBelowMinimumOrder and ErrNotApplicable for orders the coupon cannot
// discount.
func (s *Service) Quote(ctx context.Context, code, customerID string, orderAmount decimal.Decimal, items []Item) (*Quote, error) {
	c, err := s.repo.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	now := s.now()

	if !c.IsValid(now) {
		return nil, ErrInvalid
	}
	if !c.CanBeUsedBy(customerID, now) {
		return nil, ErrUsageLimitExceeded
	}
	if orderAmount.LessThan(c.MinOrderAmount) {
		return nil, ErrBelowMinimumOrder
	}

	discount := c.CalculateDiscount(now, orderAmount, items)
	if discount.IsZero() {
		return nil, ErrNotApplicable
	}

	return &Quote{
		Code:           c.Code,
		Description:    c.Description,
		DiscountAmount: discount,
	}, nil
}

// Redeem evaluates the coupon exactly like Quote and, on success, records the
// redemption through the repository's atomic guard. A concurrent redemption
// that exhausts either usage cap between the evaluation and the write makes
// the guard fail with ErrInvalid.
func (s *Service) Redeem(ctx context.Context, code, customerID string, orderAmount decimal.Decimal, items []Item) (*Quote, error) {
	q, err := s.Quote(ctx, code, customerID, orderAmount, items)
	if err != nil {
		return nil, err
	}

	u := Usage{
		CustomerID:     customerID,
		UsedAt:         s.now(),
		OrderAmount:    orderAmount,
		DiscountAmount: q.DiscountAmount,
	}
	if err := s.repo.Redeem(ctx, q.Code, u); err != nil {
		if errors.Is(err, ErrInvalid) {
			return nil, ErrInvalid
		}
		return nil, errors.Wrap(err, "record coupon use")
	}

	return q, nil
}

// normalizeCode uppercases a coupon code so lookups are case-insensitive.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
