package coupon

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiranakart/kirana-backend/internal/domain/money"
)

var hundred = decimal.NewFromInt(100)

// IsValid reports whether the coupon can be redeemed at the given instant:
// it must be active, now must fall within [StartDate, EndDate] inclusive,
// and the global usage limit (when set) must not be exhausted. Validity is
// time and state dependent, so callers re-evaluate it at use time.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.Active {
		return false
	}
	if now.Before(c.StartDate) || now.After(c.EndDate) {
		return false
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return false
	}
	return true
}

// UsesBy counts how many times the given customer appears in the usage history.
func (c *Coupon) UsesBy(customerID string) int {
	n := 0
	for _, u := range c.UsedBy {
		if u.CustomerID == customerID {
			n++
		}
	}
	return n
}

// CanBeUsedBy reports whether the coupon is valid and the customer is still
// under the per-user redemption cap. The per-user cap is independent of the
// global limit: a customer may redeem up to UserUsageLimit times while the
// coupon has global uses remaining.
func (c *Coupon) CanBeUsedBy(customerID string, now time.Time) bool {
	if !c.IsValid(now) {
		return false
	}
	return c.UsesBy(customerID) < c.UserUsageLimit
}

// restricted reports whether any applicability filter list is set.
func (c *Coupon) restricted() bool {
	return len(c.ApplicableCategories) > 0 ||
		len(c.ExcludedCategories) > 0 ||
		len(c.ApplicableProducts) > 0 ||
		len(c.ExcludedProducts) > 0
}

// matches reports whether a line item passes all four filter lists. An empty
// applicable list means every value is eligible; an empty excluded list
// excludes nothing. Category and product filters are layered, so an item must
// pass both.
func (c *Coupon) matches(it Item) bool {
	if len(c.ApplicableCategories) > 0 && !slices.Contains(c.ApplicableCategories, it.Category) {
		return false
	}
	if slices.Contains(c.ExcludedCategories, it.Category) {
		return false
	}
	if len(c.ApplicableProducts) > 0 && !slices.Contains(c.ApplicableProducts, it.ProductID) {
		return false
	}
	if slices.Contains(c.ExcludedProducts, it.ProductID) {
		return false
	}
	return true
}

// ApplicableAmount returns the portion of the order value the discount is
// computed against: the full order amount when no filters are set, otherwise
// the sum of price*quantity over the items passing every filter.
func (c *Coupon) ApplicableAmount(orderAmount decimal.Decimal, items []Item) decimal.Decimal {
	if !c.restricted() {
		return orderAmount
	}
	sum := decimal.Zero
	for _, it := range items {
		if !c.matches(it) {
			continue
		}
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// CalculateDiscount computes the discount for an order. It returns zero when
// the coupon is not valid at now, when the order amount is below the minimum,
// or when no item passes the filters. The result is clamped to
// MaxDiscountAmount (when set) and to the applicable amount, floored at zero,
// and rounded to two decimal places. It never exceeds
// min(orderAmount, applicableAmount).
func (c *Coupon) CalculateDiscount(now time.Time, orderAmount decimal.Decimal, items []Item) decimal.Decimal {
	if !c.IsValid(now) {
		return decimal.Zero
	}
	if orderAmount.LessThan(c.MinOrderAmount) {
		return decimal.Zero
	}

	applicable := c.ApplicableAmount(orderAmount, items)

	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount = applicable.Mul(c.DiscountValue).Div(hundred)
	case DiscountFixed:
		discount = c.DiscountValue
	default:
		return decimal.Zero
	}

	if c.MaxDiscountAmount.Valid {
		discount = money.Min(discount, c.MaxDiscountAmount.Decimal)
	}
	discount = money.Min(discount, applicable)

	return money.Round2(money.FloorAtZero(discount))
}

// MarkUsed appends a redemption record and bumps the usage counter. It
// performs no validation: callers must have checked IsValid and CanBeUsedBy,
// and persistence goes through Repository.Redeem which re-applies the guards
// atomically.
func (c *Coupon) MarkUsed(customerID string, orderAmount, discountAmount decimal.Decimal, now time.Time) {
	c.UsedBy = append(c.UsedBy, Usage{
		CustomerID:     customerID,
		UsedAt:         now,
		OrderAmount:    orderAmount,
		DiscountAmount: discountAmount,
	})
	c.UsageCount++
}
