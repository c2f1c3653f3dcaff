// Package credit implements the store-extended revolving credit ("udhar")
// account and its append-only transaction ledger.
package credit

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for a non-positive payment or credit
	// amount, or a zero adjustment.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrReasonRequired is returned when a manual adjustment carries no reason.
	ErrReasonRequired = errors.New("adjustment reason required")
	// ErrInactiveAccount is returned when a mutation targets an account that
	// has not been approved or has been deactivated.
	ErrInactiveAccount = errors.New("credit account is not active")
	// ErrOutstandingBalance is returned when deactivation is attempted while
	// the customer still owes money.
	ErrOutstandingBalance = errors.New("credit account has outstanding balance")
	// ErrInsufficientCredit is returned when a credit purchase would push the
	// balance over the approved limit.
	ErrInsufficientCredit = errors.New("insufficient available credit")
)

// Account is the per-customer credit state, owned by the Customer aggregate.
// CurrentBalance is the amount the customer owes; it may go negative when the
// customer is in credit, and adjustments may push it over the limit, so
// downstream reporting must tolerate both.
type Account struct {
	CreditLimit    decimal.Decimal
	CurrentBalance decimal.Decimal
	// CreditScore is a 0-100 heuristic nudged on payments and adjustments.
	CreditScore     int
	Active          bool
	ApprovedBy      string
	ApprovedAt      *time.Time
	LastPaymentDate *time.Time
}

// Available returns the credit headroom: limit minus current balance.
func (a Account) Available() decimal.Decimal {
	return a.CreditLimit.Sub(a.CurrentBalance)
}

// CanUse reports whether the account is active and has at least amount of
// headroom. It is a pure read; reserving the credit happens inside
// Ledger.Apply under the per-customer lock.
func (a Account) CanUse(amount decimal.Decimal) bool {
	if !a.Active {
		return false
	}
	return a.Available().GreaterThanOrEqual(amount)
}

// applyDelta mutates the balance by a signed delta. A negative delta is a
// payment (balance decreasing), which also stamps LastPaymentDate.
func (a *Account) applyDelta(delta decimal.Decimal, now time.Time) {
	a.CurrentBalance = a.CurrentBalance.Add(delta)
	if delta.IsNegative() {
		t := now
		a.LastPaymentDate = &t
	}
}

// bumpScore moves the credit score by delta, clamped to [0, 100].
func (a *Account) bumpScore(delta int) {
	a.CreditScore += delta
	if a.CreditScore > 100 {
		a.CreditScore = 100
	}
	if a.CreditScore < 0 {
		a.CreditScore = 0
	}
}
