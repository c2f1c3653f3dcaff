package credit

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type classifies a ledger entry. The stored Amount is always a magnitude;
// the direction of the balance move is carried by the type, except for
// credit_adjustment where it is recovered from the balance snapshots.
type Type string

const (
	TypeCreditUsed      Type = "credit_used"
	TypePaymentReceived Type = "payment_received"
	TypeAdjustment      Type = "credit_adjustment"
	TypeInterestCharged Type = "interest_charged"
	TypeLateFee         Type = "late_fee"
)

// Status is the settlement state of a ledger entry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Transaction is one immutable row in a customer's credit ledger. Every row
// carries the exact pre- and post-mutation balance, making the ledger
// auditable without reading current account state. Rows are never updated or
// deleted after creation.
type Transaction struct {
	ID          int64
	CustomerID  string
	OrderID     string
	Type        Type
	Amount      decimal.Decimal
	Description string

	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal

	Status           Status
	PaymentMethod    string
	PaymentReference string
	DueDate          *time.Time
	PaidDate         *time.Time
	// ReceiptNumber is assigned only to payment_received rows.
	ReceiptNumber string

	ProcessedBy string
	Notes       string
	CreatedAt   time.Time
}

// ApplyFunc mutates a customer's account and returns the ledger row that
// mirrors the mutation. It runs under the ledger's per-customer lock with the
// freshest persisted account state.
type ApplyFunc func(acct *Account) (*Transaction, error)

// Ledger persists credit transactions and account state as one logical unit.
type Ledger interface {
	// Apply loads the customer's account under an exclusive per-customer
	// lock, runs fn, then persists both the returned transaction and the
	// mutated account in the same database transaction. Either both writes
	// commit or neither does, so the ledger and the balance cannot diverge.
	// Business errors returned by fn abort without writing anything.
	Apply(ctx context.Context, customerID string, fn ApplyFunc) (*Transaction, error)
	// ListByCustomer returns the customer's ledger in creation order.
	ListByCustomer(ctx context.Context, customerID string) ([]Transaction, error)
}

// signedDelta returns the balance delta a row of the given type implies, and
// whether the sign is determined by the type alone. Adjustments store the
// magnitude with the direction applied only to the balance, so their sign is
// only recoverable from the snapshots.
func signedDelta(typ Type, amount decimal.Decimal) (decimal.Decimal, bool) {
	switch typ {
	case TypePaymentReceived:
		return amount.Neg(), true
	case TypeCreditUsed, TypeInterestCharged, TypeLateFee:
		return amount, true
	default:
		return decimal.Zero, false
	}
}

// Verify replays a customer's ledger in creation order and checks the chain
// invariant: each row's balance move matches its type and amount, and each
// row starts where the previous one ended.
func Verify(txs []Transaction) error {
	for i, t := range txs {
		move := t.BalanceAfter.Sub(t.BalanceBefore)

		if delta, ok := signedDelta(t.Type, t.Amount); ok {
			if !move.Equal(delta) {
				return errors.Errorf("row %d (%s): balance moved %s, want %s", t.ID, t.Type, move, delta)
			}
		} else if !move.Abs().Equal(t.Amount) {
			return errors.Errorf("row %d (%s): balance moved %s, magnitude %s", t.ID, t.Type, move, t.Amount)
		}

		if i > 0 && !t.BalanceBefore.Equal(txs[i-1].BalanceAfter) {
			return errors.Errorf("row %d: balance before %s does not chain from %s",
				t.ID, t.BalanceBefore, txs[i-1].BalanceAfter)
		}
	}
	return nil
}
