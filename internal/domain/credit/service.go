package credit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kirana-backend/internal/domain/money"
)

// creditDueDays is how long a credit purchase has until it falls due.
const creditDueDays = 30

// Service owns every credit-account mutation. All balance changes flow
// through Ledger.Apply so each one commits together with exactly one ledger
// row.
type Service struct {
	ledger Ledger
	now    func() time.Time
}

// NewService creates a credit Service backed by the given Ledger.
func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger, now: time.Now}
}

// PaymentRequest describes a payment recorded against a customer's balance.
type PaymentRequest struct {
	CustomerID  string
	Amount      decimal.Decimal
	Method      string
	Reference   string
	Notes       string
	ProcessedBy string
}

// PaymentResult reports a recorded payment. Applied may be lower than
// Requested: a payment is capped at the balance owed, silently, so callers
// that care must compare the two.
type PaymentResult struct {
	Transaction *Transaction
	NewBalance  decimal.Decimal
	Requested   decimal.Decimal
	Applied     decimal.Decimal
}

// RecordPayment applies a payment to the customer's balance and appends a
// payment_received ledger row with a fresh receipt number. The applied amount
// is min(requested, balance owed), floored at zero for accounts already in
// credit. A successful payment nudges the credit score up by 2.
func (s *Service) RecordPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	now := s.now()
	var result PaymentResult

	tx, err := s.ledger.Apply(ctx, req.CustomerID, func(a *Account) (*Transaction, error) {
		if !a.Active {
			return nil, ErrInactiveAccount
		}

		applied := money.FloorAtZero(money.Min(req.Amount, a.CurrentBalance))
		before := a.CurrentBalance

		a.applyDelta(applied.Neg(), now)
		a.bumpScore(2)

		result.Requested = req.Amount
		result.Applied = applied
		result.NewBalance = a.CurrentBalance

		paid := now
		return &Transaction{
			CustomerID:       req.CustomerID,
			Type:             TypePaymentReceived,
			Amount:           applied,
			Description:      fmt.Sprintf("Payment received via %s", req.Method),
			BalanceBefore:    before,
			BalanceAfter:     a.CurrentBalance,
			Status:           StatusCompleted,
			PaymentMethod:    req.Method,
			PaymentReference: req.Reference,
			PaidDate:         &paid,
			ReceiptNumber:    newReceiptNumber(now),
			ProcessedBy:      req.ProcessedBy,
			Notes:            req.Notes,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	result.Transaction = tx
	return &result, nil
}

// AdjustmentRequest describes a signed manual balance correction. A positive
// amount increases the debt, a negative one reduces it.
type AdjustmentRequest struct {
	CustomerID  string
	Amount      decimal.Decimal
	Reason      string
	ProcessedBy string
}

// AdjustmentResult reports an applied adjustment.
type AdjustmentResult struct {
	Transaction *Transaction
	NewBalance  decimal.Decimal
}

// Adjust applies a signed manual correction. The ledger row stores the
// magnitude; the sign lives only in the balance move, which Verify recovers
// from the snapshots. A debt-increasing adjustment costs 5 credit score
// points.
func (s *Service) Adjust(ctx context.Context, req AdjustmentRequest) (*AdjustmentResult, error) {
	if req.Amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, ErrReasonRequired
	}

	now := s.now()
	var result AdjustmentResult

	tx, err := s.ledger.Apply(ctx, req.CustomerID, func(a *Account) (*Transaction, error) {
		if !a.Active {
			return nil, ErrInactiveAccount
		}

		before := a.CurrentBalance
		a.applyDelta(req.Amount, now)
		if req.Amount.IsPositive() {
			a.bumpScore(-5)
		}
		result.NewBalance = a.CurrentBalance

		return &Transaction{
			CustomerID:    req.CustomerID,
			Type:          TypeAdjustment,
			Amount:        req.Amount.Abs(),
			Description:   req.Reason,
			BalanceBefore: before,
			BalanceAfter:  a.CurrentBalance,
			Status:        StatusCompleted,
			ProcessedBy:   req.ProcessedBy,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	result.Transaction = tx
	return &result, nil
}

// Approve activates a customer's credit account with the given limit and
// appends a zero-amount audit row. The balance is untouched.
func (s *Service) Approve(ctx context.Context, customerID string, limit decimal.Decimal, approvedBy string) (*Transaction, error) {
	if limit.IsNegative() {
		return nil, ErrInvalidAmount
	}

	now := s.now()
	return s.ledger.Apply(ctx, customerID, func(a *Account) (*Transaction, error) {
		a.Active = true
		a.CreditLimit = limit
		a.ApprovedBy = approvedBy
		at := now
		a.ApprovedAt = &at

		return &Transaction{
			CustomerID:    customerID,
			Type:          TypeAdjustment,
			Amount:        decimal.Zero,
			Description:   fmt.Sprintf("Credit account approved with limit %s", limit),
			BalanceBefore: a.CurrentBalance,
			BalanceAfter:  a.CurrentBalance,
			Status:        StatusCompleted,
			ProcessedBy:   approvedBy,
		}, nil
	})
}

// Deactivate closes a customer's credit account. It fails with
// ErrOutstandingBalance while the customer still owes anything.
func (s *Service) Deactivate(ctx context.Context, customerID, reason, processedBy string) (*Transaction, error) {
	return s.ledger.Apply(ctx, customerID, func(a *Account) (*Transaction, error) {
		if a.CurrentBalance.IsPositive() {
			return nil, ErrOutstandingBalance
		}
		a.Active = false

		desc := "Credit account deactivated"
		if reason != "" {
			desc = fmt.Sprintf("Credit account deactivated: %s", reason)
		}
		return &Transaction{
			CustomerID:    customerID,
			Type:          TypeAdjustment,
			Amount:        decimal.Zero,
			Description:   desc,
			BalanceBefore: a.CurrentBalance,
			BalanceAfter:  a.CurrentBalance,
			Status:        StatusCompleted,
			ProcessedBy:   processedBy,
		}, nil
	})
}

// UseCredit charges an order against the customer's credit line. The
// headroom check runs inside the lock, so concurrent charges cannot push the
// balance over the limit. The charge falls due creditDueDays out.
func (s *Service) UseCredit(ctx context.Context, customerID, orderID string, amount decimal.Decimal, processedBy string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	now := s.now()
	return s.ledger.Apply(ctx, customerID, func(a *Account) (*Transaction, error) {
		if !a.Active {
			return nil, ErrInactiveAccount
		}
		if !a.CanUse(amount) {
			return nil, ErrInsufficientCredit
		}

		before := a.CurrentBalance
		a.applyDelta(amount, now)

		due := now.AddDate(0, 0, creditDueDays)
		return &Transaction{
			CustomerID:    customerID,
			OrderID:       orderID,
			Type:          TypeCreditUsed,
			Amount:        amount,
			Description:   fmt.Sprintf("Order %s purchased on credit", orderID),
			BalanceBefore: before,
			BalanceAfter:  a.CurrentBalance,
			Status:        StatusCompleted,
			DueDate:       &due,
			ProcessedBy:   processedBy,
		}, nil
	})
}

// Statement returns the customer's ledger in creation order.
func (s *Service) Statement(ctx context.Context, customerID string) ([]Transaction, error) {
	return s.ledger.ListByCustomer(ctx, customerID)
}

// newReceiptNumber derives a unique payment receipt identifier.
func newReceiptNumber(now time.Time) string {
	id := uuid.New().String()
	return fmt.Sprintf("RCP-%s-%s", now.Format("20060102"), strings.ToUpper(id[:8]))
}
