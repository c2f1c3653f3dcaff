package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranakart/kirana-backend/internal/domain/credit"
	"github.com/kiranakart/kirana-backend/internal/domain/customer"
)

const (
	lockCreditAccountSQL = `SELECT credit_limit, credit_balance, credit_score, credit_active,
		credit_approved_by, credit_approved_at, last_payment_date
		FROM customers WHERE id = $1 FOR UPDATE`

	insertCreditTransactionSQL = `INSERT INTO credit_transactions (customer_id, order_id, type, amount,
		description, balance_before, balance_after, status, payment_method, payment_reference,
		due_date, paid_date, receipt_number, processed_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	updateCreditAccountSQL = `UPDATE customers SET credit_limit = $2, credit_balance = $3,
		credit_score = $4, credit_active = $5, credit_approved_by = $6, credit_approved_at = $7,
		last_payment_date = $8
		WHERE id = $1`

	listCreditTransactionsSQL = `SELECT id, customer_id, order_id, type, amount, description,
		balance_before, balance_after, status, payment_method, payment_reference,
		due_date, paid_date, receipt_number, processed_by, notes, created_at
		FROM credit_transactions WHERE customer_id = $1 ORDER BY id`
)

var _ credit.Ledger = (*CreditLedger)(nil)

// CreditLedger implements credit.Ledger backed by PostgreSQL. Apply holds a
// row lock on the customer for the duration of the callback, so mutations of
// one account are serialized and the ledger row is written in the same
// transaction as the balance it describes.
type CreditLedger struct {
	pool *pgxpool.Pool
}

// NewCreditLedger returns a CreditLedger that uses the given pool.
func NewCreditLedger(pool *pgxpool.Pool) *CreditLedger {
	return &CreditLedger{pool: pool}
}

// Apply loads the customer's credit account under a row lock, runs fn against
// it, then writes the ledger row fn produced and the mutated account back in
// the same transaction. Returns customer.ErrNotFound when the customer does
// not exist, and fn's error unchanged when fn fails.
func (l *CreditLedger) Apply(ctx context.Context, customerID string, fn credit.ApplyFunc) (*credit.Transaction, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning credit transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var account credit.Account
	err = tx.QueryRow(ctx, lockCreditAccountSQL, customerID).Scan(
		&account.CreditLimit, &account.CurrentBalance, &account.CreditScore, &account.Active,
		&account.ApprovedBy, &account.ApprovedAt, &account.LastPaymentDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("locking credit account %q: %w", customerID, err)
	}

	row, err := fn(&account)
	if err != nil {
		return nil, err
	}
	row.CustomerID = customerID

	err = tx.QueryRow(ctx, insertCreditTransactionSQL,
		row.CustomerID, row.OrderID, string(row.Type), row.Amount, row.Description,
		row.BalanceBefore, row.BalanceAfter, string(row.Status), row.PaymentMethod,
		row.PaymentReference, row.DueDate, row.PaidDate, nullIfEmpty(row.ReceiptNumber),
		row.ProcessedBy, row.Notes,
	).Scan(&row.ID, &row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("recording credit transaction for %q: %w", customerID, err)
	}

	_, err = tx.Exec(ctx, updateCreditAccountSQL,
		customerID, account.CreditLimit, account.CurrentBalance, account.CreditScore,
		account.Active, account.ApprovedBy, account.ApprovedAt, account.LastPaymentDate,
	)
	if err != nil {
		return nil, fmt.Errorf("updating credit account %q: %w", customerID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing credit transaction for %q: %w", customerID, err)
	}

	return row, nil
}

// ListByCustomer returns the customer's ledger rows in insertion order.
func (l *CreditLedger) ListByCustomer(ctx context.Context, customerID string) ([]credit.Transaction, error) {
	rows, err := l.pool.Query(ctx, listCreditTransactionsSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing credit transactions for %q: %w", customerID, err)
	}
	return pgx.CollectRows(rows, scanCreditTransaction)
}

func scanCreditTransaction(row pgx.CollectableRow) (credit.Transaction, error) {
	var (
		t          credit.Transaction
		typ, state string
		receipt    *string
	)
	err := row.Scan(
		&t.ID, &t.CustomerID, &t.OrderID, &typ, &t.Amount, &t.Description,
		&t.BalanceBefore, &t.BalanceAfter, &state, &t.PaymentMethod, &t.PaymentReference,
		&t.DueDate, &t.PaidDate, &receipt, &t.ProcessedBy, &t.Notes, &t.CreatedAt,
	)
	t.Type = credit.Type(typ)
	t.Status = credit.Status(state)
	if receipt != nil {
		t.ReceiptNumber = *receipt
	}
	return t, err
}

// nullIfEmpty maps the zero string to SQL NULL, so the unique receipt_number
// constraint only sees real receipts.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
