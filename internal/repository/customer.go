package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranakart/kirana-backend/internal/domain/customer"
)

const (
	customerColumns = `id, name, phone, email, credit_limit, credit_balance, credit_score,
		credit_active, credit_approved_by, credit_approved_at, last_payment_date, created_at`

	getCustomerByIDSQL = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	getCustomerByPhoneSQL = `SELECT ` + customerColumns + ` FROM customers WHERE phone = $1`

	createCustomerSQL = `INSERT INTO customers (id, name, phone, email)
		VALUES ($1, $2, $3, $4)`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetByID returns the customer with the given ID, or customer.ErrNotFound.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	return r.getOne(ctx, getCustomerByIDSQL, id)
}

// GetByPhone returns the customer with the given phone number, or
// customer.ErrNotFound.
func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	return r.getOne(ctx, getCustomerByPhoneSQL, phone)
}

// Create persists a new customer. The credit account starts unapproved with
// the schema defaults.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	_, err := r.pool.Exec(ctx, createCustomerSQL, c.ID, c.Name, c.Phone, c.Email)
	if err != nil {
		return fmt.Errorf("creating customer %q: %w", c.ID, err)
	}
	return nil
}

func (r *CustomerRepository) getOne(ctx context.Context, sql, arg string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying customer %q: %w", arg, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("querying customer %q: %w", arg, err)
	}
	return &c, nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &c.Email,
		&c.Credit.CreditLimit, &c.Credit.CurrentBalance, &c.Credit.CreditScore,
		&c.Credit.Active, &c.Credit.ApprovedBy, &c.Credit.ApprovedAt, &c.Credit.LastPaymentDate,
		&c.CreatedAt,
	)
	return c, err
}
