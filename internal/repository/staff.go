package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranakart/kirana-backend/internal/domain/staff"
)

const (
	getStaffByUsernameSQL = `SELECT id, username, password_hash, role, active, created_at
		FROM staff WHERE username = $1`

	createStaffSQL = `INSERT INTO staff (id, username, password_hash, role, active)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ staff.Repository = (*StaffRepository)(nil)

// StaffRepository implements staff.Repository backed by PostgreSQL.
type StaffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository returns a StaffRepository that uses the given pool.
func NewStaffRepository(pool *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

// GetByUsername returns the staff member with the given username, or
// staff.ErrNotFound.
func (r *StaffRepository) GetByUsername(ctx context.Context, username string) (*staff.Staff, error) {
	rows, err := r.pool.Query(ctx, getStaffByUsernameSQL, username)
	if err != nil {
		return nil, fmt.Errorf("getting staff %q: %w", username, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanStaff)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, staff.ErrNotFound
		}
		return nil, fmt.Errorf("getting staff %q: %w", username, err)
	}
	return &s, nil
}

// Create persists a new staff member.
func (r *StaffRepository) Create(ctx context.Context, s *staff.Staff) error {
	_, err := r.pool.Exec(ctx, createStaffSQL, s.ID, s.Username, s.PasswordHash, s.Role, s.Active)
	if err != nil {
		return fmt.Errorf("creating staff %q: %w", s.Username, err)
	}
	return nil
}

func scanStaff(row pgx.CollectableRow) (staff.Staff, error) {
	var s staff.Staff
	err := row.Scan(&s.ID, &s.Username, &s.PasswordHash, &s.Role, &s.Active, &s.CreatedAt)
	return s, err
}
