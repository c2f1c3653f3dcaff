// Package customer defines the customer aggregate. The credit account is an
// owned value object inside the aggregate, not a separate entity: it is
// loaded and stored with the customer row.
package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/kiranakart/kirana-backend/internal/domain/credit"
)

// ErrNotFound is returned when no customer exists for an id or phone number.
var ErrNotFound = errors.New("customer not found")

// Customer is a registered store customer.
type Customer struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	Credit    credit.Account
	CreatedAt time.Time
}

// Repository provides customer lookup and registration.
type Repository interface {
	// GetByID returns the customer with their credit account.
	// Returns ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*Customer, error)
	// GetByPhone looks a customer up by phone number, the store's natural key
	// at the counter. Returns ErrNotFound when absent.
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	// Create registers a new customer. The credit account starts inactive
	// with a zero limit until an admin approves it.
	Create(ctx context.Context, c *Customer) error
}
